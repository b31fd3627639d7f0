package main

import (
	"context"
	"strings"
	"time"

	"go.uber.org/multierr"

	"xync.dev/xync/config"
	"xync.dev/xync/lock"
	"xync.dev/xync/logging"
	"xync.dev/xync/model"
	"xync.dev/xync/pair"
	"xync.dev/xync/replicate"
	"xync.dev/xync/report"
	"xync.dev/xync/zfs"
)

// runReplication loads configuration, acquires the process-wide snapshot
// lock, and drives every configured pair through the replication engine,
// isolating failures per pair and per dataset per spec.md §4.6-§4.8.
func runReplication(ctx context.Context, configPath string) (err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fatal(1, "loading config: %w", err)
	}

	now := time.Now()
	tag := cfg.ResolveTag(now)
	cfg.LogFile = cfg.ResolveLogFile(now, tag)

	logs, err := logging.NewSet(logging.Options{
		LogFile:        logFilePath(cfg),
		Syslog:         cfg.Syslog,
		SyslogFacility: cfg.SyslogFacility,
	})
	if err != nil {
		return fatal(1, "setting up logging: %w", err)
	}
	// Best-effort cleanup at exit: releasing the lock matters more than the
	// logger flush, but neither failure should swallow the other or the
	// run's own return value.
	defer func() {
		err = multierr.Append(err, logs.Close())
	}()

	globalLog := logs.Scope("global")
	rep := report.New()

	snapshotLock, err := lock.Acquire("snapshot")
	if err != nil {
		globalLog.Errorf("%s", err)
		rep.MarkErrored()
		globalLog.Printf("%s", rep.Summary())
		return fatal(128, "acquiring snapshot lock: %w", err)
	}
	defer func() {
		err = multierr.Append(err, snapshotLock.Release())
	}()

	if cfg.LogBase != "" && cfg.LogKeep > 0 {
		if err := logging.Rotate(cfg.LogBase, cfg.LogKeep); err != nil {
			globalLog.Warnf("rotating log files: %s", err)
		}
	}

	go func() {
		<-ctx.Done()
		globalLog.Errorf("%s", errSignaled)
		rep.MarkErrored()
	}()

	engine := &replicate.Engine{
		ZFS:    map[model.HostRef]zfs.Endpoint{},
		Config: cfg,
	}

	for _, spec := range strings.Fields(cfg.ReplicateSets) {
		if ctx.Err() != nil {
			break
		}
		rep.IncPairCount()
		runPair(ctx, engine, cfg, logs, rep, spec, tag)
	}

	globalLog.Printf("%s", rep.Summary())

	if ctx.Err() != nil {
		return fatal(128, "%w", errSignaled)
	}
	if rep.ExitCode() != 0 {
		return fatal(rep.ExitCode(), "run completed with errors")
	}
	return nil
}

func logFilePath(cfg *config.Config) string {
	if cfg.LogBase == "" || cfg.LogFile == "" {
		return ""
	}
	return cfg.LogBase + "/" + cfg.LogFile
}

// runPair plans, validates, and expands one REPLICATE_SETS entry, then
// runs the replication engine over every dataset the expansion produces.
// It never returns an error: every failure is logged and counted, and
// control always returns to the caller's loop over the remaining pairs.
func runPair(ctx context.Context, engine *replicate.Engine, cfg *config.Config, logs *logging.Set, rep *report.Report, spec, tag string) {
	log := logs.Scope(spec)

	p, err := pair.Parse(spec)
	if err != nil {
		log.Warnf("skipping malformed pair: %s", err)
		rep.IncPairSkip()
		return
	}

	if err := pair.Validate(cfg, p); err != nil {
		log.Warnf("skipping pair: %s", err)
		rep.IncPairSkip()
		return
	}

	if err := pair.CheckHost(ctx, cfg.HostCheck, p.SrcHost); err != nil {
		log.Warnf("skipping pair: %s", err)
		rep.IncPairSkip()
		return
	}
	if err := pair.CheckHost(ctx, cfg.HostCheck, p.DstHost); err != nil {
		log.Warnf("skipping pair: %s", err)
		rep.IncPairSkip()
		return
	}

	recurseChildren, snapKeep := cfg.ForPair(spec)
	pairCfg := *cfg
	pairCfg.SnapKeep = snapKeep

	srcZFS := engine.ZFS[p.SrcHost]
	if srcZFS == nil {
		srcZFS = zfs.New(p.SrcHost)
		engine.ZFS[p.SrcHost] = srcZFS
	}
	dstZFS := engine.ZFS[p.DstHost]
	if dstZFS == nil {
		dstZFS = zfs.New(p.DstHost)
		engine.ZFS[p.DstHost] = dstZFS
	}

	expanded, err := pair.Plan(ctx, srcZFS, dstZFS, p, recurseChildren)
	if err != nil {
		log.Warnf("skipping pair: %s", err)
		rep.IncPairSkip()
		return
	}

	for _, ep := range expanded {
		if ctx.Err() != nil {
			return
		}
		rep.IncDatasetCount()

		datasetLog := logs.Scope(string(ep.SrcSet))
		datasetEngine := &replicate.Engine{ZFS: engine.ZFS, Config: &pairCfg, Log: datasetLog}

		skipped, err := datasetEngine.Run(ctx, ep, tag)
		if skipped {
			datasetLog.Warnf("skipped: %s", err)
			rep.IncDatasetSkip()
			continue
		}
		if err != nil {
			datasetLog.Errorf("%s", err)
			rep.IncDatasetSkip()
			continue
		}
		datasetLog.Printf("replicated %s", ep)
	}
}
