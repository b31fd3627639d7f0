// Package replicate implements the per-dataset replication state machine:
// inventory collection, base-snapshot selection, divergence gating,
// retention pruning, snapshot creation, and the send itself.
package replicate

import (
	"context"
	"fmt"

	"xync.dev/xync/config"
	"xync.dev/xync/inventory"
	"xync.dev/xync/lock"
	"xync.dev/xync/logging"
	"xync.dev/xync/model"
	"xync.dev/xync/zfs"
)

// Engine runs the replication state machine for one dataset at a time.
// ZFS holds one endpoint per host referenced by any configured pair,
// keyed by model.HostRef (the empty key is the local host). It's typed
// as the zfs.Endpoint interface rather than *zfs.Client so a test double
// can drive Run without a live filesystem-tool binary on PATH.
type Engine struct {
	ZFS    map[model.HostRef]zfs.Endpoint
	Config *config.Config
	Log    *logging.Logger
}

func (e *Engine) clientFor(host model.HostRef) zfs.Endpoint {
	if e.ZFS == nil {
		e.ZFS = make(map[model.HostRef]zfs.Endpoint)
	}
	if c, ok := e.ZFS[host]; ok {
		return c
	}
	c := zfs.New(host)
	e.ZFS[host] = c
	return c
}

// Run drives one dataset through Steps 1-10 of the replication state
// machine. It returns skipped=true with a diagnostic error whenever the
// dataset is abandoned in a way that should not abort the run; the caller
// logs the reason and continues to the next dataset.
func (e *Engine) Run(ctx context.Context, p model.Pair, tag string) (skipped bool, err error) {
	src := e.clientFor(p.SrcHost)
	dst := e.clientFor(p.DstHost)
	managedName := "autorep-" + tag

	// Step 1 — destination materialization.
	exists, err := dst.Exists(ctx, p.DstSet)
	if err != nil {
		return true, fmt.Errorf("checking destination %s: %w", p.DstSet, err)
	}
	if !exists {
		if err := dst.CreateParents(ctx, p.DstSet); err != nil {
			return true, fmt.Errorf("creating destination parent for %s: %w", p.DstSet, err)
		}
	}

	// Step 2 — inventory collection.
	srcSnaps, err := src.ListSnapshots(ctx, p.SrcSet, e.Config.SnapPattern)
	if err != nil {
		return true, fmt.Errorf("listing source snapshots of %s: %w", p.SrcSet, err)
	}
	dstSnaps, err := dst.ListSnapshots(ctx, p.DstSet, e.Config.SnapPattern)
	if err != nil {
		return true, fmt.Errorf("listing destination snapshots of %s: %w", p.DstSet, err)
	}

	// Step 3 — duplicate-name defense.
	if srcSnaps.HasName(managedName) {
		dup := &model.Snapshot{Dataset: p.SrcSet, Name: managedName}
		src.DestroySnapshot(ctx, dup)
		srcSnaps.Del(dup)
	}

	// Step 4 — base selection: newest-first over S, first name match in D.
	base := selectBase(srcSnaps, dstSnaps)

	// Step 5 — divergence gating.
	if base == nil && dstSnaps.Len() > 0 {
		if !e.Config.AllowReconciliation {
			return true, fmt.Errorf("destination %s holds snapshots unrelated to any source snapshot; set ALLOW_RECONCILIATION=1 to reconcile", p.DstSet)
		}

		allDstSnaps, err := dst.ListSnapshots(ctx, p.DstSet, "")
		if err != nil {
			return true, fmt.Errorf("listing full destination inventory of %s for reconciliation: %w", p.DstSet, err)
		}
		for snap := range allDstSnaps.All() {
			dst.DestroySnapshot(ctx, snap)
		}
		dstSnaps = inventory.New()
	}

	// Step 6 — source-side managed pruning.
	pruneOldest(ctx, src, srcSnaps, e.Config.SnapKeep)

	// Step 7 — destination-side managed pruning.
	pruneOldest(ctx, dst, dstSnaps, e.Config.SnapKeep)

	// Step 8 — snapshot creation.
	newSnap := &model.Snapshot{Dataset: p.SrcSet, Name: managedName}
	if err := src.CreateSnapshot(ctx, newSnap); err != nil {
		return true, fmt.Errorf("creating snapshot %s: %w", newSnap, err)
	}

	// Step 9 — send, acquired and released around this one dataset.
	sendLock, err := lock.Acquire("send")
	if err != nil {
		src.DestroySnapshot(ctx, newSnap)
		return true, fmt.Errorf("acquiring send lock: %w", err)
	}
	defer sendLock.Release()

	opts := zfs.SendOpts{
		Base:      base,
		IncrOpt:   e.Config.ZFSIncrOpt,
		SendFlags: e.Config.ZFSSendOpts,
		RecvFlags: e.Config.ZFSRecvOpts,
	}
	if err := src.Send(ctx, e.Log, newSnap, dst, p.DstSet, opts); err != nil {
		src.DestroySnapshot(ctx, newSnap)
		return true, fmt.Errorf("sending %s to %s: %w", newSnap, p.DstSet, err)
	}

	return false, nil
}

// selectBase implements Step 4: walk S from newest to oldest, and for each
// source snapshot look for a destination snapshot sharing its managed
// name. The first match in that order wins; nil if S or D is empty, or no
// name is shared.
func selectBase(s, d *inventory.Snapshots) *model.Snapshot {
	if s.Len() == 0 || d.Len() == 0 {
		return nil
	}
	for snap := range s.AllDesc() {
		if d.HasName(snap.Name) {
			return snap
		}
	}
	return nil
}

// destroyer is the narrow surface pruneOldest needs from a zfs.Endpoint,
// kept as its own interface so pruning tests need only a DestroySnapshot
// stub rather than a full Endpoint fake.
type destroyer interface {
	DestroySnapshot(ctx context.Context, snap *model.Snapshot)
}

// pruneOldest destroys the oldest snapshots in snaps until fewer than keep
// remain, per Steps 6/7's "|S| >= SNAP_KEEP" retention rule.
func pruneOldest(ctx context.Context, c destroyer, snaps *inventory.Snapshots, keep int) {
	for snaps.Len() >= keep {
		oldest := snaps.Oldest()
		if oldest == nil {
			return
		}
		c.DestroySnapshot(ctx, oldest)
		snaps.Del(oldest)
	}
}
