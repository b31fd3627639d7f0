// Package pair parses, validates, and plans replication pairs: turning a
// "src[@srcHost]:dst[@dstHost]" spec string into the expanded list of
// per-dataset model.Pair values the replication engine runs against.
package pair

import (
	"context"
	"fmt"
	"strings"

	"xync.dev/xync/config"
	"xync.dev/xync/exec"
	"xync.dev/xync/model"
	"xync.dev/xync/zfs"
)

// Parse splits "src[@srcHost]:dst[@dstHost]" on the first colon, then each
// half on its last '@', per spec.md's pair-spec grammar.
func Parse(spec string) (model.Pair, error) {
	idx := strings.IndexByte(spec, ':')
	if idx < 0 {
		return model.Pair{}, fmt.Errorf("pair spec %q: missing ':' separating source and destination", spec)
	}

	srcHalf := strings.TrimSpace(spec[:idx])
	dstHalf := strings.TrimSpace(spec[idx+1:])
	if srcHalf == "" || dstHalf == "" {
		return model.Pair{}, fmt.Errorf("pair spec %q: source and destination must both be non-empty", spec)
	}

	srcSet, srcHost := splitHost(srcHalf)
	dstSet, dstHost := splitHost(dstHalf)

	return model.Pair{
		SrcSet:  srcSet,
		SrcHost: srcHost,
		DstSet:  dstSet,
		DstHost: dstHost,
	}, nil
}

func splitHost(half string) (model.DatasetName, model.HostRef) {
	if i := strings.LastIndexByte(half, '@'); i >= 0 {
		return model.DatasetName(half[:i]), model.HostRef(half[i+1:])
	}
	return model.DatasetName(half), ""
}

// Validate rejects a pair whose destination resolves to a root dataset,
// unless the config explicitly allows it.
func Validate(cfg *config.Config, p model.Pair) error {
	if p.DstSet.IsRoot() && !cfg.AllowRootDatasets {
		return fmt.Errorf("pair %s: destination %s is a root dataset; set ALLOW_ROOT_DATASETS=1 to permit this", p, p.DstSet)
	}
	return nil
}

// CheckHost runs cfg.HostCheck with %HOST% substituted for host, on the
// local machine, to probe liveness before committing to a pair. A local
// (empty) host is always considered live without running anything.
func CheckHost(ctx context.Context, template string, host model.HostRef) error {
	if host.IsLocal() {
		return nil
	}
	cmd := strings.ReplaceAll(template, "%HOST%", string(host))
	if _, err := exec.Run(ctx, "", []string{"sh", "-c", cmd}); err != nil {
		return fmt.Errorf("host check failed for %s: %w", host, err)
	}
	return nil
}

// Plan expands p into the set of source datasets to replicate (p.SrcSet
// alone, or p.SrcSet plus its descendants when recurseChildren is set),
// pairing each with its effective destination. Without recursion, a source
// that does not exist fails the whole pair. With recursion, the descendant
// listing alone defines the set (no per-dataset existence probe), and an
// empty listing fails the whole pair.
//
// Before expanding, it probes the destination parent per spec.md §4.5's
// last bullet: the pair is rejected if that probe itself fails (host
// unreachable, command error), even though a merely-missing parent is
// expected and left for the engine's own Step 1 to create.
func Plan(ctx context.Context, srcZFS, dstZFS zfs.Endpoint, p model.Pair, recurseChildren bool) ([]model.Pair, error) {
	if parent := p.DstSet.Dirname(); parent != "" {
		if _, err := dstZFS.Exists(ctx, parent); err != nil {
			return nil, fmt.Errorf("checking destination parent %s: %w", parent, err)
		}
	}

	if !recurseChildren {
		exists, err := srcZFS.Exists(ctx, p.SrcSet)
		if err != nil {
			return nil, fmt.Errorf("checking source %s: %w", p.SrcSet, err)
		}
		if !exists {
			return nil, fmt.Errorf("source dataset %s does not exist", p.SrcSet)
		}
		return []model.Pair{{SrcSet: p.SrcSet, SrcHost: p.SrcHost, DstSet: p.EffectiveDest(p.SrcSet), DstHost: p.DstHost}}, nil
	}

	descendants, err := srcZFS.ListDescendants(ctx, p.SrcSet)
	if err != nil {
		return nil, fmt.Errorf("listing descendants of %s: %w", p.SrcSet, err)
	}
	if len(descendants) == 0 {
		return nil, fmt.Errorf("source dataset %s does not exist", p.SrcSet)
	}

	out := make([]model.Pair, 0, len(descendants))
	for _, srcSet := range descendants {
		out = append(out, model.Pair{
			SrcSet:  srcSet,
			SrcHost: p.SrcHost,
			DstSet:  p.EffectiveDest(srcSet),
			DstHost: p.DstHost,
		})
	}
	return out, nil
}
