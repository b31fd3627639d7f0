// Package zfs drives the filesystem tool (zfs(8)) locally or over SSH,
// implementing the Dataset Inspector and Snapshot Operator roles. It never
// interprets snapshot names beyond the managed prefix filter it's given.
package zfs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"xync.dev/xync/exec"
	"xync.dev/xync/inventory"
	"xync.dev/xync/model"
)

// Client runs zfs(8) against datasets on a single host.
type Client struct {
	Host model.HostRef
}

func New(host model.HostRef) *Client {
	return &Client{Host: host}
}

// Endpoint is the surface the replication engine and pair planner need
// from a filesystem-tool client, narrowed to an interface so both can be
// driven by a test double instead of a live client shelling out to zfs(8)
// or ssh(1).
type Endpoint interface {
	HostRef() model.HostRef
	Exists(ctx context.Context, set model.DatasetName) (bool, error)
	CreateParents(ctx context.Context, set model.DatasetName) error
	ListDescendants(ctx context.Context, set model.DatasetName) ([]model.DatasetName, error)
	ListSnapshots(ctx context.Context, set model.DatasetName, prefixFilter string) (*inventory.Snapshots, error)
	CreateSnapshot(ctx context.Context, snap *model.Snapshot) error
	DestroySnapshot(ctx context.Context, snap *model.Snapshot)
	Send(ctx context.Context, log exec.PipeLogger, snap *model.Snapshot, dst Endpoint, dstDataset model.DatasetName, opts SendOpts) error
}

// HostRef reports the host this client runs against, satisfying Endpoint.
func (c *Client) HostRef() model.HostRef {
	return c.Host
}

func (c *Client) run(ctx context.Context, argv ...string) ([]string, error) {
	return exec.Run(ctx, c.Host, argv)
}

// Exists reports whether the dataset exists on this host.
func (c *Client) Exists(ctx context.Context, set model.DatasetName) (bool, error) {
	_, err := c.run(ctx, "zfs", "list", "-H", set.Path())
	if err == nil {
		return true, nil
	}
	var cf *exec.CommandFailure
	if asCommandFailure(err, &cf) && strings.Contains(cf.Stderr, "dataset does not exist") {
		return false, nil
	}
	return false, err
}

// CreateParents creates dirname(set) with intermediate-parent semantics,
// so a subsequent receive into set has somewhere to land.
func (c *Client) CreateParents(ctx context.Context, set model.DatasetName) error {
	parent := set.Dirname()
	if parent == "" {
		return nil
	}
	_, err := c.run(ctx, "zfs", "create", "-p", parent.Path())
	return err
}

// ListDescendants returns set followed by all of its strict descendants,
// in the filesystem tool's own listing order.
func (c *Client) ListDescendants(ctx context.Context, set model.DatasetName) ([]model.DatasetName, error) {
	rows, err := c.run(ctx, "zfs", "list", "-H", "-t", "filesystem", "-o", "name", "-r", set.Path())
	if err != nil {
		return nil, fmt.Errorf("listing descendants of %s: %w", set, err)
	}
	out := make([]model.DatasetName, len(rows))
	for i, row := range rows {
		out[i] = model.DatasetName(row)
	}
	return out, nil
}

// ListSnapshots returns the snapshots of set whose full identifier
// (dataset@name) contains prefixFilter as a substring, or all of them if
// prefixFilter is empty. The result is sorted ascending by creation time.
func (c *Client) ListSnapshots(ctx context.Context, set model.DatasetName, prefixFilter string) (*inventory.Snapshots, error) {
	rows, err := c.run(ctx, "zfs", "list", "-H", "-p", "-t", "snapshot", "-o", "name,creation", "-s", "creation", "-d", "1", set.Path())
	if err != nil {
		var cf *exec.CommandFailure
		if asCommandFailure(err, &cf) && strings.Contains(cf.Stderr, "dataset does not exist") {
			return inventory.New(), nil
		}
		return nil, fmt.Errorf("listing snapshots of %s: %w", set, err)
	}

	return parseSnapshotRows(set, rows, prefixFilter)
}

// parseSnapshotRows turns `zfs list -H -p -o name,creation` output lines
// into an ordered Snapshots set, keeping only rows whose full identifier
// contains prefixFilter (or all rows, when prefixFilter is empty).
func parseSnapshotRows(set model.DatasetName, rows []string, prefixFilter string) (*inventory.Snapshots, error) {
	snaps := inventory.New()
	for _, row := range rows {
		cols := strings.SplitN(row, "\t", 2)
		if len(cols) != 2 {
			continue
		}
		full, createdAtStr := cols[0], cols[1]
		if prefixFilter != "" && !strings.Contains(full, prefixFilter) {
			continue
		}
		name := full
		if i := strings.IndexByte(full, '@'); i >= 0 {
			name = full[i+1:]
		}
		createdAt, err := strconv.ParseInt(createdAtStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing creation time %q for %s: %w", createdAtStr, full, err)
		}
		snaps.Add(&model.Snapshot{Dataset: set, Name: name, CreatedAt: createdAt})
	}
	return snaps, nil
}

func asCommandFailure(err error, out **exec.CommandFailure) bool {
	cf, ok := err.(*exec.CommandFailure)
	if ok {
		*out = cf
	}
	return ok
}
