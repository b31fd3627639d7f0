package zfs

import (
	"context"
	"fmt"

	"xync.dev/xync/exec"
	"xync.dev/xync/model"
)

// SendOpts controls how a snapshot is transferred. IncrOpt selects between
// "-i" (incremental) and "-I" (incremental-with-intermediates) when Base is
// set; it's ignored for a full send. SendFlags/RecvFlags are appended
// verbatim to the send/recv argv, sourced from ZFS_SEND_OPTS/ZFS_RECV_OPTS.
type SendOpts struct {
	Base      *model.Snapshot // nil means a full send
	IncrOpt   string          // "-i" or "-I"
	SendFlags []string
	RecvFlags []string
}

// CreateSnapshot creates dataset@name. On failure it makes a best-effort
// attempt to destroy any partial snapshot before returning the original
// error, per the filesystem tool's occasional habit of leaving a snapshot
// half-created after an interrupted call.
func (c *Client) CreateSnapshot(ctx context.Context, snap *model.Snapshot) error {
	_, err := c.run(ctx, "zfs", "snapshot", snap.Full())
	if err != nil {
		c.DestroySnapshot(ctx, snap)
		return fmt.Errorf("creating snapshot %s: %w", snap, err)
	}
	return nil
}

// DestroySnapshot destroys a snapshot on a best-effort basis. Failures are
// swallowed: callers use this for cleanup paths where surfacing a second
// error would only obscure the first.
func (c *Client) DestroySnapshot(ctx context.Context, snap *model.Snapshot) {
	c.run(ctx, "zfs", "destroy", snap.Full())
}

// Send transfers snap from this client to dst, running the two zfs
// processes as a Pipe: `zfs send [opts] snap` on this host, piped into
// `zfs receive [opts] dstDataset` on dst.
func (c *Client) Send(ctx context.Context, log exec.PipeLogger, snap *model.Snapshot, dst Endpoint, dstDataset model.DatasetName, opts SendOpts) error {
	sendArgv := []string{"zfs", "send"}
	sendArgv = append(sendArgv, opts.SendFlags...)
	if opts.Base != nil {
		sendArgv = append(sendArgv, opts.IncrOpt, opts.Base.Full())
	}
	sendArgv = append(sendArgv, snap.Full())

	recvArgv := []string{"zfs", "receive"}
	recvArgv = append(recvArgv, opts.RecvFlags...)
	recvArgv = append(recvArgv, dstDataset.Path())

	left := exec.Spec{Host: c.Host, Argv: sendArgv}
	right := exec.Spec{Host: dst.HostRef(), Argv: recvArgv}

	if err := exec.Pipe(ctx, log, left, right); err != nil {
		return fmt.Errorf("sending %s to %s@%s: %w", snap, dstDataset, dst.HostRef(), err)
	}
	return nil
}
