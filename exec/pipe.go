package exec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const throughputLogInterval = 60 * time.Second

// PipeLogger receives periodic throughput updates while a Pipe runs. It's
// satisfied by logging.Logger; kept as a narrow interface here so this
// package doesn't need to import logging.
type PipeLogger interface {
	Printf(string, ...any)
}

// Pipe runs left and right concurrently, with left's stdout feeding
// right's stdin. It succeeds iff both sides exit zero. If either side
// fails, the other is killed rather than left to hang on a half-open
// pipe. While the pipe runs, throughput is reported to log every minute.
func Pipe(ctx context.Context, log PipeLogger, left, right Spec) error {
	log.Printf("send: %s | %s", left, right)

	leftCmd := command(ctx, left)
	rightCmd := command(ctx, right)

	throughput := newThroughputStat()

	pr, pw := io.Pipe()
	leftCmd.Stdout = io.MultiWriter(pw, throughput)
	rightCmd.Stdin = pr

	var rightOutput bytes.Buffer
	rightCmd.Stdout = &rightOutput
	rightCmd.Stderr = &rightOutput

	var leftStderr bytes.Buffer
	leftCmd.Stderr = &leftStderr

	if err := rightCmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("starting receiver %s: %w", right, err)
	}
	if err := leftCmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		rightCmd.Process.Kill()
		rightCmd.Wait()
		return fmt.Errorf("starting sender %s: %w", left, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	// The ticker runs outside the group: gctx is canceled when Wait returns,
	// which stops it, whereas a group member waiting on gctx would keep
	// Wait from ever returning once both sides had exited cleanly.
	go func() {
		ticker := time.NewTicker(throughputLogInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return
			case <-ticker.C:
				log.Printf("throughput: %s", throughput.Summary())
			}
		}
	}()

	g.Go(func() error {
		err := leftCmd.Wait()
		pw.Close()
		if err != nil {
			return &sideError{side: "sender", spec: left, err: err, stderr: leftStderr.String()}
		}
		return nil
	})

	g.Go(func() error {
		err := rightCmd.Wait()
		if err != nil {
			pr.Close()
			return &sideError{side: "receiver", spec: right, err: err, stderr: rightOutput.String()}
		}
		return nil
	})

	err := g.Wait()
	leftCmd.Process.Kill()
	rightCmd.Process.Kill()

	log.Printf("throughput: %s (final)", throughput.Summary())

	return err
}

func command(ctx context.Context, s Spec) *exec.Cmd {
	if s.Host.IsLocal() {
		return exec.CommandContext(ctx, s.Argv[0], s.Argv[1:]...)
	}
	return exec.CommandContext(ctx, "ssh", string(s.Host), QuoteRemote(s.Argv))
}

type sideError struct {
	side   string
	spec   Spec
	err    error
	stderr string
}

func (e *sideError) Error() string {
	msg := fmt.Sprintf("%s (%s) failed: %s", e.side, e.spec, e.err)
	if s := strings.TrimSpace(e.stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *sideError) Unwrap() error { return e.err }

// IsSenderFailure reports whether err originated from the sending side of
// a Pipe call, as opposed to the receiver.
func IsSenderFailure(err error) bool {
	se, ok := err.(*sideError)
	return ok && se.side == "sender"
}
