package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// newSignalContext returns a context canceled the moment SIGINT, SIGTERM,
// or SIGQUIT arrives, along with a stop func that must be deferred to
// release the underlying signal.Notify registration.
func newSignalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigs:
			cancel(fmt.Errorf("%w: got signal %s", errSignaled, sig))
		case <-done:
		}
	}()

	return ctx, func() {
		close(done)
		signal.Stop(sigs)
		cancel(nil)
	}
}

var errSignaled = fmt.Errorf("operation exited unexpectedly")
