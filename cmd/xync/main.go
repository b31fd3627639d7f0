// Command xync replicates ZFS-style datasets between hosts using
// snapshots and an external send/receive transport, driven entirely by a
// config file and environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "xync:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a fatal run() error to the process exit code spec.md
// assigns it: 128 for lock/signal/precondition failures, 1 otherwise.
func exitCodeFor(err error) int {
	var fe *fatalError
	if errors.As(err, &fe) {
		return fe.code
	}
	return 1
}

// fatalError carries the exit code a fatal condition should produce,
// distinguishing lock/signal failures (128) from ordinary configuration
// errors (1) without every call site needing to know the mapping.
type fatalError struct {
	code int
	err  error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

func fatal(code int, format string, args ...any) error {
	return &fatalError{code: code, err: fmt.Errorf(format, args...)}
}

func run() error {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	statusFlag := fs.Bool("status", false, "print the last line of the most recent log file and exit")
	fs.BoolVar(statusFlag, "s", false, "shorthand for --status")
	configFlag := fs.String("config", "", "path to configuration file")
	fs.StringVar(configFlag, "c", "", "shorthand for --config")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(os.Stdout)
			fs.Usage()
			return err
		}
		return fatal(1, "%w", err)
	}

	configPath, err := resolveConfigPath(*configFlag, fs.Args())
	if err != nil {
		return fatal(1, "%w", err)
	}

	if *statusFlag {
		return printStatus(configPath)
	}

	ctx, stop := newSignalContext()
	defer stop()

	return runReplication(ctx, configPath)
}

// resolveConfigPath implements spec.md §6's precedence: -c/--config, else
// a readable positional argument, else <scriptDir>/config.sh.
func resolveConfigPath(explicit string, positional []string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if len(positional) > 0 {
		if f, err := os.Open(positional[0]); err == nil {
			info, statErr := f.Stat()
			f.Close()
			if statErr == nil && info.Mode().IsRegular() {
				return positional[0], nil
			}
		}
	}

	exe, err := os.Executable()
	if err == nil {
		fallback := filepath.Join(filepath.Dir(exe), "config.sh")
		if _, err := os.Stat(fallback); err == nil {
			return fallback, nil
		}
	}

	return "", fmt.Errorf("no configuration file given, and no config.sh found alongside the binary")
}
