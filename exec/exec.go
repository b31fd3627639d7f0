// Package exec runs commands locally or over SSH, and streams one
// command's stdout into another's stdin across host boundaries. It never
// retries and never interprets the commands it runs.
package exec

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"xync.dev/xync/model"
)

// CommandFailure is returned when a command exits nonzero. It carries
// enough context for callers to log a useful diagnostic without needing
// to re-run the command.
type CommandFailure struct {
	Argv     []string
	ExitCode int
	Stderr   string
}

func (e *CommandFailure) Error() string {
	return fmt.Sprintf("command failed (exit %d): %s: %s",
		e.ExitCode, strings.Join(e.Argv, " "), strings.TrimSpace(e.Stderr))
}

// Spec names a command and the host it should run on.
type Spec struct {
	Host model.HostRef
	Argv []string
}

func (s Spec) String() string {
	if s.Host.IsLocal() {
		return strings.Join(s.Argv, " ")
	}
	return fmt.Sprintf("%s@%s", strings.Join(s.Argv, " "), s.Host)
}

// Run executes argv, locally if host is empty, or over SSH to host
// otherwise. It returns stdout split into lines with trailing blank lines
// trimmed.
func Run(ctx context.Context, host model.HostRef, argv []string) ([]string, error) {
	var cmd *exec.Cmd
	if host.IsLocal() {
		cmd = exec.CommandContext(ctx, argv[0], argv[1:]...)
	} else {
		cmd = exec.CommandContext(ctx, "ssh", string(host), QuoteRemote(argv))
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return nil, &CommandFailure{Argv: argv, ExitCode: exitCode, Stderr: stderr.String()}
	}

	return splitLines(stdout.String()), nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// QuoteRemote composes argv into a single shell string suitable for
// passing to `ssh host <string>`. Local invocations never go through this
// path: argv is passed directly to exec.Command and needs no quoting.
func QuoteRemote(argv []string) string {
	parts := make([]string, len(argv))
	for i, arg := range argv {
		parts[i] = quoteWord(arg)
	}
	return strings.Join(parts, " ")
}

func quoteWord(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"$`\\!*?[](){}|&;<>~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
