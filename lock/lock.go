// Package lock implements PID-based named exclusion locks under the
// system temp directory. It never steals a lock left behind by a dead
// process; a stale lock file requires operator intervention.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrHeld is returned by Acquire when the named lock is held by a live
// process.
var ErrHeld = errors.New("lock: held by a running process")

// ErrStale is returned by Acquire when the lock file exists but the PID it
// names is no longer running. The file is left in place; Acquire never
// removes another process's lock file.
var ErrStale = errors.New("lock: stale lock file, remove it manually")

// Lock is a held named lock. Release must be called on every exit path.
type Lock struct {
	path string
}

func path(name string) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("xync-%s.lock", name))
}

// Acquire takes the named lock, writing the current process's PID into its
// lock file. It fails with ErrHeld or ErrStale (wrapped with the path and,
// for ErrHeld, the owning PID) if the lock is already taken.
func Acquire(name string) (*Lock, error) {
	p := path(name)

	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("creating lock file %s: %w", p, err)
		}
		return nil, diagnoseExisting(p)
	}
	defer f.Close()

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		os.Remove(p)
		return nil, fmt.Errorf("writing pid to lock file %s: %w", p, err)
	}

	return &Lock{path: p}, nil
}

func diagnoseExisting(p string) error {
	raw, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("reading existing lock file %s: %w", p, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return fmt.Errorf("%w: %s (unreadable pid %q)", ErrStale, p, raw)
	}

	if processAlive(pid) {
		return fmt.Errorf("%w: %s (pid %d)", ErrHeld, p, pid)
	}
	return fmt.Errorf("%w: %s (pid %d no longer running)", ErrStale, p, pid)
}

// processAlive sends the null signal, which performs existence and
// permission checks without affecting the target process.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

// Release deletes the lock file. It's safe to call on a nil *Lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("releasing lock %s: %w", l.path, err)
	}
	return nil
}
