package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Rotate enforces LOG_KEEP: it lists files matching "autorep-*" directly
// under base, and removes all but the keep most recently modified ones.
// It's a directory scan rather than lumberjack's own MaxBackups because
// LOG_KEEP prunes every run's log file in base, not just copies of one
// run's own rotated file.
func Rotate(base string, keep int) error {
	if base == "" || keep <= 0 {
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(base, "autorep-*"))
	if err != nil {
		return fmt.Errorf("listing log files in %s: %w", base, err)
	}
	if len(matches) <= keep {
		return nil
	}

	type entry struct {
		path    string
		modTime int64
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		entries = append(entries, entry{path: m, modTime: info.ModTime().Unix()})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].modTime > entries[j].modTime })

	for _, e := range entries[keep:] {
		if err := os.Remove(e.path); err != nil {
			return fmt.Errorf("removing old log file %s: %w", e.path, err)
		}
	}
	return nil
}

// LatestLogFile returns the most recently modified "autorep-*" file under
// base, for the -s/--status short-circuit. It returns "" if none exist.
func LatestLogFile(base string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(base, "autorep-*"))
	if err != nil {
		return "", fmt.Errorf("listing log files in %s: %w", base, err)
	}
	var (
		latestPath string
		latestMod  int64
	)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if mt := info.ModTime().Unix(); mt > latestMod || latestPath == "" {
			latestMod = mt
			latestPath = m
		}
	}
	return latestPath, nil
}
