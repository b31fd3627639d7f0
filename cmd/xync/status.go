package main

import (
	"bufio"
	"fmt"
	"os"

	"xync.dev/xync/config"
	"xync.dev/xync/logging"
)

// printStatus implements -s/--status: read the config just far enough to
// find LOG_BASE, locate the most recently modified autorep-* log file,
// and print its last line.
func printStatus(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fatal(1, "loading config: %w", err)
	}

	latest, err := logging.LatestLogFile(cfg.LogBase)
	if err != nil {
		return fatal(1, "finding latest log file: %w", err)
	}
	if latest == "" {
		return fatal(1, "no log files found under %s", cfg.LogBase)
	}

	line, err := lastLine(latest)
	if err != nil {
		return fatal(1, "reading %s: %w", latest, err)
	}
	fmt.Println(line)
	return nil
}

func lastLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		last = scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return last, nil
}
