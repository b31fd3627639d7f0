// Package config loads the KEY=VALUE configuration file (with an optional
// trailing TOML defaults fragment), applies the environment-variable
// override, fills in spec defaults, and expands the %TOKEN% macros used in
// TAG and LOG_FILE.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the fully resolved configuration for one run.
type Config struct {
	ReplicateSets       string
	AllowRootDatasets   bool
	AllowReconciliation bool
	RecurseChildren     bool
	SnapPattern         string
	SnapKeep            int
	Syslog              bool
	SyslogFacility      string
	Tag                 string
	LogFile             string
	LogBase             string
	LogKeep             int
	HostCheck           string
	ZFSIncrOpt          string
	ZFSSendOpts         []string
	ZFSRecvOpts         []string

	// Defaults holds the optional per-pair policy overrides supplied in a
	// trailing TOML fragment (see Defaults). It's empty when the config
	// file carries no such fragment.
	Defaults Defaults
}

// Defaults expresses the optional TOML defaults fragment that may follow
// a `+++` marker line in the config file. Its tables take the form
// `[pair."<spec>"]` at the top level of the fragment, letting an operator
// override RECURSE_CHILDREN/SNAP_KEEP on a per-pair-spec basis without
// inventing a second config file format.
type Defaults struct {
	PerPair map[string]PairDefaults `toml:"pair"`
}

type PairDefaults struct {
	RecurseChildren *bool `toml:"recurse_children"`
	SnapKeep        *int  `toml:"snap_keep"`
}

// tomlFragmentMarker separates the KEY=VALUE body from an optional
// trailing TOML fragment, the same "front matter"-style split used
// nowhere else in this corpus but modeled directly on how the teacher's
// own config.go treats its file as wholly one format: here the file is
// two formats, cleanly divided by a line containing only this marker.
const tomlFragmentMarker = "+++"

var defaults = map[string]string{
	"ALLOW_ROOT_DATASETS":   "0",
	"ALLOW_RECONCILIATION":  "0",
	"RECURSE_CHILDREN":      "0",
	"SNAP_PATTERN":          "@autorep-",
	"SNAP_KEEP":             "2",
	"SYSLOG":                "1",
	"SYSLOG_FACILITY":       "user",
	"TAG":                   "%MOY%%DOM%%CYR%_%NOW%",
	"HOST_CHECK":            "ping -c1 -q -W2 %HOST%",
	"ZFS_INCR_OPT":          "-I",
	"ZFS_SEND_OPTS":         "-p",
	"ZFS_RECV_OPTS":         "-F -v",
}

// Load reads path as a KEY=VALUE file (godotenv syntax), splits off an
// optional trailing TOML fragment, resolves every key against the process
// environment (which takes precedence over the file) and the defaults
// table, and returns the assembled Config. It does not expand macros;
// call ExpandMacros on the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	body, fragment := splitFragment(string(raw))

	fileVals, err := godotenv.Unmarshal(body)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	get := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		if v, ok := fileVals[key]; ok {
			return v
		}
		return defaults[key]
	}

	cfg := &Config{
		ReplicateSets:       get("REPLICATE_SETS"),
		AllowRootDatasets:   isTruthy(get("ALLOW_ROOT_DATASETS")),
		AllowReconciliation: isTruthy(get("ALLOW_RECONCILIATION")),
		RecurseChildren:     isTruthy(get("RECURSE_CHILDREN")),
		SnapPattern:         get("SNAP_PATTERN"),
		Syslog:              isTruthy(get("SYSLOG")),
		SyslogFacility:      get("SYSLOG_FACILITY"),
		Tag:                 get("TAG"),
		LogFile:             get("LOG_FILE"),
		LogBase:             get("LOG_BASE"),
		HostCheck:           get("HOST_CHECK"),
		ZFSIncrOpt:          get("ZFS_INCR_OPT"),
		ZFSSendOpts:         strings.Fields(get("ZFS_SEND_OPTS")),
		ZFSRecvOpts:         strings.Fields(get("ZFS_RECV_OPTS")),
	}

	if cfg.ReplicateSets == "" {
		return nil, fmt.Errorf("REPLICATE_SETS is required")
	}

	cfg.SnapKeep, err = strconv.Atoi(get("SNAP_KEEP"))
	if err != nil {
		return nil, fmt.Errorf("parsing SNAP_KEEP %q: %w", get("SNAP_KEEP"), err)
	}
	if cfg.SnapKeep < 2 {
		return nil, fmt.Errorf("SNAP_KEEP must be >= 2, got %d", cfg.SnapKeep)
	}

	if v := get("LOG_KEEP"); v != "" {
		cfg.LogKeep, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing LOG_KEEP %q: %w", v, err)
		}
	}

	if fragment != "" {
		if _, err := toml.Decode(fragment, &cfg.Defaults); err != nil {
			return nil, fmt.Errorf("decoding TOML defaults fragment in %s: %w", path, err)
		}
	}

	return cfg, nil
}

func splitFragment(raw string) (body, fragment string) {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == tomlFragmentMarker {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return raw, ""
}

func isTruthy(v string) bool {
	v = strings.TrimSpace(v)
	return v == "1" || strings.EqualFold(v, "true")
}

// ForPair applies any `[pair."<spec>"]` override for the literal
// pair spec string, falling back to cfg's top-level RecurseChildren and
// SnapKeep when no override is present.
func (cfg *Config) ForPair(spec string) (recurseChildren bool, snapKeep int) {
	recurseChildren, snapKeep = cfg.RecurseChildren, cfg.SnapKeep
	override, ok := cfg.Defaults.PerPair[spec]
	if !ok {
		return recurseChildren, snapKeep
	}
	if override.RecurseChildren != nil {
		recurseChildren = *override.RecurseChildren
	}
	if override.SnapKeep != nil {
		snapKeep = *override.SnapKeep
	}
	return recurseChildren, snapKeep
}
