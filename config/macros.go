package config

import (
	"strconv"
	"strings"
	"time"
)

// ExpandMacros substitutes %DOW% %DOM% %MOY% %CYR% %NOW% %TAG% in s using
// now as the reference time. %TAG% is replaced by the tag argument as
// given; callers expand Tag itself first, then
// LogFile, each with two passes, so a %TAG% placeholder inside LOG_FILE
// can reference an already-expanded Tag.
func ExpandMacros(s string, now time.Time, tag string) string {
	r := strings.NewReplacer(
		"%DOW%", now.Format("Mon"),
		"%DOM%", strconv.Itoa(now.Day()),
		"%MOY%", strconv.Itoa(int(now.Month())),
		"%CYR%", strconv.Itoa(now.Year()),
		"%NOW%", strconv.FormatInt(now.Unix(), 10),
		"%TAG%", tag,
	)
	return r.Replace(s)
}

// ResolveTag expands cfg.Tag against now, applying the substitution twice.
// The first pass substitutes the empty string for %TAG%, so a %TAG% token
// within Tag itself expands to nothing rather than surviving verbatim.
func (cfg *Config) ResolveTag(now time.Time) string {
	tag := ExpandMacros(cfg.Tag, now, "")
	tag = ExpandMacros(tag, now, tag)
	return tag
}

// ResolveLogFile expands cfg.LogFile against now and the already-resolved
// tag, applying the substitution twice for the same reason as ResolveTag.
func (cfg *Config) ResolveLogFile(now time.Time, tag string) string {
	logFile := ExpandMacros(cfg.LogFile, now, tag)
	logFile = ExpandMacros(logFile, now, tag)
	return logFile
}
