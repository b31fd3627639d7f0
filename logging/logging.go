// Package logging provides the dataset- and pair-scoped Logger the
// replication engine and driver write through, backed by zap and tee'd to
// stderr, a rotating log file, and (optionally) syslog.
package logging

import (
	"fmt"
	"log/syslog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes one line per event, labeled by scope (a dataset name, a
// pair spec, or "global"), to every configured sink. It satisfies
// exec.PipeLogger's Printf-only expectations.
type Logger struct {
	scope string
	sugar *zap.SugaredLogger
}

// Options configures the sinks a Logger set writes to. LogFile is the
// resolved (macro-expanded) absolute path to the rotating log file;
// an empty LogFile disables file logging entirely.
type Options struct {
	LogFile        string
	Syslog         bool
	SyslogFacility string
}

// syslogPriority maps the handful of facility names spec.md's
// SYSLOG_FACILITY default table permits onto syscall priority values.
// Unrecognized facilities fall back to LOG_USER, matching the shell
// original's lenient handling of a typo'd facility name.
var syslogPriority = map[string]syslog.Priority{
	"user":   syslog.LOG_USER,
	"daemon": syslog.LOG_DAEMON,
	"local0": syslog.LOG_LOCAL0,
	"local1": syslog.LOG_LOCAL1,
	"local2": syslog.LOG_LOCAL2,
	"local3": syslog.LOG_LOCAL3,
	"local4": syslog.LOG_LOCAL4,
	"local5": syslog.LOG_LOCAL5,
	"local6": syslog.LOG_LOCAL6,
	"local7": syslog.LOG_LOCAL7,
}

// Set builds Loggers for a single run, sharing one underlying zap core
// (and hence one set of open sinks) across every scope handed to Scope.
type Set struct {
	core zapcore.Core
}

// NewSet opens the sinks named by opts. The caller must call Close when
// the run finishes. Close syncs the shared core only: the log file and the
// syslog connection are not closed and stay open until the process exits.
func NewSet(opts Options) (*Set, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	var cores []zapcore.Core
	cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), zapcore.InfoLevel))

	if opts.LogFile != "" {
		fileSink := &lumberjack.Logger{
			Filename: opts.LogFile,
			MaxSize:  100,
			MaxAge:   0, // retention is managed by Rotate, not lumberjack's own age/backup pruning
			Compress: false,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(fileSink), zapcore.InfoLevel))
	}

	if opts.Syslog {
		priority, ok := syslogPriority[opts.SyslogFacility]
		if !ok {
			priority = syslog.LOG_USER
		}
		w, err := syslog.New(priority|syslog.LOG_INFO, "xync")
		if err != nil {
			return nil, fmt.Errorf("connecting to syslog: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.InfoLevel))
	}

	return &Set{core: zapcore.NewTee(cores...)}, nil
}

// Scope returns a Logger that prefixes every line with label.
func (s *Set) Scope(label string) *Logger {
	return &Logger{scope: label, sugar: zap.New(s.core).Sugar()}
}

// Close flushes every sink. Sync errors on stderr/syslog writers that
// don't support fsync are expected and ignored, matching zap's own
// documented advice for console/syslog sinks.
func (s *Set) Close() error {
	_ = zap.New(s.core).Sync()
	return nil
}

func (l *Logger) Printf(format string, args ...any) {
	l.sugar.Infof("["+l.scope+"] "+format, args...)
}

// Warnf logs at warning level, used for skip conditions the summary
// counts against WARNING status.
func (l *Logger) Warnf(format string, args ...any) {
	l.sugar.Warnf("["+l.scope+"] "+format, args...)
}

// Errorf logs at error level, used for fatal conditions.
func (l *Logger) Errorf(format string, args ...any) {
	l.sugar.Errorf("["+l.scope+"] "+format, args...)
}
