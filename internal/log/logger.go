// Package log is the process-wide structured logger used by every job.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Verbosity levels, one per -v.
const (
	LevelQuiet = iota // warnings and errors only
	LevelInfo         // -v: job progress, counts
	LevelDebug        // -vv: API calls, pagination, plans
	LevelTrace        // -vvv: response bodies
)

const slogLevelTrace = slog.Level(-8)

// slogLevels maps a verbosity level to the minimum slog level emitted.
var slogLevels = [...]slog.Level{
	LevelQuiet: slog.LevelWarn,
	LevelInfo:  slog.LevelInfo,
	LevelDebug: slog.LevelDebug,
	LevelTrace: slogLevelTrace,
}

var (
	verbosity  int
	logger     *slog.Logger
	output     io.Writer
	structured bool
	inProgress bool
)

// Initialize sets up the global text logger with the specified verbosity level.
func Initialize(level int, w io.Writer) {
	setup(level, w, false)
}

// InitializeJSON sets up the global logger to emit one JSON object per line,
// for Lambda where log lines are ingested as events. Progress lines are
// suppressed in this mode.
func InitializeJSON(level int, w io.Writer) {
	setup(level, w, true)
}

func setup(level int, w io.Writer, jsonLines bool) {
	level = min(max(level, LevelQuiet), LevelTrace)
	verbosity = level
	output = w
	structured = jsonLines
	inProgress = false

	opts := &slog.HandlerOptions{
		Level:       slogLevels[level],
		ReplaceAttr: renameTrace,
	}
	if jsonLines {
		logger = slog.New(slog.NewJSONHandler(w, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(w, opts))
	}
}

// renameTrace prints the custom trace level as TRACE rather than DEBUG-4.
func renameTrace(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == slogLevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

func logAt(atLeast int, level slog.Level, msg string, args []any) {
	if verbosity < atLeast {
		return
	}
	clearProgress()
	logger.Log(context.Background(), level, msg, args...)
}

// Info logs at info level (-v).
func Info(msg string, args ...any) { logAt(LevelInfo, slog.LevelInfo, msg, args) }

// Debug logs at debug level (-vv).
func Debug(msg string, args ...any) { logAt(LevelDebug, slog.LevelDebug, msg, args) }

// Trace logs at trace level (-vvv).
func Trace(msg string, args ...any) { logAt(LevelTrace, slogLevelTrace, msg, args) }

// Warn logs at warn level; always visible.
func Warn(msg string, args ...any) { logAt(LevelQuiet, slog.LevelWarn, msg, args) }

// Error logs at error level; always visible.
func Error(msg string, args ...any) { logAt(LevelQuiet, slog.LevelError, msg, args) }

// Progress rewrites the current terminal line with a progress message.
// Only shown at info level or higher, and never in JSON mode.
func Progress(format string, args ...any) {
	if verbosity < LevelInfo || structured {
		return
	}
	inProgress = true
	_, _ = fmt.Fprintf(output, "\r"+format, args...)
}

// ProgressDone completes a progress line with "done".
func ProgressDone() {
	if inProgress {
		_, _ = fmt.Fprintln(output, " done")
		inProgress = false
	}
}

// clearProgress ends a pending progress line so a log record starts on its own line.
func clearProgress() {
	if inProgress {
		_, _ = fmt.Fprintln(output)
		inProgress = false
	}
}

// IsDebug reports whether debug logging is enabled.
func IsDebug() bool {
	return verbosity >= LevelDebug
}

// IsTrace reports whether trace logging is enabled.
func IsTrace() bool {
	return verbosity >= LevelTrace
}

// Verbosity returns the current verbosity level.
func Verbosity() int {
	return verbosity
}

func init() {
	Initialize(LevelQuiet, os.Stderr)
}
