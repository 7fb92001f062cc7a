// Package logging provides the named, leveled file sinks used by swarm
// daemons and bridges them into log/slog.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Priority orders log messages from most (Fatal) to least (Trace) severe.
type Priority int

// Priority values. Lower is more severe.
const (
	PrioFatal Priority = iota + 1
	PrioCritical
	PrioError
	PrioWarning
	PrioNotice
	PrioInformation
	PrioDebug
	PrioTrace
)

var priorityNames = [...]string{
	PrioFatal:       "Fatal",
	PrioCritical:    "Critical",
	PrioError:       "Error",
	PrioWarning:     "Warning",
	PrioNotice:      "Notice",
	PrioInformation: "Information",
	PrioDebug:       "Debug",
	PrioTrace:       "Trace",
}

func (p Priority) String() string {
	if p >= PrioFatal && p <= PrioTrace {
		return priorityNames[p]
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// ParsePriority parses a priority name (case-insensitive, with the common
// abbreviations) or its number.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fatal":
		return PrioFatal, nil
	case "critical", "crit":
		return PrioCritical, nil
	case "error", "err":
		return PrioError, nil
	case "warning", "warn":
		return PrioWarning, nil
	case "notice":
		return PrioNotice, nil
	case "information", "info":
		return PrioInformation, nil
	case "debug":
		return PrioDebug, nil
	case "trace":
		return PrioTrace, nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n >= int(PrioFatal) && n <= int(PrioTrace) {
		return Priority(n), nil
	}
	return 0, fmt.Errorf("unknown log priority %q", s)
}

// Level is an alias for slog.Level for convenience.
type Level = slog.Level

// slog levels for the priorities slog has no name for.
const (
	LevelTrace    Level = -8
	LevelDebug          = slog.LevelDebug
	LevelInfo           = slog.LevelInfo
	LevelNotice   Level = 2
	LevelWarn           = slog.LevelWarn
	LevelError          = slog.LevelError
	LevelCritical Level = 10
	LevelFatal    Level = 12
)

// ToLevel maps a priority to its slog level.
func ToLevel(p Priority) Level {
	switch p {
	case PrioFatal:
		return LevelFatal
	case PrioCritical:
		return LevelCritical
	case PrioError:
		return LevelError
	case PrioWarning:
		return LevelWarn
	case PrioNotice:
		return LevelNotice
	case PrioInformation:
		return LevelInfo
	case PrioDebug:
		return LevelDebug
	default:
		return LevelTrace
	}
}

// FromLevel maps an slog level to the nearest priority at or above it.
func FromLevel(l Level) Priority {
	switch {
	case l >= LevelFatal:
		return PrioFatal
	case l >= LevelCritical:
		return PrioCritical
	case l >= LevelError:
		return PrioError
	case l >= LevelWarn:
		return PrioWarning
	case l >= LevelNotice:
		return PrioNotice
	case l >= LevelInfo:
		return PrioInformation
	case l >= LevelDebug:
		return PrioDebug
	default:
		return PrioTrace
	}
}

// Setup installs sink as the destination of the default slog logger.
func Setup(sink *Sink) {
	slog.SetDefault(slog.New(sink.Handler()))
}

// SetupText configures the default slog logger to write text records at
// level to w. Used by the control commands, which never open a sink.
func SetupText(level Level, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(w, opts)
	slog.SetDefault(slog.New(handler))
}

// Package-level functions logging through the default sink.

// Fatal logs at Fatal priority.
func Fatal(msg string, args ...any) { Default().Log(PrioFatal, msg, args...) }

// Critical logs at Critical priority.
func Critical(msg string, args ...any) { Default().Log(PrioCritical, msg, args...) }

// Error logs at Error priority.
func Error(msg string, args ...any) { Default().Log(PrioError, msg, args...) }

// Warning logs at Warning priority.
func Warning(msg string, args ...any) { Default().Log(PrioWarning, msg, args...) }

// Notice logs at Notice priority.
func Notice(msg string, args ...any) { Default().Log(PrioNotice, msg, args...) }

// Information logs at Information priority.
func Information(msg string, args ...any) { Default().Log(PrioInformation, msg, args...) }

// Debug logs at Debug priority.
func Debug(msg string, args ...any) { Default().Log(PrioDebug, msg, args...) }

// Trace logs at Trace priority.
func Trace(msg string, args ...any) { Default().Log(PrioTrace, msg, args...) }
