package logger

import (
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidLevel is returned when a level name cannot be parsed.
var ErrInvalidLevel = errors.New("invalid log level")

// Level represents the log level.
type Level int

const (
	// LevelDebug logs everything, including per-candidate discovery details.
	LevelDebug Level = iota

	// LevelInfo logs lifecycle events (discovery summary, load, unload).
	LevelInfo

	// LevelError logs failures only.
	LevelError
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel converts a case-insensitive level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.Wrapf(ErrInvalidLevel, "%q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(l.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}

// ToSlogLevel converts Level to slog.Level.
func (l Level) ToSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
