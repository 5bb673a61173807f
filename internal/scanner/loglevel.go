package scanner

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// LogLevel controls how chatty progress reporting and logging are
type LogLevel int

const (
	LogLevelQuiet LogLevel = iota
	LogLevelNormal
	LogLevelVerbose
)

var defaultLogLevel atomic.Int32

func init() {
	defaultLogLevel.Store(int32(LogLevelNormal))
}

// SetDefaultLogLevel sets the level new progress reporters start with
// and applies the matching zerolog global level.
func SetDefaultLogLevel(level LogLevel) {
	defaultLogLevel.Store(int32(level))
	zerolog.SetGlobalLevel(level.ZerologLevel())
}

// GetDefaultLogLevel returns the process-wide default level
func GetDefaultLogLevel() LogLevel {
	return LogLevel(defaultLogLevel.Load())
}

// ParseLogLevel accepts quiet, normal or verbose (plus a few aliases)
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet", "error", "warn":
		return LogLevelQuiet, nil
	case "", "normal", "info":
		return LogLevelNormal, nil
	case "verbose", "debug":
		return LogLevelVerbose, nil
	}
	return LogLevelNormal, fmt.Errorf("invalid log level: %s (must be quiet, normal, or verbose)", s)
}

func (l LogLevel) String() string {
	switch l {
	case LogLevelQuiet:
		return "quiet"
	case LogLevelVerbose:
		return "verbose"
	default:
		return "normal"
	}
}

// ZerologLevel maps the level onto zerolog's scale
func (l LogLevel) ZerologLevel() zerolog.Level {
	switch l {
	case LogLevelQuiet:
		return zerolog.WarnLevel
	case LogLevelVerbose:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// allows reports whether a message of the given severity passes the level
func (l LogLevel) allows(severity string) bool {
	switch severity {
	case "error", "critical":
		return true
	case "warn":
		return l >= LogLevelNormal
	case "info":
		return l >= LogLevelNormal
	default:
		return l >= LogLevelVerbose
	}
}
