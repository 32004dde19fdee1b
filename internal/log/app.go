package log

import (
	"os"
	"strings"
	"sync"
	"time"

	charm "github.com/charmbracelet/log"
)

var (
	appMu  sync.Mutex
	logger *charm.Logger
)

// InitApp configures the process-wide application logger.
func InitApp(appName string, logLevel string) *charm.Logger {
	appMu.Lock()
	defer appMu.Unlock()

	// stderr keeps stdout free for the MCP stdio transport.
	l := charm.New(os.Stderr)
	l.SetPrefix(appName)
	l.SetReportTimestamp(true)
	l.SetTimeFormat(time.DateTime)
	l.SetLevel(ParseLevel(logLevel))
	logger = l
	return l
}

// ParseLevel maps a config string to a charm level, defaulting to info.
func ParseLevel(s string) charm.Level {
	switch strings.ToLower(s) {
	case "debug":
		return charm.DebugLevel
	case "warn":
		return charm.WarnLevel
	case "error":
		return charm.ErrorLevel
	default:
		return charm.InfoLevel
	}
}

func appLogger() *charm.Logger {
	appMu.Lock()
	defer appMu.Unlock()
	if logger == nil {
		logger = charm.New(os.Stderr)
		logger.SetLevel(charm.InfoLevel)
	}
	return logger
}

func Fatal(format string, args ...any) {
	if len(args) == 0 {
		appLogger().Fatal(format)
	} else {
		appLogger().Fatalf(format, args...)
	}
}

func Info(format string, args ...any) {
	if len(args) == 0 {
		appLogger().Info(format)
	} else {
		appLogger().Infof(format, args...)
	}
}

func Warn(format string, args ...any) {
	if len(args) == 0 {
		appLogger().Warn(format)
	} else {
		appLogger().Warnf(format, args...)
	}
}

func Error(format string, args ...any) {
	if len(args) == 0 {
		appLogger().Error(format)
	} else {
		appLogger().Errorf(format, args...)
	}
}

func Debug(format string, args ...any) {
	if len(args) == 0 {
		appLogger().Debug(format)
	} else {
		appLogger().Debugf(format, args...)
	}
}

// SetLevel changes the level of the application logger.
func SetLevel(level string) {
	appLogger().SetLevel(ParseLevel(level))
}
