// Package logger provides the shared engine logger. All engine packages log
// through the helpers here so output formatting and level filtering stay
// consistent across subsystems.
package logger

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	once      sync.Once
	singleton *log.Logger
)

func get() *log.Logger {
	once.Do(func() {
		singleton = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "byd",
		})
		singleton.SetLevel(log.InfoLevel)
	})
	return singleton
}

// SetLevel sets the minimum level emitted by the engine logger. Accepted
// values are "debug", "info", "warn", "error"; unknown values leave the
// level unchanged.
func SetLevel(level string) {
	if lv, err := log.ParseLevel(level); err == nil {
		get().SetLevel(lv)
	}
}

// Debug logs a message with key-value pairs at debug level.
func Debug(msg string, keyvals ...any) {
	get().Debug(msg, keyvals...)
}

// Info logs a message with key-value pairs at info level.
func Info(msg string, keyvals ...any) {
	get().Info(msg, keyvals...)
}

// Warn logs a message with key-value pairs at warn level.
func Warn(msg string, keyvals ...any) {
	get().Warn(msg, keyvals...)
}

// Error logs a message with key-value pairs at error level.
func Error(msg string, keyvals ...any) {
	get().Error(msg, keyvals...)
}

// Fatal logs a message with key-value pairs at error level and exits the
// process.
func Fatal(msg string, keyvals ...any) {
	get().Fatal(msg, keyvals...)
}
