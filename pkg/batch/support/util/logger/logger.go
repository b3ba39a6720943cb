// Package logger provides leveled logging for the Fabric batch platform.
// It wraps the standard `log` package and filters messages by the globally
// configured level.
package logger

import (
	"fmt"
	"log"
	"strings"
)

// LogLevel represents the logging verbosity level.
type LogLevel int

const (
	// LevelDebug emits detailed diagnostic messages.
	LevelDebug LogLevel = iota
	// LevelInfo emits general informational messages.
	LevelInfo
	// LevelWarn emits messages about potential issues.
	LevelWarn
	// LevelError emits error messages.
	LevelError
	// LevelFatal emits fatal messages that terminate the process.
	LevelFatal
)

// logLevel is the current global level. Only messages at or above it are emitted.
var logLevel = LevelInfo

// SetLogLevel sets the global log level.
// Valid values are "DEBUG", "INFO", "WARN", "ERROR", "FATAL" (case-insensitive).
// An unknown value falls back to INFO and prints a warning.
func SetLogLevel(level string) {
	switch strings.ToUpper(level) {
	case "INFO":
		logLevel = LevelInfo
	case "WARN":
		logLevel = LevelWarn
	case "ERROR":
		logLevel = LevelError
	case "FATAL":
		logLevel = LevelFatal
	case "DEBUG":
		logLevel = LevelDebug
	default:
		fmt.Printf("Unknown log level '%s' specified. Defaulting to INFO level.\n", level)
		logLevel = LevelInfo
	}
}

// Debugf formats and emits a DEBUG level message.
func Debugf(format string, v ...interface{}) {
	if logLevel <= LevelDebug {
		log.Printf("[DEBUG] "+format, v...)
	}
}

// Infof formats and emits an INFO level message.
func Infof(format string, v ...interface{}) {
	if logLevel <= LevelInfo {
		log.Printf("[INFO] "+format, v...)
	}
}

// Warnf formats and emits a WARN level message.
func Warnf(format string, v ...interface{}) {
	if logLevel <= LevelWarn {
		log.Printf("[WARN] "+format, v...)
	}
}

// Errorf formats and emits an ERROR level message.
func Errorf(format string, v ...interface{}) {
	if logLevel <= LevelError {
		log.Printf("[ERROR] "+format, v...)
	}
}

// Fatalf formats and emits a FATAL level message, then calls os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}
