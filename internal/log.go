package internal

import (
	"log"
	"os"
	"strings"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

var levelNames = map[string]LogLevel{
	"ERROR": LogLevelError,
	"WARN":  LogLevelWarn,
	"INFO":  LogLevelInfo,
	"DEBUG": LogLevelDebug,
	"TRACE": LogLevelTrace,
}

// ParseLogLevel maps a level name to a LogLevel, falling back to INFO
func ParseLogLevel(name string) LogLevel {
	if level, ok := levelNames[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return level
	}
	return LogLevelInfo
}

// Logger provides leveled logging with an optional component tag
type Logger struct {
	level LogLevel
	tag   string
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	return &Logger{level: ParseLogLevel(os.Getenv("LOG_LEVEL"))}
}

// With returns a logger that prefixes messages with [component]
func (l *Logger) With(component string) *Logger {
	return &Logger{level: l.level, tag: "[" + component + "] "}
}

func (l *Logger) printf(level LogLevel, prefix, format string, args ...interface{}) {
	if l.level >= level {
		log.Printf(prefix+l.tag+format, args...)
	}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.printf(LogLevelError, "[ERROR] ", format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.printf(LogLevelWarn, "[WARN] ", format, args...)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.printf(LogLevelInfo, "[INFO] ", format, args...)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.printf(LogLevelDebug, "[DEBUG] ", format, args...)
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	l.printf(LogLevelTrace, "[TRACE] ", format, args...)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
