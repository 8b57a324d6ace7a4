// Package observability provides leveled, structured logging shared by
// the session, the watcher, and the CLI.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// ParseLevel maps a configuration string to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// ParseFormat maps a configuration string to a LogFormat.
func ParseFormat(s string) (LogFormat, error) {
	switch strings.ToLower(s) {
	case "human", "":
		return LogFormatHuman, nil
	case "json":
		return LogFormatJSON, nil
	default:
		return LogFormatHuman, fmt.Errorf("unknown log format %q", s)
	}
}

// Logger writes structured log entries through the standard log package,
// so output destination and test capture follow log.SetOutput.
type Logger struct {
	level  LogLevel
	format LogFormat
}

// NewLogger creates a logger with the specified level and format.
func NewLogger(level LogLevel, format LogFormat) *Logger {
	return &Logger{level: level, format: format}
}

// LogDebug logs a debug message with structured fields.
func (l *Logger) LogDebug(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelDebug {
		return
	}
	l.emit("debug", "DEBUG", message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *Logger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.emit("info", "INFO", message, fields)
}

// LogWarning logs a warning message with structured fields.
func (l *Logger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.emit("warning", "WARN", message, fields)
}

// LogError logs an error message with structured fields.
func (l *Logger) LogError(ctx context.Context, message string, fields map[string]interface{}) {
	l.emit("error", "ERROR", message, fields)
}

func (l *Logger) emit(level, tag, message string, fields map[string]interface{}) {
	if l.format == LogFormatJSON {
		entry := make(map[string]interface{}, len(fields)+3)
		for k, v := range fields {
			entry[k] = v
		}
		entry["level"] = level
		entry["message"] = message
		entry["timestamp"] = time.Now().Format(time.RFC3339)

		data, err := json.Marshal(entry)
		if err != nil {
			// A field that cannot marshal must not lose the message.
			log.Printf(`{"level":%q,"message":%q,"timestamp":%q}`,
				level, message, time.Now().Format(time.RFC3339))
			return
		}
		log.Printf("%s", data)
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	if len(parts) == 0 {
		log.Printf("[%s] %s", tag, message)
		return
	}
	log.Printf("[%s] %s %s", tag, message, strings.Join(parts, " "))
}
