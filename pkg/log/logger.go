// Structured logging for the mixing extruder host
//
// Provides leveled logging with structured fields, text or JSON output,
// ANSI colors for terminal output, and per-component loggers with
// prefixes.
//
// Copyright (C) 2025 Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// DEBUG level for detailed debugging information
	DEBUG LogLevel = iota

	// INFO level for general informational messages
	INFO

	// WARN level for warning messages
	WARN

	// ERROR level for error messages
	ERROR
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a LogLevel
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// OutputFormat selects between text and JSON output
type OutputFormat int

const (
	// FormatText emits human-readable lines
	FormatText OutputFormat = iota

	// FormatJSON emits one JSON object per line
	FormatJSON
)

// Fields holds structured key-value pairs attached to a log entry
type Fields map[string]interface{}

// Logger is a leveled logger with a component prefix
type Logger struct {
	mu         sync.Mutex
	prefix     string
	writer     io.Writer
	level      LogLevel
	timeFormat string
	colorize   bool
	outFormat  OutputFormat
}

// Entry represents a single log entry with fields
type Entry struct {
	logger *Logger
	fields Fields
}

var (
	defaultLogger *Logger

	// ANSI color codes for terminal output
	ansiColors = map[LogLevel]string{
		DEBUG: "\x1b[36m", // Cyan
		INFO:  "\x1b[32m", // Green
		WARN:  "\x1b[33m", // Yellow
		ERROR: "\x1b[31m", // Red
	}
	ansiReset = "\x1b[0m"
)

// New creates a new logger with the given prefix
func New(prefix string) *Logger {
	return &Logger{
		prefix:     prefix,
		writer:     os.Stderr,
		level:      INFO,
		timeFormat: "2006-01-02 15:04:05.000",
		colorize:   os.Getenv("NO_COLOR") == "",
		outFormat:  FormatText,
	}
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetWriter sets the output writer (e.g., for testing)
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// SetColorize enables or disables colorized output
func (l *Logger) SetColorize(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.colorize = enable
}

// SetFormat sets the output format (FormatText or FormatJSON)
func (l *Logger) SetFormat(format OutputFormat) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outFormat = format
}

// WithPrefix returns a new logger with an extended prefix
func (l *Logger) WithPrefix(prefix string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		prefix:     l.prefix + "." + prefix,
		writer:     l.writer,
		level:      l.level,
		timeFormat: l.timeFormat,
		colorize:   l.colorize,
		outFormat:  l.outFormat,
	}
}

// WithField returns an Entry with the given field
func (l *Logger) WithField(key string, value interface{}) *Entry {
	return &Entry{logger: l, fields: Fields{key: value}}
}

// WithFields returns an Entry with the given fields
func (l *Logger) WithFields(fields Fields) *Entry {
	return &Entry{logger: l, fields: fields}
}

// WithError returns an Entry with the error field set
func (l *Logger) WithError(err error) *Entry {
	return l.WithField("error", err.Error())
}

func (l *Logger) formatText(level LogLevel, msg string, fields Fields) string {
	var sb strings.Builder
	sb.WriteString(time.Now().Format(l.timeFormat))
	sb.WriteString(" [")
	sb.WriteString(fmt.Sprintf("%-5s", level.String()))
	sb.WriteString("] ")
	if l.colorize {
		sb.WriteString(ansiColors[level])
	}
	sb.WriteString(l.prefix)
	if l.colorize {
		sb.WriteString(ansiReset)
	}
	sb.WriteString(": ")
	sb.WriteString(msg)
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf(" %s=%v", k, fields[k]))
		}
	}
	return sb.String()
}

func (l *Logger) formatJSON(level LogLevel, msg string, fields Fields) string {
	obj := map[string]interface{}{
		"time":      time.Now().Format(l.timeFormat),
		"level":     level.String(),
		"component": l.prefix,
		"msg":       msg,
	}
	for k, v := range fields {
		obj[k] = v
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return fmt.Sprintf(`{"level":"ERROR","msg":"log marshal: %v"}`, err)
	}
	return string(b)
}

func (l *Logger) log(level LogLevel, msg string, args []interface{}, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	var line string
	if l.outFormat == FormatJSON {
		line = l.formatJSON(level, msg, fields)
	} else {
		line = l.formatText(level, msg, fields)
	}
	fmt.Fprintln(l.writer, line)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(DEBUG, msg, args, nil)
}

// Info logs an informational message
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(INFO, msg, args, nil)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(WARN, msg, args, nil)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(ERROR, msg, args, nil)
}

// Debug logs the entry at DEBUG level
func (e *Entry) Debug(msg string, args ...interface{}) {
	e.logger.log(DEBUG, msg, args, e.fields)
}

// Info logs the entry at INFO level
func (e *Entry) Info(msg string, args ...interface{}) {
	e.logger.log(INFO, msg, args, e.fields)
}

// Warn logs the entry at WARN level
func (e *Entry) Warn(msg string, args ...interface{}) {
	e.logger.log(WARN, msg, args, e.fields)
}

// Error logs the entry at ERROR level
func (e *Entry) Error(msg string, args ...interface{}) {
	e.logger.log(ERROR, msg, args, e.fields)
}

// WithField adds a field to the entry
func (e *Entry) WithField(key string, value interface{}) *Entry {
	fields := make(Fields, len(e.fields)+1)
	for k, v := range e.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Entry{logger: e.logger, fields: fields}
}

// SetDefaultLogger replaces the package default logger
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// Debug logs a debug message on the default logger
func Debug(msg string, args ...interface{}) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an informational message on the default logger
func Info(msg string, args ...interface{}) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message on the default logger
func Warn(msg string, args ...interface{}) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message on the default logger
func Error(msg string, args ...interface{}) {
	defaultLogger.Error(msg, args...)
}

// ConfigureFromEnv applies LOG_LEVEL and LOG_FORMAT environment settings
func ConfigureFromEnv(l *Logger) {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		l.SetLevel(ParseLevel(lvl))
	}
	if f := os.Getenv("LOG_FORMAT"); strings.EqualFold(f, "json") {
		l.SetFormat(FormatJSON)
	}
}

func init() {
	defaultLogger = New("mixhost")
}
