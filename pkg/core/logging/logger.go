// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     logging
// Description: Structured key/value logger
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"sync"
	"time"
)

// Logger is a leveled, named logger that accepts alternating key/value
// pairs. All methods are safe for concurrent use.
type Logger struct {
	mu        sync.Mutex
	level     Level
	formatter Formatter
	output    io.Writer
	name      string
	fields    map[string]interface{}
}

// Config holds logger configuration
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
	Name   string
}

// New creates a logger with the given name and default configuration
// (info level, text format, stdout).
func New(name string) *Logger {
	return NewWithConfig(Config{Name: name, Level: LevelInfo})
}

// NewWithConfig creates a logger with the specified configuration
func NewWithConfig(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		level:     cfg.Level,
		formatter: GetFormatter(cfg.Format),
		output:    output,
		name:      cfg.Name,
		fields:    make(map[string]interface{}),
	}
}

// Named returns a child logger with a dotted sub-name, sharing the
// parent's level, format and output.
func (l *Logger) Named(name string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	clone := l.clone()
	if l.name != "" {
		clone.name = l.name + "." + name
	} else {
		clone.name = name
	}
	return clone
}

// WithField returns a logger that adds the field to every entry
func (l *Logger) WithField(key string, value interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	clone := l.clone()
	clone.fields[key] = value
	return clone
}

// SetLevel changes the minimum level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Debug logs a debug message with alternating key/value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LevelDebug, msg, keysAndValues...)
}

// Info logs an info message with alternating key/value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning message with alternating key/value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LevelWarn, msg, keysAndValues...)
}

// Error logs an error message with alternating key/value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LevelError, msg, keysAndValues...)
}

func (l *Logger) log(level Level, msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	entry := &Entry{
		Timestamp: time.Now(),
		Level:     level,
		Logger:    l.name,
		Message:   msg,
		Fields:    make(map[string]interface{}, len(l.fields)+len(keysAndValues)/2),
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		entry.Fields[key] = keysAndValues[i+1]
	}

	if formatted, err := l.formatter.Format(entry); err == nil {
		l.output.Write(formatted)
	}
}

func (l *Logger) clone() *Logger {
	clone := &Logger{
		level:     l.level,
		formatter: l.formatter,
		output:    l.output,
		name:      l.name,
		fields:    make(map[string]interface{}, len(l.fields)),
	}
	for k, v := range l.fields {
		clone.fields[k] = v
	}
	return clone
}

// Nop returns a logger that discards everything, for tests
func Nop() *Logger {
	return NewWithConfig(Config{Output: io.Discard, Level: LevelError + 1})
}
