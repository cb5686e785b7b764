// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     logging
// Description: Output formatters (JSON and text)
// License:     MIT
// ============================================================================

package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Format represents the output format for log entries
type Format int

const (
	// FormatText outputs human-readable text logs (default for a desktop app)
	FormatText Format = iota

	// FormatJSON outputs structured JSON logs
	FormatJSON
)

// ParseFormat parses a string into a log format
func ParseFormat(format string) Format {
	if strings.ToLower(strings.TrimSpace(format)) == "json" {
		return FormatJSON
	}
	return FormatText
}

// Entry is a single log record handed to a formatter
type Entry struct {
	Timestamp time.Time
	Level     Level
	Logger    string
	Message   string
	Fields    map[string]interface{}
}

// Formatter renders an entry to bytes, including the trailing newline
type Formatter interface {
	Format(e *Entry) ([]byte, error)
}

// JSONFormatter formats entries as single-line JSON objects
type JSONFormatter struct {
	TimestampFormat string
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(e *Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = time.RFC3339
	}

	data := make(map[string]interface{}, len(e.Fields)+4)
	data["timestamp"] = e.Timestamp.Format(tsFormat)
	data["level"] = e.Level.String()
	data["message"] = e.Message
	if e.Logger != "" {
		data["logger"] = e.Logger
	}
	for k, v := range e.Fields {
		// Errors do not marshal usefully; stringify them.
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// TextFormatter formats entries as aligned human-readable lines
type TextFormatter struct {
	TimestampFormat string
}

// Format formats a log entry as text
func (f *TextFormatter) Format(e *Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = "15:04:05.000"
	}

	var b strings.Builder
	b.WriteString(e.Timestamp.Format(tsFormat))
	b.WriteString(" ")
	b.WriteString(e.Level.ShortString())
	if e.Logger != "" {
		b.WriteString(" [")
		b.WriteString(e.Logger)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(e.Message)

	// Deterministic field order keeps lines diffable in tests.
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(fmt.Sprintf("%v", e.Fields[k]))
	}
	b.WriteString("\n")

	return []byte(b.String()), nil
}

// GetFormatter returns the formatter for the given format
func GetFormatter(format Format) Formatter {
	if format == FormatJSON {
		return &JSONFormatter{}
	}
	return &TextFormatter{}
}
