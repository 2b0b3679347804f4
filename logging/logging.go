// Package logging provides real-time log output for the memory pipeline.
// The document store is the durable record; this package provides optional
// console output for monitoring what the pipeline decided and why.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging to stdout.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	userID    string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
		userID:    l.userID,
	}
}

// WithUser returns a new logger scoped to a user. Only the ID is logged,
// never message or memory content.
func (l *Logger) WithUser(userID string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		userID:    userID,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}
	if l.userID != "" {
		fieldStr += " user=" + l.userID
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Pipeline event methods ---
// Called by the pipeline and store as decisions happen. Content is never
// logged, only metadata.

// AnalysisStart logs the start of a message analysis.
func (l *Logger) AnalysisStart(intent string, existing int) {
	l.Debug("analysis_start", map[string]interface{}{
		"intent":   intent,
		"existing": existing,
	})
}

// AnalysisComplete logs the analyzer's verdict.
func (l *Logger) AnalysisComplete(importance int, shouldStore, usedLLM bool, duration time.Duration) {
	l.Debug("analysis_complete", map[string]interface{}{
		"importance":  importance,
		"shouldStore": shouldStore,
		"llm":         usedLLM,
		"duration":    duration.String(),
	})
}

// LLMFallback logs degraded analysis after a provider or parse failure.
func (l *Logger) LLMFallback(stage string, err error) {
	l.Warn("llm_fallback", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
}

// MemoryStored logs a stored memory record.
func (l *Logger) MemoryStored(id, topic string, importance int, explicit bool) {
	l.Info("memory_stored", map[string]interface{}{
		"id":         id,
		"topic":      topic,
		"importance": importance,
		"explicit":   explicit,
	})
}

// MemoryRejected logs a rejected candidate.
func (l *Logger) MemoryRejected(reason string, importance int) {
	l.Debug("memory_rejected", map[string]interface{}{
		"reason":     reason,
		"importance": importance,
	})
}

// MemoryDeleted logs a deletion.
func (l *Logger) MemoryDeleted(id string) {
	l.Info("memory_deleted", map[string]interface{}{
		"id": id,
	})
}

// PurgeComplete logs the result of a duplicate sweep.
func (l *Logger) PurgeComplete(compared, deleted int, duration time.Duration) {
	l.Info("purge_complete", map[string]interface{}{
		"compared": compared,
		"deleted":  deleted,
		"duration": duration.String(),
	})
}

// DecryptPassthrough logs a failed decrypt that fell back to the raw value.
func (l *Logger) DecryptPassthrough(id string) {
	l.Warn("decrypt_passthrough", map[string]interface{}{
		"id": id,
	})
}
