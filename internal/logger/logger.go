// Package logger provides the logging interface shared by vmm components.
// Components log through Logger without knowing whether lines end up in a
// rotating file, the on-screen feed, or a test buffer.
package logger

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})

	// Quiet returns a logger for background refresh ticks. Debug and Info
	// lines go to the refresh log only; Warn and Error lines are also echoed
	// on screen so failures stay visible.
	Quiet() Logger

	// API returns a logger whose on-screen lines land in the API call panel
	// instead of the general log panel.
	API() Logger
}

// DebugEnv enables debug lines when set to any non-empty value.
const DebugEnv = "VMM_DEBUG"

// envLogger implements Logger and logs to stderr through the standard log package.
// Debug messages are only printed when VMM_DEBUG is set.
type envLogger struct {
	prefix string
}

// NewEnvLogger creates a logger that respects the VMM_DEBUG environment variable.
// The prefix is prepended to all log messages (e.g., "[poller]").
func NewEnvLogger(prefix string) Logger {
	return &envLogger{prefix: prefix}
}

func (l *envLogger) Debug(format string, args ...interface{}) {
	if os.Getenv(DebugEnv) != "" {
		log.Printf(l.prefix+" "+format, args...)
	}
}

func (l *envLogger) Info(format string, args ...interface{}) {
	log.Printf(l.prefix+" "+format, args...)
}

func (l *envLogger) Warn(format string, args ...interface{}) {
	log.Printf(l.prefix+" WARN: "+format, args...)
}

func (l *envLogger) Error(format string, args ...interface{}) {
	log.Printf(l.prefix+" ERROR: "+format, args...)
}

// Quiet lines are only interesting while debugging one-shot commands.
func (l *envLogger) Quiet() Logger {
	return &quietEnvLogger{envLogger{prefix: l.prefix + " [refresh]"}}
}

func (l *envLogger) API() Logger {
	return &envLogger{prefix: l.prefix + " [api]"}
}

type quietEnvLogger struct {
	envLogger
}

func (l *quietEnvLogger) Info(format string, args ...interface{}) { l.Debug(format, args...) }

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}
func (l *noopLogger) Quiet() Logger                            { return l }
func (l *noopLogger) API() Logger                              { return l }

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
	Quiet   bool
	API     bool
}

// BufferLogger captures log messages for testing. It is safe for concurrent
// use so the poller goroutine can log while a test inspects the buffer.
type BufferLogger struct {
	root  *bufferStore
	quiet bool
	api   bool
}

type bufferStore struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{root: &bufferStore{messages: make([]LogMessage, 0)}}
}

func (l *BufferLogger) add(level string, quiet bool, format string, args ...interface{}) {
	l.root.mu.Lock()
	defer l.root.mu.Unlock()
	l.root.messages = append(l.root.messages, LogMessage{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		Quiet:   quiet,
		API:     l.api,
	})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) {
	l.add("debug", l.quiet, format, args...)
}

func (l *BufferLogger) Info(format string, args ...interface{}) {
	l.add("info", l.quiet, format, args...)
}

// Warn and Error are never quiet, matching the session logger.
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", false, format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", false, format, args...) }

func (l *BufferLogger) Quiet() Logger {
	return &BufferLogger{root: l.root, quiet: true, api: l.api}
}

func (l *BufferLogger) API() Logger {
	return &BufferLogger{root: l.root, quiet: l.quiet, api: true}
}

// Messages returns a copy of everything captured so far, including lines
// logged through Quiet and API views.
func (l *BufferLogger) Messages() []LogMessage {
	l.root.mu.Lock()
	defer l.root.mu.Unlock()
	out := make([]LogMessage, len(l.root.messages))
	copy(out, l.root.messages)
	return out
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Messages() {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.root.mu.Lock()
	defer l.root.mu.Unlock()
	l.root.messages = l.root.messages[:0]
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewEnvLogger("")
)

// Default returns the default logger for the package.
// This is an environment-based logger with no prefix.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger for the package.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
