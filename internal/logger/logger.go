package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	// DEBUG level for detailed debugging information
	DEBUG LogLevel = iota
	// INFO level for general operational information
	INFO
	// WARN level for warning messages
	WARN
	// ERROR level for error messages
	ERROR
	// FATAL level for fatal errors that require immediate attention
	FATAL
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var zerologLevels = map[LogLevel]zerolog.Level{
	DEBUG: zerolog.DebugLevel,
	INFO:  zerolog.InfoLevel,
	WARN:  zerolog.WarnLevel,
	ERROR: zerolog.ErrorLevel,
	FATAL: zerolog.FatalLevel,
}

// String returns the upper-case level name
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel converts a level name such as "info" into a LogLevel
func ParseLevel(s string) (LogLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		name = "WARN"
	}
	for level, n := range levelNames {
		if n == name {
			return level, nil
		}
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// Format selects how log lines are rendered
type Format string

const (
	// ConsoleFormat renders human-readable lines
	ConsoleFormat Format = "console"
	// JSONFormat renders one JSON object per line
	JSONFormat Format = "json"
)

// Options configures a Logger
type Options struct {
	Level     LogLevel
	Component string
	Format    Format
	Output    io.Writer
}

// Logger is a leveled, component-scoped logger backed by zerolog. Loggers
// derived from one another share a level.
type Logger struct {
	level     *atomic.Int32
	zl        zerolog.Logger
	component string
}

var (
	defaultLogger *Logger
	defaultMu     sync.Mutex

	// exitFunc is swapped out in tests
	exitFunc = os.Exit
)

// New builds a standalone logger
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Format != JSONFormat {
		out = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339Nano}
	}
	level := &atomic.Int32{}
	level.Store(int32(opts.Level))
	return &Logger{
		level:     level,
		zl:        zerolog.New(out).With().Timestamp().Logger(),
		component: opts.Component,
	}
}

// Setup initializes the default logger if it has not been initialized yet
func Setup(opts Options) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(opts)
	}
}

// InitLogger initializes the default logger
func InitLogger(level LogLevel, component string) {
	Setup(Options{Level: level, Component: component})
}

// SetDefault replaces the default logger
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	Setup(Options{Level: INFO, Component: "default"})
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultLogger
}

func (l *Logger) derive(zl zerolog.Logger, component string) *Logger {
	return &Logger{
		level:     l.level,
		zl:        zl,
		component: component,
	}
}

// WithComponent creates a new logger with the specified component name
func (l *Logger) WithComponent(component string) *Logger {
	return l.derive(l.zl, component)
}

// With creates a new logger that attaches key=value to every line
func (l *Logger) With(key string, value interface{}) *Logger {
	return l.derive(l.zl.With().Interface(key, value).Logger(), l.component)
}

// WithError creates a new logger that attaches err to every line
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zl.With().Err(err).Logger(), l.component)
}

// WithContext attaches the request id carried by ctx, if any
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

// Level returns the current logging level
func (l *Logger) Level() LogLevel {
	return LogLevel(l.level.Load())
}

// log performs the actual logging
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.Level() {
		return
	}

	l.zl.WithLevel(zerologLevels[level]).
		Str("component", l.component).
		Msg(fmt.Sprintf(format, args...))

	if level == FATAL {
		exitFunc(1)
	}
}

// Debug logs debug level messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info logs info level messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs warning level messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs error level messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// Fatal logs fatal level messages and exits
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(FATAL, format, args...)
}

type requestIDKey struct{}

// ContextWithRequestID returns a copy of ctx carrying the request id
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored in ctx, or ""
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
