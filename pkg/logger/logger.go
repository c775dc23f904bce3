package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
)

type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})

	WithModule(module string) Logger
	WithFields(fields map[string]interface{}) Logger
}

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

// NewLogger creates a leveled logger. If logFile is non-empty the output is
// appended to that file, otherwise it goes to stderr.
func NewLogger(level, logFile string) Logger {
	out := log.Default()
	if logFile != "" {
		if f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			out = log.New(f, "", log.LstdFlags)
		} else {
			log.Printf("[WARN] cannot open log file %s, falling back to stderr: %v", logFile, err)
		}
	}
	return &stdLogger{
		level: parseLevel(level),
		out:   out,
	}
}

type stdLogger struct {
	level  int
	out    *log.Logger
	module string
	fields map[string]interface{}
}

func parseLevel(l string) int {
	switch strings.ToLower(l) {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (l *stdLogger) WithModule(module string) Logger {
	clone := *l
	clone.module = module
	return &clone
}

func (l *stdLogger) WithFields(fields map[string]interface{}) Logger {
	clone := *l
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	clone.fields = merged
	return &clone
}

func (l *stdLogger) printf(tag, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if l.module != "" {
		msg = fmt.Sprintf("[%s] %s", strings.ToUpper(l.module), msg)
	}
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, l.fields[k]))
		}
		msg = msg + " " + strings.Join(parts, " ")
	}
	l.out.Printf("%s %s", tag, msg)
}

func (l *stdLogger) Debugf(format string, v ...interface{}) {
	if l.level <= levelDebug {
		l.printf("[DEBUG]", format, v...)
	}
}

func (l *stdLogger) Infof(format string, v ...interface{}) {
	if l.level <= levelInfo {
		l.printf("[INFO]", format, v...)
	}
}

func (l *stdLogger) Warnf(format string, v ...interface{}) {
	if l.level <= levelWarn {
		l.printf("[WARN]", format, v...)
	}
}

func (l *stdLogger) Errorf(format string, v ...interface{}) {
	if l.level <= levelError {
		l.printf("[ERROR]", format, v...)
	}
}

func (l *stdLogger) Fatalf(format string, v ...interface{}) {
	l.printf("[FATAL]", format, v...)
	os.Exit(1)
}

type contextKey struct{}

// NewContext attaches the logger to the context.
func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in the context, or a default
// info-level logger when none was attached.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok {
		return l
	}
	return NewLogger("info", "")
}
