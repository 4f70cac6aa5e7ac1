// Package logging wraps zerolog.Logger to pin the mandatory
// structured-log field names FlowBridge's every stage writes:
// timestamp, level, category, message, context (§4.8).
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Category is one of the fixed log categories §4.8 names.
type Category string

const (
	CategoryConfigError     Category = "CONFIG_ERROR"
	CategoryValidationError Category = "VALIDATION_ERROR"
	CategoryFiltering       Category = "FILTERING"
	CategoryRouting         Category = "ROUTING"
	CategoryForwarding      Category = "FORWARDING"
	CategoryResponse        Category = "RESPONSE"
)

func init() {
	// §4.8 mandates "timestamp" (not zerolog's default "time") with
	// RFC 3339 millisecond precision.
	zerolog.TimestampFieldName = "timestamp"
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05.000Z07:00"
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
}

// Context is the structured payload logged under the "context" key.
// RequestID is present on every per-request line; Extra carries
// stage-specific detail.
type Context struct {
	RequestID string
	Extra     map[string]any
}

// Logger emits one JSON object per line via zerolog, with
// timestamp/level/category/message/context as the only top-level
// keys every call site can produce.
type Logger struct {
	z zerolog.Logger
}

// New builds a Logger writing JSON lines to w at the given level.
// level accepts zerolog level names (debug, info, warn, error); an
// unrecognized or empty value defaults to info.
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	z := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &Logger{z: z}
}

// NewConsole builds a Logger writing human-readable console output,
// for local development.
func NewConsole(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02T15:04:05.000Z07:00"}
	z := zerolog.New(console).Level(lvl).With().Timestamp().Logger()
	return &Logger{z: z}
}

func (l *Logger) event(level zerolog.Level, category Category, message string, ctx Context) {
	ev := l.z.WithLevel(level)
	ev = ev.Str("category", string(category))

	dict := zerolog.Dict()
	if ctx.RequestID != "" {
		dict = dict.Str("request_id", ctx.RequestID)
	}
	for k, v := range ctx.Extra {
		dict = dict.Interface(k, v)
	}
	ev.Dict("context", dict).Msg(message)
}

func (l *Logger) Debug(category Category, message string, ctx Context) {
	l.event(zerolog.DebugLevel, category, message, ctx)
}

func (l *Logger) Info(category Category, message string, ctx Context) {
	l.event(zerolog.InfoLevel, category, message, ctx)
}

func (l *Logger) Warn(category Category, message string, ctx Context) {
	l.event(zerolog.WarnLevel, category, message, ctx)
}

func (l *Logger) Error(category Category, message string, ctx Context) {
	l.event(zerolog.ErrorLevel, category, message, ctx)
}

// Zerolog exposes the underlying zerolog.Logger for components (chi
// middleware, cobra command wiring) that want it directly.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.z
}
