package logger

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger that remembers which service it belongs to.
// Derived loggers share the parent's output.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// fieldMap is the optional structured data a log call takes.
type fieldMap = map[string]interface{}

var global atomic.Pointer[Logger]

// Init builds the service logger from cfg and makes it the global one.
func Init(cfg Config, serviceName string) *Logger {
	cfg.ApplyDefaults()
	l := New(&cfg, serviceName)
	SetGlobalLogger(l)
	return l
}

// New builds a logger and applies cfg.Level process-wide.
func New(cfg *Config, serviceName string) *Logger {
	SetLevel(cfg.Level)

	out := outputWriter(cfg)
	var zl zerolog.Logger
	if cfg.Format == "json" {
		zl = zerolog.New(out).With().Str("service", serviceName).Logger()
	} else {
		zl = zerolog.New(consoleWriter(out, cfg.NoColor, serviceName))
	}

	ctx := zl.With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return &Logger{zl: ctx.Logger(), service: serviceName}
}

// NewDefault is the console logger used before configuration is loaded.
func NewDefault(serviceName string) *Logger {
	return New(&Config{Level: "info", Format: "console", Output: "stdout", Timestamp: true}, serviceName)
}

// NewWriter logs JSON lines to w.
func NewWriter(w io.Writer, serviceName string) *Logger {
	return &Logger{zl: zerolog.New(w).With().Str("service", serviceName).Logger(), service: serviceName}
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// SetLevel sets the process-wide minimum level. Empty or unknown names mean info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// SetGlobalLogger replaces the logger GetGlobalLogger returns.
func SetGlobalLogger(l *Logger) { global.Store(l) }

// GetGlobalLogger returns the logger set by Init, or a console default.
func GetGlobalLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	l := NewDefault("default")
	if global.CompareAndSwap(nil, l) {
		return l
	}
	return global.Load()
}

func (l *Logger) Service() string { return l.service }

func (l *Logger) derive(fn func(zerolog.Context) zerolog.Context) *Logger {
	return &Logger{zl: fn(l.zl.With()).Logger(), service: l.service}
}

// WithContext copies the request, task and trace ids stored in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return l.derive(func(zc zerolog.Context) zerolog.Context {
		for _, f := range contextFields {
			if v, ok := ctx.Value(f.key).(string); ok && v != "" {
				zc = zc.Str(f.name, v)
			}
		}
		return zc
	})
}

func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(func(zc zerolog.Context) zerolog.Context { return zc.Str(FieldComponent, name) })
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.derive(func(zc zerolog.Context) zerolog.Context { return zc.Fields(fields) })
}

func (l *Logger) WithError(err error) *Logger {
	return l.derive(func(zc zerolog.Context) zerolog.Context { return zc.Err(err) })
}

// Zerolog exposes the underlying logger for libraries that take one.
func (l *Logger) Zerolog() zerolog.Logger { return l.zl }

func (l *Logger) Debug(msg string, fields ...fieldMap) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...fieldMap)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...fieldMap)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...fieldMap) { emit(l.zl.Error(), msg, fields) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...fieldMap) { emit(l.zl.Fatal(), msg, fields) }

func emit(e *zerolog.Event, msg string, fields []fieldMap) {
	for _, f := range fields {
		e.Fields(f)
	}
	e.Msg(msg)
}
