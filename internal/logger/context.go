package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalMu sync.RWMutex
	global   *Logger
	fallback = newFallback()
)

type ctxKey struct{}

func newFallback() *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	return New(l.With(zap.String("logger", "fallback")))
}

// NewContext returns a copy of ctx carrying l. Log prefers it over the
// global logger.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// SetGlobalLogger installs the process-wide logger. nil reverts Log to the
// warn-level fallback.
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = l
}

// Log returns the logger carried by ctx, else the global logger, else the
// fallback.
func Log(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
			return l
		}
	}

	globalMu.RLock()
	defer globalMu.RUnlock()
	if global != nil {
		return global
	}
	return fallback
}
