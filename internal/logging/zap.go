package logging

import (
	"go.uber.org/zap"
)

// ZapLogger adapts a *zap.Logger to the Logger interface. The server binary
// uses this; tests and small tools stay on StdoutLogger.
type ZapLogger struct {
	z *zap.Logger
}

// NewZapLogger wraps an existing zap logger. Pass zap.L() to use the global
// logger installed by config.InitLogger.
func NewZapLogger(z *zap.Logger) *ZapLogger {
	if z == nil {
		z = zap.L()
	}
	return &ZapLogger{z: z}
}

func zapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, zapFields(fields)...) }

func (l *ZapLogger) Info(msg string, fields ...Field) { l.z.Info(msg, zapFields(fields)...) }

func (l *ZapLogger) Warn(msg string, fields ...Field) { l.z.Warn(msg, zapFields(fields)...) }

func (l *ZapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, zapFields(fields)...) }

func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{z: l.z.With(zapFields(fields)...)}
}
