// Package logging provides the application logger. The public surface is a
// small leveled API with structured fields; zap does the actual encoding.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level controls which messages are emitted
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Field is a single structured log field
type Field struct {
	Key   string
	Value interface{}
}

// WithField creates a single structured field
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// WithFields converts a map into a list of structured fields
func WithFields(fields map[string]interface{}) []Field {
	out := make([]Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, Field{Key: k, Value: v})
	}
	return out
}

// Logger is a leveled structured logger
type Logger struct {
	zl *zap.Logger
}

// New creates a logger writing JSON to stderr at the given level
func New(level Level) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		zapLevel(level),
	)

	return &Logger{zl: zap.New(core)}
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.zl.Debug(msg, convertFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.zl.Info(msg, convertFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.zl.Warn(msg, convertFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	l.zl.Error(msg, convertFields(fields)...)
}

// Sync flushes buffered log entries
func (l *Logger) Sync() {
	_ = l.zl.Sync()
}

// convertFields accepts Field values and []Field slices, so call sites can
// pass either WithField(...) or WithFields(...) results directly.
func convertFields(args []interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(args))
	for _, arg := range args {
		switch f := arg.(type) {
		case Field:
			out = append(out, zap.Any(f.Key, f.Value))
		case []Field:
			for _, ff := range f {
				out = append(out, zap.Any(ff.Key, ff.Value))
			}
		}
	}
	return out
}
