// Package logging adapts zap to the runtime.Logger interface so code outside
// the Nakama runtime logs through the same interface as the match handler.
package logging

import (
	"fmt"
	"maps"

	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a runtime.Logger backed by a sugared zap logger.
type Logger struct {
	z      *zap.SugaredLogger
	fields map[string]interface{}
}

var _ runtime.Logger = (*Logger)(nil)

// New builds a production logger at level ("debug", "info", "warn", "error").
func New(level string) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return Wrap(z), nil
}

// Wrap adapts an existing zap logger.
func Wrap(z *zap.Logger) *Logger {
	return &Logger{z: z.Sugar(), fields: map[string]interface{}{}}
}

func (l *Logger) Debug(format string, v ...interface{}) { l.z.Debugf(format, v...) }
func (l *Logger) Info(format string, v ...interface{})  { l.z.Infof(format, v...) }
func (l *Logger) Warn(format string, v ...interface{})  { l.z.Warnf(format, v...) }
func (l *Logger) Error(format string, v ...interface{}) { l.z.Errorf(format, v...) }

func (l *Logger) WithField(key string, v interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{key: v})
}

func (l *Logger) WithFields(fields map[string]interface{}) runtime.Logger {
	next := &Logger{z: l.z, fields: maps.Clone(l.fields)}
	for k, v := range fields {
		next.fields[k] = v
		next.z = next.z.With(k, v)
	}
	return next
}

func (l *Logger) Fields() map[string]interface{} {
	return maps.Clone(l.fields)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}
