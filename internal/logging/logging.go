// Package logging builds the process-wide zap logger, mapping the
// repeatable -v flag to zap's level model per §6 (0=warn, 1=info,
// 2=debug, 3+=trace — zap has no trace level, so trace logs at debug
// with a "trace" field so it can still be filtered downstream).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a sugared logger for the given -v count.
func New(verbosity int) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.Level = zap.NewAtomicLevelAt(levelFor(verbosity))

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	sugared := logger.Sugar()
	if verbosity >= 3 {
		sugared = sugared.With("trace", true)
	}
	return sugared, nil
}

func levelFor(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 0:
		return zapcore.WarnLevel
	case verbosity == 1:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
