package logging

import (
	"fmt"
	"strings"

	"stagecheck/internal/platform/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger for service.
//
// LOG_LEVEL selects the minimum level (default info) and LOG_FORMAT selects
// "json" (default) or "console" encoding. Output goes to stderr so stdout
// stays free for command results.
func New(service string) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(config.Getenv("LOG_LEVEL", "info")))); err != nil {
		return nil, fmt.Errorf("logging: LOG_LEVEL: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch f := strings.ToLower(config.Getenv("LOG_FORMAT", "json")); f {
	case "json":
	case "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("logging: unsupported LOG_FORMAT %q", f)
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("service", service)), nil
}
