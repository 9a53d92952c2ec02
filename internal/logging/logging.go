// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zap logger shared by all components: a
// console or JSON core on stderr and, when a file is configured, a JSON
// core writing to a size-rotated log file.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pdiddy/skill-factory/pkg/types"
)

// New returns a logger for cfg writing human output to w. The returned
// close function flushes the logger and closes the log file, if any.
func New(cfg types.LoggingConfig, w io.Writer) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(orDefault(cfg.Level, "info"))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(orDefault(cfg.Format, "console")), zapcore.AddSync(w), level),
	}

	var file *lumberjack.Logger
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		// The file always records debug detail.
		cores = append(cores, zapcore.NewCore(newEncoder("json"), zapcore.AddSync(file), zapcore.DebugLevel))
	}

	log := zap.New(zapcore.NewTee(cores...))
	closeFn := func() error {
		_ = log.Sync()
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return log, closeFn, nil
}

func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
