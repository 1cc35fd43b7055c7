package logger

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"taskbot/pkg/config"
	"taskbot/pkg/trace"
)

// NewLogger builds the production zap logger. Level "debug" switches to the
// development encoder. When file.Path is set, entries are also written as
// JSON to a size-rotated file.
func NewLogger(level string, file config.LogFileConfig) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if level == "debug" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}

	if file.Path != "" {
		fileCore, err := newFileCore(file, l.Level())
		if err != nil {
			l.Warn("Log file disabled", zap.String("path", file.Path), zap.Error(err))
		} else {
			l = l.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
				return zapcore.NewTee(c, fileCore)
			}))
		}
	}
	return l.With(zap.String("service", "taskbot"))
}

// newFileCore 使用 lumberjack 按大小轮转
func newFileCore(file config.LogFileConfig, level zapcore.Level) (zapcore.Core, error) {
	if err := os.MkdirAll(filepath.Dir(file.Path), 0o755); err != nil {
		return nil, err
	}
	maxSize := file.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	w := &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    maxSize,
		MaxAge:     file.MaxAgeDays,
		MaxBackups: file.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		level,
	), nil
}

// WithTrace 从 context 中提取 trace_id 并添加到 logger
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := trace.FromContext(ctx)
	if traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
