package log

import (
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a console logger writing to w. Verbose enables V(1)
// messages. The returned function flushes buffered entries.
func New(service string, w io.Writer, verbose bool) (logr.Logger, func() error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		// logr V(1) maps to zap level -1
		level.SetLevel(zapcore.Level(-1))
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)
	zapLogger := zap.New(core)
	return zapr.NewLogger(zapLogger).WithName(service), zapLogger.Sync
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}
