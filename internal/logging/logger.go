// Package logging builds the zap logger used by the CLI and adapts it to
// the core's transition reports.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/simon/jobmux/internal/mux"
)

type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	OutputPaths []string
}

// DefaultConfig logs warnings and above to stderr in console form, so that
// command output on stdout stays clean.
func DefaultConfig() Config {
	return Config{
		Level:       "warn",
		Development: true,
		OutputPaths: []string{"stderr"},
	}
}

// New creates a logger with the provided configuration.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stderr"}
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Development,
		Encoding:          encodingFormat(cfg.Development),
		EncoderConfig:     encoderConfig(cfg.Development),
		OutputPaths:       cfg.OutputPaths,
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	return zapCfg.Build()
}

// NewDefault creates a logger with default configuration, falling back to
// a no-op logger.
func NewDefault() *zap.Logger {
	logger, err := New(DefaultConfig())
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.WarnLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

func encodingFormat(development bool) string {
	if development {
		return "console"
	}
	return "json"
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	if development {
		return zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			MessageKey:     "M",
			FunctionKey:    zapcore.OmitKey,
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		}
	}
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// Reporter logs every transition at info level with structured fields.
func Reporter(logger *zap.Logger) mux.Reporter {
	return mux.ReporterFunc(func(t mux.Transition) {
		fields := []zap.Field{
			zap.String("kind", string(t.Kind)),
			zap.String("session", t.Session),
		}
		if t.Host != "" {
			fields = append(fields, zap.String("host", t.Host))
		}
		if t.Window != "" {
			fields = append(fields, zap.String("window", t.Window))
		}
		switch t.Kind {
		case mux.WindowMoved:
			fields = append(fields, zap.Int("from", t.From), zap.Int("to", t.To))
		case mux.WindowKilled:
			fields = append(fields, zap.Int("index", t.From))
		case mux.WindowCreated, mux.CommandSent:
			fields = append(fields, zap.Int("index", t.To))
		}
		logger.Info(t.String(), fields...)
	})
}
