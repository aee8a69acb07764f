package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger settings.
type Config struct {
	Level    string // debug, info, warn, error
	Encoding string // json, or console (alias text)
	// OutputPath is a file path, "stdout" or "stderr". Empty means stdout.
	OutputPath string
	// Writer, when set, takes precedence over OutputPath.
	Writer io.Writer
	// Service is attached to every entry as "service" when set.
	Service string
	// Development adds caller locations and error stack traces.
	Development bool
}

// ParseLevel maps a level name to a zap level. An empty name is info.
func ParseLevel(name string) (zapcore.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return lvl, nil
}

// New builds a zap.Logger from cfg. An unknown level falls back to info and
// is reported through the new logger; an unknown encoding falls back to json.
func New(cfg Config) (*zap.Logger, error) {
	lvl, levelErr := ParseLevel(cfg.Level)

	sink, err := openSink(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open log output: %w", err)
	}

	core := zapcore.NewCore(newEncoder(cfg.Encoding, cfg.Writer == nil && isStdStream(cfg.OutputPath)), sink, zap.NewAtomicLevelAt(lvl))

	opts := []zap.Option{zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if cfg.Development {
		opts = append(opts, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if cfg.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", cfg.Service)))
	}

	logger := zap.New(core, opts...)
	if levelErr != nil {
		logger.Warn("Falling back to info level", zap.Error(levelErr))
	}
	return logger, nil
}

func newEncoder(encoding string, colored bool) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	switch strings.ToLower(encoding) {
	case "console", "text":
		if colored {
			encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return zapcore.NewJSONEncoder(encoderCfg)
	}
}

func openSink(cfg Config) (zapcore.WriteSyncer, error) {
	if cfg.Writer != nil {
		return zapcore.Lock(zapcore.AddSync(cfg.Writer)), nil
	}
	path := cfg.OutputPath
	if path == "" {
		path = "stdout"
	}
	sink, _, err := zap.Open(path)
	return sink, err
}

func isStdStream(path string) bool {
	return path == "" || path == "stdout" || path == "stderr"
}
