package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

func NewLogger(cfg *Config) (*zerolog.Logger, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	out, err := openOutput(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("open log output: %w", err)
	}

	return newLogger(out, cfg.Format, level), nil
}

// NewQuietLogger is like NewLogger, but never writes to stdout.
// Output is discarded unless a log file is configured.
func NewQuietLogger(cfg *Config) (*zerolog.Logger, error) {
	if cfg.File == "" {
		l := zerolog.Nop()
		return &l, nil
	}

	return NewLogger(cfg)
}

func newLogger(out io.Writer, format LogFormat, level zerolog.Level) *zerolog.Logger {
	switch format {
	case LogFormatConsole:
		l := zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    out != os.Stdout,
		}).Level(level).With().Timestamp().Logger()
		return &l
	default:
		l := zerolog.New(out).With().Timestamp().Logger().Level(level)
		return &l
	}
}

func openOutput(path string) (io.Writer, error) {
	if path == "" {
		return os.Stdout, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	return f, nil
}

func parseLogLevel(level LogLevel) (zerolog.Level, error) {
	switch level {
	case LogLevelTrace:
		return zerolog.TraceLevel, nil
	case LogLevelDebug:
		return zerolog.DebugLevel, nil
	case LogLevelInfo:
		return zerolog.InfoLevel, nil
	case LogLevelWarn:
		return zerolog.WarnLevel, nil
	case LogLevelError:
		return zerolog.ErrorLevel, nil
	case LogLevelFatal:
		return zerolog.FatalLevel, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}
