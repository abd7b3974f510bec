package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatZap  = "zap"
)

// New builds a Logger writing to w. level is one of debug, info, warn, error.
func New(format, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		lvl, err := parseSlogLevel(level)
		if err != nil {
			return nil, err
		}
		return NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))), nil

	case FormatJSON:
		lvl, err := parseSlogLevel(level)
		if err != nil {
			return nil, err
		}
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))), nil

	case FormatZap:
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(w),
			lvl,
		)
		return NewZapLogger(zap.New(core)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

func parseSlogLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
