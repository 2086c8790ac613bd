package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development gets a human readable console
// writer, every other environment writes JSON lines to stdout. An unknown
// level keeps the environment default.
func New(env, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if strings.EqualFold(env, "development") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl := zerolog.InfoLevel
	if strings.EqualFold(env, "development") {
		lvl = zerolog.DebugLevel
	}
	if level = strings.ToLower(strings.TrimSpace(level)); level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			lvl = parsed
		}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "offers-service").Logger()
}
