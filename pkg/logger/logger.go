package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds the service logger. Output is one JSON object per line with the
// service name and hostname stamped on every entry; call sites attach their
// own action and request_id fields.
func New(service, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	hostname, _ := os.Hostname()

	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Str("hostname", hostname).
		Logger()
}
