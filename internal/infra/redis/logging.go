package redis

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// libraryLogger routes go-redis internal messages into zerolog.
type libraryLogger struct {
	log zerolog.Logger
}

func (l libraryLogger) Printf(_ context.Context, format string, v ...interface{}) {
	l.log.Warn().Msgf(strings.TrimPrefix(format, "redis: "), v...)
}

// SetLibraryLogger replaces the go-redis package logger, which otherwise writes
// plain text to stderr. It is process-wide.
func SetLibraryLogger(log zerolog.Logger) {
	redis.SetLogger(libraryLogger{log: log.With().Str("component", "go-redis").Logger()})
}
