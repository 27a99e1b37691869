package httpclient

import (
	"log/slog"

	"github.com/hashicorp/go-retryablehttp"
)

// leveledLogger adapts slog.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger *slog.Logger
}

var _ retryablehttp.LeveledLogger = (*leveledLogger)(nil)

func (l *leveledLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, keysAndValues...)
}

// Info is demoted to debug: retryablehttp reports every attempt at info.
func (l *leveledLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}
