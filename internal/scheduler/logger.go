package scheduler

import "log/slog"

// cronLogger routes cron's own messages into slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
