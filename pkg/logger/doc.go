// Package logger provides structured logging for the bot.
//
// It wraps zerolog behind a small Logger interface with a global instance:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("query", cfg.Search.Query).Info("Hunt starting")
//
// Console output goes to stderr so command output on stdout stays clean.
// When LoggingConfig.File is set, JSON lines are appended there as well.
//
// Tests install a TestLogger with SetLogger, or pass one directly to
// components that accept a Logger, and assert on the captured messages.
package logger
