package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs HTTP request information
func LogRequest(method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration":    duration,
	}

	switch {
	case statusCode >= 500:
		GetLogger().ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		GetLogger().WarnWithFields("HTTP request client error", fields)
	default:
		GetLogger().DebugWithFields("HTTP request completed", fields)
	}
}

// LogRateLimit logs that the search budget is exhausted and the bot is waiting.
func LogRateLimit(l Logger, resource string, remaining int, wait time.Duration) {
	l.WithFields(map[string]interface{}{
		"resource":  resource,
		"remaining": remaining,
		"wait":      wait,
		"action":    "rate_limited",
	}).Warn("Out of limits, waiting before retrying")
}

// LogPoll logs the outcome of one search page.
func LogPoll(l Logger, poll, statuses, matched, target int, cursor string) {
	l.WithFields(map[string]interface{}{
		"poll":     poll,
		"statuses": statuses,
		"matched":  matched,
		"target":   target,
		"max_id":   cursor,
	}).Info("Search page scanned")
}

// LogMatch logs a status that passed every filter.
func LogMatch(l Logger, n int, screenName, id string, likes, followers int, created string) {
	l.WithFields(map[string]interface{}{
		"n":         n,
		"user":      screenName,
		"id":        id,
		"likes":     likes,
		"followers": followers,
		"created":   created,
	}).Info("Match found")
}

// LogLike logs a like attempt; failures are warnings since the run continues.
func LogLike(l Logger, id string, pause time.Duration, err error) {
	entry := l.WithFields(map[string]interface{}{
		"id":    id,
		"pause": pause,
	})
	if err != nil {
		entry.WithError(err).Warn("Like failed")
		return
	}
	entry.Info("Liked")
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// LogMetrics logs a summary of a finished operation
func LogMetrics(operation string, metrics map[string]interface{}) {
	fields := map[string]interface{}{
		"operation": operation,
		"type":      "metrics",
	}
	for k, v := range metrics {
		fields[k] = v
	}
	GetLogger().InfoWithFields("Run summary", fields)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
