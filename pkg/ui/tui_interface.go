package ui

import "time"

// TUI is an interface for full-screen dashboards fed by a hunt
type TUI interface {
	StartPoll(poll int, cursor string)
	AddMatch(n int, screenName, id, text string, likes, followers int)
	LikeResult(id string, err error)
	UpdateRateLimit(remaining, limit int, resetAt time.Time)
	LogInfo(format string, args ...interface{})
	LogSuccess(format string, args ...interface{})
	LogWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})
	IsPaused() bool
}
