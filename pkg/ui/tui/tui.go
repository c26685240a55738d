package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI represents the hunt dashboard
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a dashboard for a hunt that stops at target matches
func NewTUI(query string, target int) *TUI {
	model := NewModel(query, target)
	program := tea.NewProgram(model, tea.WithAltScreen())

	return &TUI{
		program: program,
		model:   model,
	}
}

// Start runs the dashboard until it is stopped or the user quits.
func (t *TUI) Start() error {
	go func() {
		time.Sleep(100 * time.Millisecond)
		t.program.Send(TickMsg(time.Now()))
	}()

	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// StartPoll notifies the dashboard that a search page is being fetched
func (t *TUI) StartPoll(poll int, cursor string) {
	t.Send(PollMsg{Poll: poll, Cursor: cursor})
}

// AddMatch adds a matched tweet
func (t *TUI) AddMatch(n int, screenName, id, text string, likes, followers int) {
	t.Send(MatchMsg{N: n, ScreenName: screenName, ID: id, Text: text, Likes: likes, Followers: followers})
}

// LikeResult reports the outcome of liking a tweet
func (t *TUI) LikeResult(id string, err error) {
	t.Send(LikeMsg{ID: id, Err: err})
}

// UpdateRateLimit updates the rate limit status
func (t *TUI) UpdateRateLimit(remaining, limit int, resetAt time.Time) {
	t.Send(RateLimitUpdateMsg{Remaining: remaining, Limit: limit, ResetAt: resetAt})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogSuccess logs a success message
func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

// LogError logs an error message
func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}

// IsPaused returns whether the hunt is paused
func (t *TUI) IsPaused() bool {
	return t.model.Paused()
}
