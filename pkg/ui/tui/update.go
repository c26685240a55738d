package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// PollMsg is sent when a search page is requested
type PollMsg struct {
	Poll   int
	Cursor string
}

// MatchMsg is sent when a tweet passes the filter
type MatchMsg struct {
	N          int
	ScreenName string
	ID         string
	Text       string
	Likes      int
	Followers  int
}

// LikeMsg is sent after a like attempt
type LikeMsg struct {
	ID  string
	Err error
}

// RateLimitUpdateMsg is sent to update rate limit status
type RateLimitUpdateMsg struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mu.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.mu.Unlock()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tea.Batch(tickCmd(), m.spinner.Tick)

	case PollMsg:
		m.StartPoll(msg.Poll, msg.Cursor)
		return m, nil

	case MatchMsg:
		m.AddMatch(MatchItem{
			N:          msg.N,
			ID:         msg.ID,
			ScreenName: msg.ScreenName,
			Text:       msg.Text,
			Likes:      msg.Likes,
			Followers:  msg.Followers,
		})
		m.AddLogMessage("SUCCESS", fmt.Sprintf("#%d @%s", msg.N, msg.ScreenName))
		return m, nil

	case LikeMsg:
		m.SetLikeResult(msg.ID, msg.Err)
		if msg.Err != nil {
			m.AddLogMessage("ERROR", "Like failed: "+msg.ID+" - "+msg.Err.Error())
		}
		return m, nil

	case RateLimitUpdateMsg:
		m.UpdateRateLimit(msg.Remaining, msg.Limit, msg.ResetAt)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "p", "P":
		m.mu.Lock()
		m.isPaused = !m.isPaused
		paused := m.isPaused
		m.mu.Unlock()
		if paused {
			m.AddLogMessage("WARN", "Hunt paused by user")
		} else {
			m.AddLogMessage("INFO", "Hunt resumed by user")
		}
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = nil
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
