package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LikeState tracks whether a matched tweet was liked
type LikeState int

const (
	LikeNone LikeState = iota
	LikeDone
	LikeFailed
)

// MatchItem is one accepted tweet
type MatchItem struct {
	N          int
	ID         string
	ScreenName string
	Text       string
	Likes      int
	Followers  int
	Like       LikeState
	Err        error
}

// Model represents the TUI model
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	query      string
	target     int
	matches    []*MatchItem
	byID       map[string]*MatchItem
	poll       int
	cursor     string
	liked      int
	likeFailed int
	startTime  time.Time

	rateLimitRemaining int
	rateLimitMax       int
	rateLimitResetAt   time.Time

	width          int
	height         int
	showHelp       bool
	isPaused       bool
	logMessages    []LogMessage
	maxLogMessages int

	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a new TUI model
func NewModel(query string, target int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(skyBlue)

	bar := progress.New(progress.WithGradient(string(skyBlue), string(leafGreen)))
	bar.Width = 40

	return &Model{
		spinner:        s,
		bar:            bar,
		query:          query,
		target:         target,
		byID:           make(map[string]*MatchItem),
		startTime:      time.Now(),
		maxLogMessages: 50,
		rateLimitMax:   180,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// StartPoll records the page currently being fetched
func (m *Model) StartPoll(poll int, cursor string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.poll = poll
	m.cursor = cursor
}

// AddMatch appends an accepted tweet
func (m *Model) AddMatch(item MatchItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it := item
	m.matches = append(m.matches, &it)
	m.byID[it.ID] = &it
}

// SetLikeResult marks a match as liked or failed
func (m *Model) SetLikeResult(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.byID[id]
	if !ok {
		return
	}
	if err != nil {
		item.Like = LikeFailed
		item.Err = err
		m.likeFailed++
		return
	}
	item.Like = LikeDone
	m.liked++
}

// UpdateRateLimit updates the rate limit status
func (m *Model) UpdateRateLimit(remaining, limit int, resetAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rateLimitRemaining = remaining
	if limit > 0 {
		m.rateLimitMax = limit
	}
	m.rateLimitResetAt = resetAt
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	color := dimWhite
	switch level {
	case "ERROR":
		color = alertRed
	case "WARN":
		color = amber
	case "SUCCESS":
		color = leafGreen
	case "INFO":
		color = skyBlue
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Paused reports whether the user paused the hunt
func (m *Model) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// Matches returns a copy of the accepted tweets, oldest first
func (m *Model) Matches() []MatchItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]MatchItem, len(m.matches))
	for i, it := range m.matches {
		out[i] = *it
	}
	return out
}

// Progress returns the fraction of the target found so far
func (m *Model) Progress() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.progressLocked()
}

func (m *Model) progressLocked() float64 {
	if m.target <= 0 {
		return 0
	}
	p := float64(len(m.matches)) / float64(m.target)
	if p > 1 {
		p = 1
	}
	return p
}

// RateLimitUsage returns the percentage of the search window already spent
func (m *Model) RateLimitUsage() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rateLimitUsageLocked()
}

func (m *Model) rateLimitUsageLocked() float64 {
	if m.rateLimitMax <= 0 {
		return 0
	}
	used := m.rateLimitMax - m.rateLimitRemaining
	if used < 0 {
		used = 0
	}
	return float64(used) / float64(m.rateLimitMax) * 100
}
