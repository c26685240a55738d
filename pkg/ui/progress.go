package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// Bar draws done/total as a fixed-width bar.
func Bar(done, total, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
}

// StatusTracker counts statuses printed by a timeline walk
type StatusTracker struct {
	Count     int
	Pages     int
	StartTime time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		StartTime: time.Now(),
	}
}

// IncrementCount records one more emitted status.
func (st *StatusTracker) IncrementCount() int {
	st.Count++
	return st.Count
}

// PageDone records a finished page.
func (st *StatusTracker) PageDone() {
	st.Pages++
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetRate returns the average rate in statuses per minute
func (st *StatusTracker) GetRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Count) / elapsed
}

// Summary is a one-line description of the walk so far.
func (st *StatusTracker) Summary() string {
	return fmt.Sprintf("%d statuses in %d pages (%.1f/min)", st.Count, st.Pages, st.GetRate())
}

// SetCount sets the count when resuming from a checkpoint.
func (st *StatusTracker) SetCount(count int) {
	st.Count = count
}
