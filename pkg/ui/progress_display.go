package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay is the single-line hunt progress shown when no dashboard runs
type ProgressDisplay struct {
	mu        sync.Mutex
	query     string
	target    int
	matches   int
	scanned   int
	polls     int
	liked     int
	likeFails int
	startTime time.Time
	isDebug   bool
}

// NewProgressDisplay creates a new progress display
func NewProgressDisplay(query string, target int, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		query:     query,
		target:    target,
		startTime: time.Now(),
		isDebug:   debug,
	}
}

// ScanningPage announces the next search page.
func (p *ProgressDisplay) ScanningPage(poll int, cursor string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.polls = poll
	if p.isDebug {
		printf("\n%s Scanning page %d (max_id=%s)...\n", Magenta("→"), poll, cursor)
		return
	}
	p.printProgress()
}

// Scanned adds n statuses to the scanned count.
func (p *ProgressDisplay) Scanned(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.scanned += n
	if !p.isDebug {
		p.printProgress()
	}
}

// Match records a matched tweet.
func (p *ProgressDisplay) Match(screenName, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.matches++
	if p.isDebug {
		printf("\n%s @%s • %s\n", Green("✓"), screenName, Dim(truncate(text, 50)))
		return
	}
	p.printProgress()
}

// Liked records the outcome of a like.
func (p *ProgressDisplay) Liked(id string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.likeFails++
		if p.isDebug {
			printf("\n%s Like failed: %s - %v\n", Red("✗"), id, err)
		}
	} else {
		p.liked++
	}
	if !p.isDebug {
		p.printProgress()
	}
}

// printProgress prints the minimal progress line
func (p *ProgressDisplay) printProgress() {
	if IsQuietMode() {
		return
	}
	line := fmt.Sprintf("\r%s [%s] %d/%d • page %d • %d scanned • %s",
		Cyan(p.query),
		Bar(p.matches, p.target, 20),
		p.matches,
		p.target,
		p.polls,
		p.scanned,
		formatDuration(time.Since(p.startTime)),
	)
	if p.liked > 0 {
		line += fmt.Sprintf(" • ♥ %d", p.liked)
	}
	if p.likeFails > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d like errors", p.likeFails)))
	}

	printf("\r%s\r%s", strings.Repeat(" ", 120), line)
}

// RateLimitWarning shows a rate limit warning
func (p *ProgressDisplay) RateLimitWarning(remaining int, waitTime time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if IsQuietMode() {
		return
	}
	printf("\n%s Out of search budget (%d left). Waiting %s...\n",
		Yellow("⚠"),
		remaining,
		formatDuration(waitTime),
	)
}

// Complete prints the run summary
func (p *ProgressDisplay) Complete(reportPath string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if IsQuietMode() {
		return
	}
	elapsed := time.Since(p.startTime)
	printf("\n\n%s Found %d of %d tweets for %s\n", Green("✓"), p.matches, p.target, p.query)
	printf("  %s %d statuses over %d pages in %s\n", Dim("•"), p.scanned, p.polls, formatDuration(elapsed))
	if p.liked > 0 || p.likeFails > 0 {
		printf("  %s %d liked, %d failed\n", Dim("•"), p.liked, p.likeFails)
	}
	if reportPath != "" {
		printf("  %s report: %s\n", Dim("•"), reportPath)
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
