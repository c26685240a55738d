package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const logo = `
╔═══════════════════════════════════════════════╗
║  ▀█▀ █ █ █ █▀▀ █▀▀ ▀█▀   █▀▄ █▀█ ▀█▀          ║
║   █  ▀▄▀▄▀ ██▄ ██▄  █    █▄█ █▄█  █           ║
║        quiet #100DaysOfCode check-ins         ║
╚═══════════════════════════════════════════════╝`

// View renders the entire TUI
func (m *Model) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, logoStyle.Width(m.width).Render(logo))

	width := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderMatchesPanel(width),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRateLimitPanel(width),
		m.renderLogsPanel(width),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func label(name, value string) string {
	return fmt.Sprintf("%s %s", statsLabelStyle.Render(name), statsValueStyle.Render(value))
}

func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" HUNT ")

	bar := m.bar
	bar.Width = width - 8
	if bar.Width < 10 {
		bar.Width = 10
	}

	stats := []string{
		label("Query:", m.query),
		label("Found:", fmt.Sprintf("%d / %d", len(m.matches), m.target)),
		bar.ViewAs(m.progressLocked()),
		label("Page:", fmt.Sprintf("%s %d", m.spinner.View(), m.poll)),
		label("Cursor:", orDash(m.cursor)),
		label("Elapsed:", formatDuration(time.Since(m.startTime))),
	}
	if m.liked > 0 || m.likeFailed > 0 {
		stats = append(stats, label("Liked:", fmt.Sprintf("%d (%d failed)", m.liked, m.likeFailed)))
	}
	if m.isPaused {
		stats = append(stats, warningStyle.Render("⏸  PAUSED"))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

func (m *Model) renderMatchesPanel(width int) string {
	title := titleStyle.Render(" MATCHES ")

	if len(m.matches) == 0 {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("Nothing yet")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	start := len(m.matches) - 8
	if start < 0 {
		start = 0
	}
	var rows []string
	for _, it := range m.matches[start:] {
		rows = append(rows, m.renderMatch(it, width-6))
	}
	if start > 0 {
		rows = append([]string{lipgloss.NewStyle().Foreground(dimWhite).Render(fmt.Sprintf("  ... %d earlier", start))}, rows...)
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
}

func (m *Model) renderMatch(it *MatchItem, width int) string {
	mark := " "
	switch it.Like {
	case LikeDone:
		mark = successStyle.Render("♥")
	case LikeFailed:
		mark = errorStyle.Render("✗")
	}
	head := fmt.Sprintf("%2d %s %s %s", it.N, mark, matchNameStyle.Render("@"+it.ScreenName),
		lipgloss.NewStyle().Foreground(dimWhite).Render(fmt.Sprintf("%d♡ %d followers", it.Likes, it.Followers)))
	text := clip(strings.Join(strings.Fields(it.Text), " "), width-4)
	return lipgloss.JoinVertical(lipgloss.Left, head, matchStyle.Render(text))
}

func (m *Model) renderRateLimitPanel(width int) string {
	title := titleStyle.Render(" SEARCH RATE LIMIT ")

	usage := m.rateLimitUsageLocked()
	barWidth := width - 8
	if barWidth < 1 {
		barWidth = 1
	}
	filled := int(usage * float64(barWidth) / 100)
	if filled > barWidth {
		filled = barWidth
	}

	barStyle := GetRateLimitStyle(usage)
	bar := barStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", barWidth-filled))

	resetIn := time.Until(m.rateLimitResetAt)
	if resetIn < 0 {
		resetIn = 0
	}

	content := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Remaining:"),
			barStyle.Render(fmt.Sprintf("%d/%d", m.rateLimitRemaining, m.rateLimitMax))),
		bar,
		label("Reset in:", formatDuration(resetIn)),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := logMessageStyle.Render(clip(log.Message, width-25))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No logs yet...")
	}

	logsHeight := m.height - 30
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Quit
    p/P      - Pause/Resume polling
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Matches:
    ` + successStyle.Render("♥") + `        - Liked
    ` + errorStyle.Render("✗") + `        - Like failed
`
	return panelStyle.Width(m.width).Render(help)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func clip(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// formatDuration formats a duration as mm:ss or hh:mm:ss
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
