package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetNoColor(true)
	t.Cleanup(func() {
		SetOutput(nil)
		SetQuietMode(false)
		SetNoColor(false)
	})
	return &buf
}

func TestQuietMode(t *testing.T) {
	buf := capture(t)

	SetQuietMode(true)
	assert.True(t, IsQuietMode())
	PrintSuccess("done")
	PrintInfo("Query", "#100DaysOfCode")
	PrintWarning("slow")
	PrintLogo()
	assert.Empty(t, buf.String())

	PrintError("failed", errors.New("boom"))
	Println("1 hello")
	assert.Equal(t, "failed: boom\n1 hello\n", buf.String())
}

func TestNoColor(t *testing.T) {
	capture(t)
	assert.Equal(t, "x", Red("x"))

	SetNoColor(false)
	assert.Equal(t, "\033[31mx\033[0m", Red("x"))
}

func TestBar(t *testing.T) {
	assert.Equal(t, "██░░", Bar(1, 2, 4))
	assert.Equal(t, "████", Bar(9, 2, 4))
	assert.Equal(t, "░░░░", Bar(1, 0, 4))
	assert.Equal(t, "", Bar(1, 1, 0))
}

func TestStatusTracker(t *testing.T) {
	st := NewStatusTracker()
	st.SetCount(10)
	assert.Equal(t, 11, st.IncrementCount())
	st.PageDone()
	assert.Contains(t, st.Summary(), "11 statuses in 1 pages")
}

func TestProgressDisplay(t *testing.T) {
	buf := capture(t)

	p := NewProgressDisplay("#100DaysOfCode", 2, true)
	p.ScanningPage(1, "")
	p.Scanned(100)
	p.Match("alice", "Day 3\nof code")
	p.Liked("10", nil)
	p.Liked("11", errors.New("forbidden"))
	p.RateLimitWarning(2, 90*time.Second)
	p.Complete("out/report.html")

	out := buf.String()
	assert.Contains(t, out, "Scanning page 1")
	assert.Contains(t, out, "@alice • Day 3 of code")
	assert.Contains(t, out, "Like failed: 11 - forbidden")
	assert.Contains(t, out, "Waiting 1m30s")
	assert.Contains(t, out, "Found 1 of 2 tweets")
	assert.Contains(t, out, "1 liked, 1 failed")
	assert.Contains(t, out, "report: out/report.html")
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

func TestNotifier(t *testing.T) {
	buf := capture(t)

	n := NewNotifier("desktop")
	rec := &recordingSender{}
	n.SetSender(rec)
	n.SendSuccess("Hunt complete", "20 tweets")
	n.SendError("Hunt failed", "boom")
	assert.Equal(t, []string{"Hunt complete", "Hunt failed"}, rec.titles)
	assert.Contains(t, buf.String(), "Hunt complete: 20 tweets")

	buf.Reset()
	silent := NewNotifier("none")
	silent.SetSender(rec)
	silent.SendNotification("x", "y")
	assert.Empty(t, buf.String())
	assert.Len(t, rec.titles, 2)

	assert.Equal(t, KindTerminal, NewNotifier("").kind)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", formatDuration(5*time.Second))
	assert.Equal(t, "2m3s", formatDuration(123*time.Second))
	assert.Equal(t, "1h1m", formatDuration(61*time.Minute))
}
