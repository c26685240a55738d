package timeline

import (
	"fmt"
	"strings"
	"time"

	"tweetbot/pkg/twitter"
)

// Line is one emitted timeline entry.
type Line struct {
	Created time.Time
	// RawCreated is used when Created could not be parsed.
	RawCreated string
	N          int
	ID         string
	Text       string
}

// String renders the line as
// "<RFC3339 created> c=<n> id=<id> msg=(<text>)".
func (l Line) String() string {
	created := l.RawCreated
	if !l.Created.IsZero() {
		created = l.Created.Format(time.RFC3339)
	}
	return fmt.Sprintf("%s c=%d id=%s msg=(%s)", created, l.N, l.ID, l.Text)
}

// NewLine builds the line for the n-th status, keeping at most maxLen runes
// of its text with newlines flattened to spaces.
func NewLine(s *twitter.Status, n, maxLen int) Line {
	l := Line{
		N:    n,
		ID:   s.IDStr,
		Text: Snippet(twitter.Text(s), maxLen),
	}
	if t, err := twitter.ParseCreatedAt(s.CreatedAt); err == nil {
		l.Created = t
	} else {
		l.RawCreated = s.CreatedAt
	}
	return l
}

// Snippet flattens newlines and cuts text to maxLen runes. maxLen <= 0 keeps
// everything.
func Snippet(text string, maxLen int) string {
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
	r := []rune(text)
	if maxLen > 0 && len(r) > maxLen {
		r = r[:maxLen]
	}
	return string(r)
}
