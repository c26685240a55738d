package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"tweetbot/pkg/models"
	"tweetbot/pkg/twitter"
)

// RunMetadata is the JSON sidecar written next to the HTML report.
type RunMetadata struct {
	Query       string    `json:"query"`
	Mode        string    `json:"mode"`
	GeneratedAt time.Time `json:"generated_at"`
	Polls       int       `json:"polls"`
	Scanned     int       `json:"scanned"`
	Liked       int       `json:"liked"`
	Cursor      string    `json:"cursor,omitempty"`

	Matches []TweetMetadata `json:"matches"`
}

// TweetMetadata is one matched tweet with its derived fields.
type TweetMetadata struct {
	models.Tweet
	URL       string     `json:"url"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Liked     bool       `json:"liked"`
}

// FromTweets builds the sidecar for a run. liked holds the ids that were
// favorited successfully.
func FromTweets(query, mode string, tweets []models.Tweet, liked map[string]bool) *RunMetadata {
	meta := &RunMetadata{
		Query:       query,
		Mode:        mode,
		GeneratedAt: time.Now().UTC(),
		Matches:     make([]TweetMetadata, 0, len(tweets)),
	}
	for _, t := range tweets {
		tm := TweetMetadata{
			Tweet: t,
			URL:   t.URL(),
			Liked: liked[t.ID],
		}
		if created, err := twitter.ParseCreatedAt(t.Created); err == nil {
			created = created.UTC()
			tm.CreatedAt = &created
		}
		meta.Matches = append(meta.Matches, tm)
	}
	return meta
}

// Load reads a sidecar written by an earlier run.
func Load(path string) (*RunMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// Authors returns the screen names of all matches, in order.
func (m *RunMetadata) Authors() []string {
	out := make([]string, 0, len(m.Matches))
	for _, t := range m.Matches {
		out = append(out, t.UserScreenName)
	}
	return out
}

// FormattedText returns the tweet text on one line, cut to maxLength runes.
func (t TweetMetadata) FormattedText(maxLength int) string {
	text := strings.Join(strings.Fields(t.Text), " ")
	runes := []rune(text)
	if maxLength > 3 && len(runes) > maxLength {
		return string(runes[:maxLength-3]) + "..."
	}
	return text
}
