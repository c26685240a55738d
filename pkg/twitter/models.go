package twitter

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	gotwitter "github.com/dghubble/go-twitter/twitter"
)

// Status is a v1.1 tweet object as returned by search and timelines.
type Status = gotwitter.Tweet

// User is the author object embedded in a Status.
type User = gotwitter.User

// SearchResponse is the search/tweets envelope.
type SearchResponse = gotwitter.Search

// Limit is one endpoint's entry in the rate-limit status response.
type Limit struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// ResetTime converts the unix reset timestamp; zero when absent.
func (l Limit) ResetTime() time.Time {
	if l.Reset <= 0 {
		return time.Time{}
	}
	return time.Unix(l.Reset, 0)
}

// RateLimitStatus is the application/rate_limit_status response.
type RateLimitStatus struct {
	Resources map[string]map[string]Limit `json:"resources"`
}

// Endpoint looks up one endpoint, e.g. Endpoint("search", "/search/tweets").
func (r *RateLimitStatus) Endpoint(resource, path string) (Limit, bool) {
	if r == nil {
		return Limit{}, false
	}
	family, ok := r.Resources[resource]
	if !ok {
		return Limit{}, false
	}
	l, ok := family[path]
	return l, ok
}

// Text returns the full text of s, which lives in full_text when the
// request asked for extended mode.
func Text(s *Status) string {
	if s.FullText != "" {
		return s.FullText
	}
	return s.Text
}

// createdAtLayout is the timestamp format the v1.1 API uses, e.g.
// "Wed Mar 13 09:06:07 +0000 2013".
const createdAtLayout = time.RubyDate

// ParseCreatedAt parses a created_at value. Formats other than the API's own
// are accepted through dateparse so imported archives also work.
func ParseCreatedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(createdAtLayout, s); err == nil {
		return t, nil
	}
	return dateparse.ParseAny(s)
}
