package twitter

import (
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreatedAt(t *testing.T) {
	got, err := ParseCreatedAt("Wed Mar 13 09:06:07 +0000 2013")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2013, 3, 13, 9, 6, 7, 0, time.UTC), got.UTC())

	got, err = ParseCreatedAt("2013-03-13T09:06:07Z")
	require.NoError(t, err)
	assert.Equal(t, 2013, got.Year())

	_, err = ParseCreatedAt("???")
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	assert.Equal(t, "full", Text(&Status{Text: "short", FullText: "full"}))
	assert.Equal(t, "short", Text(&Status{Text: "short"}))
}

func TestLimitResetTime(t *testing.T) {
	assert.True(t, Limit{}.ResetTime().IsZero())
	assert.Equal(t, int64(1700000000), Limit{Reset: 1700000000}.ResetTime().Unix())
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		params   interface{}
		path     string
		expected string
	}{
		{
			name:     "search",
			path:     SearchEndpoint,
			params:   SearchParams{Query: "#100DaysOfCode", Count: 100, MaxID: "999"},
			expected: fmt.Sprintf("%s%s?count=100&max_id=999&q=%%23100DaysOfCode", BaseURL, SearchEndpoint),
		},
		{
			name:     "rate limit resources joined by comma",
			path:     RateLimitStatusEndpoint,
			params:   RateLimitParams{Resources: []string{"search", "statuses"}},
			expected: fmt.Sprintf("%s%s?resources=search%%2Cstatuses", BaseURL, RateLimitStatusEndpoint),
		},
		{
			name:     "timeline optional bool",
			path:     UserTimelineEndpoint,
			params:   TimelineParams{ScreenName: "alice", IncludeRetweets: Bool(false)},
			expected: fmt.Sprintf("%s%s?include_rts=false&screen_name=alice", BaseURL, UserTimelineEndpoint),
		},
		{
			name:     "no params",
			path:     "/" + SearchEndpoint,
			expected: BaseURL + SearchEndpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildURL(BaseURL, tt.path, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			_, err = url.Parse(got)
			assert.NoError(t, err)
		})
	}
}
