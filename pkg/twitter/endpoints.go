package twitter

import (
	"fmt"
	"strings"

	"github.com/google/go-querystring/query"
)

const (
	// BaseURL is the v1.1 REST API root
	BaseURL = "https://api.twitter.com/1.1/"

	RateLimitStatusEndpoint = "application/rate_limit_status.json"
	SearchEndpoint          = "search/tweets.json"
	FavoritesCreateEndpoint = "favorites/create.json"
	UserTimelineEndpoint    = "statuses/user_timeline.json"

	// MaxSearchCount is the largest page search/tweets returns
	MaxSearchCount = 100

	// MaxTimelineCount is the largest page statuses/user_timeline returns
	MaxTimelineCount = 200
)

// Rate-limit resource families and the endpoint keys inside them.
const (
	ResourceSearch   = "search"
	ResourceStatuses = "statuses"

	SearchTweetsPath = "/search/tweets"
	UserTimelinePath = "/statuses/user_timeline"
)

// SearchParams are the query parameters of search/tweets.
type SearchParams struct {
	Query      string `url:"q"`
	Count      int    `url:"count,omitempty"`
	Lang       string `url:"lang,omitempty"`
	ResultType string `url:"result_type,omitempty"`
	MaxID      string `url:"max_id,omitempty"`
	TweetMode  string `url:"tweet_mode,omitempty"`
}

// TimelineParams are the query parameters of statuses/user_timeline.
type TimelineParams struct {
	ScreenName      string `url:"screen_name"`
	Count           int    `url:"count,omitempty"`
	TrimUser        bool   `url:"trim_user,omitempty"`
	IncludeRetweets *bool  `url:"include_rts,omitempty"`
	MaxID           string `url:"max_id,omitempty"`
	TweetMode       string `url:"tweet_mode,omitempty"`
}

// RateLimitParams selects which resource families to report.
type RateLimitParams struct {
	Resources []string `url:"resources,comma,omitempty"`
}

type likeParams struct {
	ID string `url:"id"`
}

// Bool returns a pointer to b, for optional boolean parameters.
func Bool(b bool) *bool { return &b }

// buildURL joins base and path and appends params encoded by go-querystring.
func buildURL(base, path string, params interface{}) (string, error) {
	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	if params == nil {
		return u, nil
	}
	values, err := query.Values(params)
	if err != nil {
		return "", fmt.Errorf("encode %s params: %w", path, err)
	}
	if encoded := values.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u, nil
}
