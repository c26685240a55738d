// Package filter decides which search results are worth a look: fresh
// "day N" progress reports from small accounts that nobody has engaged with.
package filter

import (
	"regexp"
	"strings"

	gotwitter "github.com/dghubble/go-twitter/twitter"
)

var (
	retweetPattern  = regexp.MustCompile(`(?i)^RT`)
	hashtagPattern  = regexp.MustCompile(`#[\w\d]+`)
	progressPattern = regexp.MustCompile(`(?i)(d|day)\s*\d{1,3}\s+`)
)

// Reason names the predicate that rejected a status.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonRetweet          Reason = "retweet"
	ReasonReply            Reason = "reply"
	ReasonNotProgress      Reason = "not_progress_report"
	ReasonTooManyLikes     Reason = "too_many_likes"
	ReasonTooManyFollowers Reason = "too_many_followers"
	ReasonSeenAuthor       Reason = "seen_author"
	ReasonNoAuthor         Reason = "no_author"
)

// IsRetweet reports whether text is a manual or native retweet.
func IsRetweet(text string) bool {
	return retweetPattern.MatchString(text)
}

// IsProgressReport reports whether text, hashtags removed, mentions a day
// count such as "Day 12 " or "d5 ".
func IsProgressReport(text string) bool {
	return progressPattern.MatchString(hashtagPattern.ReplaceAllString(text, ""))
}

// IsReply reports whether s answers another status.
func IsReply(s *gotwitter.Tweet) bool {
	return s.InReplyToStatusIDStr != ""
}

// Criteria are the thresholds a status must stay under to match.
type Criteria struct {
	MaxLikes              int
	MaxFollowers          int
	ExcludeRetweets       bool
	ExcludeReplies        bool
	RequireProgressReport bool
}

// DefaultCriteria matches progress reports with fewer than 5 likes from
// accounts with fewer than 500 followers.
func DefaultCriteria() Criteria {
	return Criteria{
		MaxLikes:              5,
		MaxFollowers:          500,
		ExcludeRetweets:       true,
		ExcludeReplies:        true,
		RequireProgressReport: true,
	}
}

// Match reports whether s passes every enabled predicate. When it does not,
// the returned Reason names the first one that failed.
func (c Criteria) Match(s *gotwitter.Tweet, seen AuthorSet) (bool, Reason) {
	text := s.FullText
	if text == "" {
		text = s.Text
	}

	switch {
	case s.User == nil:
		return false, ReasonNoAuthor
	case c.ExcludeRetweets && (IsRetweet(text) || s.RetweetedStatus != nil):
		return false, ReasonRetweet
	case c.ExcludeReplies && IsReply(s):
		return false, ReasonReply
	case c.RequireProgressReport && !IsProgressReport(text):
		return false, ReasonNotProgress
	case s.FavoriteCount >= c.MaxLikes:
		return false, ReasonTooManyLikes
	case s.User.FollowersCount >= c.MaxFollowers:
		return false, ReasonTooManyFollowers
	case seen != nil && seen.Has(s.User.ScreenName):
		return false, ReasonSeenAuthor
	}
	return true, ReasonNone
}

// AuthorSet answers whether an author was already picked.
type AuthorSet interface {
	Has(screenName string) bool
}

// Authors is an in-memory AuthorSet. Screen names compare case-insensitively.
type Authors map[string]struct{}

// Add records screenName.
func (a Authors) Add(screenName string) {
	a[strings.ToLower(screenName)] = struct{}{}
}

// Has implements AuthorSet.
func (a Authors) Has(screenName string) bool {
	_, ok := a[strings.ToLower(screenName)]
	return ok
}

// AnyOf is an AuthorSet that contains an author when any member set does.
type AnyOf []AuthorSet

// Has implements AuthorSet.
func (sets AnyOf) Has(screenName string) bool {
	for _, s := range sets {
		if s != nil && s.Has(screenName) {
			return true
		}
	}
	return false
}
