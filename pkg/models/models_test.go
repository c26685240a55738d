package models

import (
	"testing"

	gotwitter "github.com/dghubble/go-twitter/twitter"
	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	s := &gotwitter.Tweet{
		IDStr:         "123",
		CreatedAt:     "Wed Mar 13 09:06:07 +0000 2013",
		FavoriteCount: 2,
		Text:          "truncated…",
		FullText:      "Day 12 of #100DaysOfCode",
		User: &gotwitter.User{
			ScreenName:     "alice",
			FollowersCount: 120,
			FriendsCount:   80,
		},
	}

	got := FromStatus(s)
	assert.Equal(t, Tweet{
		ID:             "123",
		Created:        "Wed Mar 13 09:06:07 +0000 2013",
		Likes:          2,
		Text:           "Day 12 of #100DaysOfCode",
		UserScreenName: "alice",
		UserFollowers:  120,
		UserFriends:    80,
	}, got)
	assert.Equal(t, "https://twitter.com/alice/status/123", got.URL())
}

func TestFromStatusWithoutUser(t *testing.T) {
	got := FromStatus(&gotwitter.Tweet{IDStr: "1", Text: "d1 hello"})
	assert.Equal(t, "d1 hello", got.Text)
	assert.Empty(t, got.UserScreenName)
}
