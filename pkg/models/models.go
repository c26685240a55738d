package models

import (
	"fmt"

	gotwitter "github.com/dghubble/go-twitter/twitter"
)

// Tweet is a matched status as kept for one run and written to the report.
type Tweet struct {
	ID             string `json:"id"`
	Created        string `json:"created"`
	Likes          int    `json:"likes"`
	Text           string `json:"text"`
	UserScreenName string `json:"user_screen_name"`
	UserFollowers  int    `json:"user_followers"`
	UserFriends    int    `json:"user_friends"`
}

// FromStatus copies the reported fields out of an API status.
func FromStatus(s *gotwitter.Tweet) Tweet {
	t := Tweet{
		ID:      s.IDStr,
		Created: s.CreatedAt,
		Likes:   s.FavoriteCount,
		Text:    s.FullText,
	}
	if t.Text == "" {
		t.Text = s.Text
	}
	if s.User != nil {
		t.UserScreenName = s.User.ScreenName
		t.UserFollowers = s.User.FollowersCount
		t.UserFriends = s.User.FriendsCount
	}
	return t
}

// URL is the public link to the tweet.
func (t Tweet) URL() string {
	return fmt.Sprintf("https://twitter.com/%s/status/%s", t.UserScreenName, t.ID)
}
