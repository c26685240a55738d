package hunter

import (
	"fmt"
	"time"

	"tweetbot/pkg/config"
	"tweetbot/pkg/filter"
	"tweetbot/pkg/ratelimit"
)

// Mode selects what happens to a match.
type Mode string

const (
	// ModeReport only collects matches.
	ModeReport Mode = "report"
	// ModeLike collects matches and likes each one.
	ModeLike Mode = "like"
)

// ParseMode accepts "report" or "like"; empty means ModeReport.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeReport:
		return ModeReport, nil
	case ModeLike:
		return ModeLike, nil
	}
	return "", fmt.Errorf("unknown mode %q (want report or like)", s)
}

// Options configures a Hunter.
type Options struct {
	Query      string
	Lang       string
	ResultType string
	Count      int

	// Target is the number of matches that ends the run.
	Target int
	// MaxPolls bounds the number of search pages. Zero means no bound.
	MaxPolls int

	Mode     Mode
	Criteria filter.Criteria
	Budget   ratelimit.Budget

	PollDelay  time.Duration
	LikeDelay  time.Duration
	LikeJitter time.Duration
}

// DefaultOptions mirrors the bot's historical behaviour.
func DefaultOptions() Options {
	return Options{
		Query:  "#100DaysOfCode",
		Lang:   "en",
		Count:  100,
		Target: 20,
		Mode:   ModeReport,

		Criteria: filter.DefaultCriteria(),
		Budget: ratelimit.Budget{
			MinRemaining: 5,
			Fallback:     time.Minute,
			MaxWait:      15 * time.Minute,
			Slack:        time.Second,
		},

		PollDelay:  time.Second,
		LikeDelay:  time.Second,
		LikeJitter: 5 * time.Second,
	}
}

// OptionsFromConfig builds Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Query:      cfg.Search.Query,
		Lang:       cfg.Search.Lang,
		ResultType: cfg.Search.ResultType,
		Count:      cfg.Search.Count,
		Target:     cfg.Search.TargetMatches,
		MaxPolls:   cfg.Search.MaxPolls,
		Mode:       ModeReport,
		Criteria: filter.Criteria{
			MaxLikes:              cfg.Filter.MaxLikes,
			MaxFollowers:          cfg.Filter.MaxFollowers,
			ExcludeRetweets:       cfg.Filter.ExcludeRetweets,
			ExcludeReplies:        cfg.Filter.ExcludeReplies,
			RequireProgressReport: cfg.Filter.RequireProgressReport,
		},
		Budget: ratelimit.Budget{
			MinRemaining: cfg.RateLimit.MinRemaining,
			Fallback:     cfg.RateLimit.WaitInterval,
			MaxWait:      cfg.RateLimit.MaxWait,
			Slack:        time.Second,
		},
		PollDelay:  cfg.RateLimit.PollDelay,
		LikeDelay:  cfg.Like.MinDelay,
		LikeJitter: cfg.Like.MaxJitter,
	}
	if cfg.Like.Enabled {
		opts.Mode = ModeLike
	}
	return opts
}

func (o Options) validate() error {
	if o.Query == "" {
		return fmt.Errorf("query is required")
	}
	if o.Target <= 0 {
		return fmt.Errorf("target must be positive, got %d", o.Target)
	}
	if o.Mode != ModeReport && o.Mode != ModeLike {
		return fmt.Errorf("unknown mode %q", o.Mode)
	}
	return nil
}
