// Package timeline pages backwards through one account's timeline and emits
// a line per status, checkpointing the cursor so a walk can be resumed.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tweetbot/pkg/checkpoint"
	"tweetbot/pkg/config"
	"tweetbot/pkg/logger"
	"tweetbot/pkg/ratelimit"
	"tweetbot/pkg/twitter"
	"tweetbot/pkg/ui"
)

// ErrCheckpointExists is returned when a previous walk was interrupted and
// the caller asked neither to resume nor to restart.
var ErrCheckpointExists = errors.New("checkpoint exists - use --resume to continue or --force-restart to start fresh")

// API is the part of the Twitter client a walk needs.
type API interface {
	RateLimitStatus(ctx context.Context, resources ...string) (*twitter.RateLimitStatus, error)
	UserTimeline(ctx context.Context, params twitter.TimelineParams) ([]twitter.Status, error)
}

// Options configures a Walker.
type Options struct {
	PageSize int
	// MinRemaining is the timeline budget that must be exceeded before a
	// page is fetched.
	MinRemaining int
	PageDelay    time.Duration
	MaxWait      time.Duration
	MaxLength    int
}

// OptionsFromConfig builds Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PageSize:     cfg.Timeline.PageSize,
		MinRemaining: cfg.Timeline.MinRemaining,
		PageDelay:    cfg.Timeline.PageDelay,
		MaxWait:      cfg.RateLimit.MaxWait,
		MaxLength:    cfg.Timeline.MaxLength,
	}
}

// Request selects the account and how to treat an existing checkpoint.
type Request struct {
	ScreenName   string
	Resume       bool
	ForceRestart bool
}

// Summary describes a finished or interrupted walk.
type Summary struct {
	Count   int
	Pages   int
	Cursor  string
	Resumed bool
}

// Walker runs timeline walks.
type Walker struct {
	api         API
	opts        Options
	logger      logger.Logger
	checkpoints *checkpoint.Manager
	tracker     *ui.StatusTracker

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates a Walker. log may be nil.
func New(api API, opts Options, log logger.Logger) *Walker {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Walker{
		api:     api,
		opts:    opts,
		logger:  log.WithField("component", "timeline"),
		tracker: ui.NewStatusTracker(),
		sleep:   ratelimit.Sleep,
		now:     time.Now,
	}
}

// SetCheckpoint enables resumable walks.
func (w *Walker) SetCheckpoint(m *checkpoint.Manager) { w.checkpoints = m }

// Tracker exposes walk progress.
func (w *Walker) Tracker() *ui.StatusTracker { return w.tracker }

func (w *Walker) budget() ratelimit.Budget {
	return ratelimit.Budget{
		MinRemaining: w.opts.MinRemaining + 1,
		Fallback:     w.opts.PageDelay,
		MaxWait:      w.opts.MaxWait,
		Slack:        time.Second,
	}
}

// Walk emits every status of req.ScreenName, newest first, until the
// timeline is exhausted, emit fails, or ctx is done.
func (w *Walker) Walk(ctx context.Context, req Request, emit func(Line) error) (*Summary, error) {
	sum := &Summary{}
	cp, err := w.start(req, sum)
	if err != nil {
		return sum, err
	}

	log := w.logger.WithField("screen_name", req.ScreenName)
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		ready, err := w.checkBudget(ctx)
		if err != nil {
			return sum, err
		}
		if !ready {
			continue
		}

		page, err := w.api.UserTimeline(ctx, twitter.TimelineParams{
			ScreenName:      req.ScreenName,
			Count:           w.opts.PageSize,
			TrimUser:        true,
			IncludeRetweets: twitter.Bool(false),
			MaxID:           sum.Cursor,
		})
		if err != nil {
			return sum, fmt.Errorf("timeline page %d: %w", sum.Pages+1, err)
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			sum.Count++
			w.tracker.IncrementCount()
			if err := emit(NewLine(&page[i], sum.Count, w.opts.MaxLength)); err != nil {
				return sum, err
			}
			sum.Cursor = twitter.DecrementID(page[i].IDStr)
		}
		sum.Pages++
		w.tracker.PageDone()

		log.DebugWithFields("Timeline page emitted", map[string]interface{}{
			"page":     sum.Pages,
			"statuses": len(page),
			"count":    sum.Count,
			"max_id":   sum.Cursor,
		})

		if w.checkpoints != nil && cp != nil {
			if err := w.checkpoints.UpdateProgress(cp, sum.Cursor, sum.Count); err != nil {
				log.WithError(err).Warn("Failed to save checkpoint")
			}
		}
		if sum.Cursor == "" {
			break
		}
		if err := w.sleep(ctx, w.opts.PageDelay); err != nil {
			return sum, err
		}
	}

	if w.checkpoints != nil {
		if err := w.checkpoints.Delete(); err != nil {
			log.WithError(err).Warn("Failed to remove checkpoint")
		}
	}
	log.InfoWithFields("Timeline walk complete", map[string]interface{}{
		"count": sum.Count,
		"pages": sum.Pages,
	})
	return sum, nil
}

// start applies the checkpoint policy and returns the checkpoint to update.
func (w *Walker) start(req Request, sum *Summary) (*checkpoint.Checkpoint, error) {
	if w.checkpoints == nil {
		return nil, nil
	}

	if req.ForceRestart {
		if err := w.checkpoints.Delete(); err != nil {
			return nil, err
		}
	} else if w.checkpoints.Exists() {
		if !req.Resume {
			return nil, ErrCheckpointExists
		}
		cp, err := w.checkpoints.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp != nil {
			sum.Cursor = cp.MaxID
			sum.Count = cp.Count
			sum.Resumed = true
			w.tracker.SetCount(cp.Count)
			return cp, nil
		}
	}

	cp, err := w.checkpoints.Create(req.ScreenName)
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// checkBudget waits when the timeline window is nearly spent and reports
// whether a page may be fetched now.
func (w *Walker) checkBudget(ctx context.Context) (bool, error) {
	status, err := w.api.RateLimitStatus(ctx, twitter.ResourceStatuses)
	if err != nil {
		return false, fmt.Errorf("rate limit status: %w", err)
	}
	limit, ok := status.Endpoint(twitter.ResourceStatuses, twitter.UserTimelinePath)
	if !ok {
		return true, nil
	}

	wait := w.budget().Check(ratelimit.Window{
		Limit:     limit.Limit,
		Remaining: limit.Remaining,
		Reset:     limit.ResetTime(),
	}, w.now())
	if wait <= 0 {
		return true, nil
	}

	logger.LogRateLimit(w.logger, twitter.ResourceStatuses, limit.Remaining, wait)
	return false, w.sleep(ctx, wait)
}
