package hunter

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand"
	"time"

	"tweetbot/pkg/errors"
	"tweetbot/pkg/filter"
	"tweetbot/pkg/logger"
	"tweetbot/pkg/metrics"
	"tweetbot/pkg/models"
	"tweetbot/pkg/ratelimit"
	"tweetbot/pkg/twitter"
	"tweetbot/pkg/ui"
)

const pausePoll = 500 * time.Millisecond

// API is the part of the Twitter client the loop needs.
type API interface {
	RateLimitStatus(ctx context.Context, resources ...string) (*twitter.RateLimitStatus, error)
	Search(ctx context.Context, params twitter.SearchParams) (*twitter.SearchResponse, error)
	Like(ctx context.Context, id string) error
}

// History remembers liked authors across runs.
type History interface {
	filter.AuthorSet
	RecordLike(ctx context.Context, t models.Tweet) error
}

// Progress receives line-mode progress updates.
type Progress interface {
	ScanningPage(poll int, cursor string)
	Scanned(n int)
	Match(screenName, text string)
	Liked(id string, err error)
	RateLimitWarning(remaining int, wait time.Duration)
}

// Result is what one run found.
type Result struct {
	Matches []models.Tweet
	Polls   int
	Scanned int
	Liked   int
	// LikedIDs holds the ids of matches that were liked successfully.
	LikedIDs map[string]bool
	// Cursor is the max_id the next page would have used.
	Cursor string
}

// Hunter runs the poll-filter-act loop.
type Hunter struct {
	api      API
	opts     Options
	logger   logger.Logger
	history  History
	metrics  *metrics.Metrics
	tui      ui.TUI
	progress Progress
	onWait   func(remaining int, wait time.Duration)

	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
	jitter func(n int64) int64
}

// New creates a Hunter. log may be nil.
func New(api API, opts Options, log logger.Logger) *Hunter {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Hunter{
		api:    api,
		opts:   opts,
		logger: log.WithField("component", "hunter"),
		sleep:  ratelimit.Sleep,
		now:    time.Now,
		jitter: rand.Int63n,
	}
}

// SetHistory adds cross-run author suppression and records likes.
func (h *Hunter) SetHistory(hist History) { h.history = hist }

// SetMetrics records loop activity into m.
func (h *Hunter) SetMetrics(m *metrics.Metrics) { h.metrics = m }

// SetTUI routes progress to a dashboard.
func (h *Hunter) SetTUI(t ui.TUI) { h.tui = t }

// SetProgress routes progress to a line display.
func (h *Hunter) SetProgress(p Progress) { h.progress = p }

// OnRateLimitWait registers a callback fired before each budget wait.
func (h *Hunter) OnRateLimitWait(fn func(remaining int, wait time.Duration)) { h.onWait = fn }

// Options returns the options the hunter runs with.
func (h *Hunter) Options() Options { return h.opts }

// Run polls until Target matches are found, the search is exhausted,
// MaxPolls is reached, or ctx is done. The partial result is returned with
// any error.
func (h *Hunter) Run(ctx context.Context) (*Result, error) {
	res := &Result{LikedIDs: make(map[string]bool)}
	if err := h.opts.validate(); err != nil {
		return res, err
	}

	logger.LogComponentStart("hunter", map[string]interface{}{
		"query":  h.opts.Query,
		"target": h.opts.Target,
		"mode":   string(h.opts.Mode),
	})

	matched := filter.Authors{}
	seen := filter.AnyOf{matched}
	if h.history != nil {
		seen = append(seen, h.history)
	}

	var err error
	stop := "target reached"
	for len(res.Matches) < h.opts.Target {
		if err = ctx.Err(); err != nil {
			stop = "cancelled"
			break
		}
		if h.opts.MaxPolls > 0 && res.Polls >= h.opts.MaxPolls {
			stop = "max polls reached"
			break
		}
		if err = h.waitWhilePaused(ctx); err != nil {
			stop = "cancelled"
			break
		}

		var waited bool
		waited, err = h.checkBudget(ctx)
		if err != nil {
			stop = "rate limit check failed"
			break
		}
		if waited {
			continue
		}

		res.Polls++
		h.pollStarted(res.Polls, res.Cursor)

		var page *twitter.SearchResponse
		page, err = h.api.Search(ctx, twitter.SearchParams{
			Query:      h.opts.Query,
			Count:      h.opts.Count,
			Lang:       h.opts.Lang,
			ResultType: h.opts.ResultType,
			MaxID:      res.Cursor,
		})
		if err != nil {
			if errors.Is(err, errors.ErrorTypeRateLimit) && ctx.Err() == nil {
				if err = h.waitForReset(ctx, err); err == nil {
					continue
				}
				stop = "cancelled"
				break
			}
			stop = "search failed"
			err = fmt.Errorf("search page %d: %w", res.Polls, err)
			break
		}

		if page == nil || len(page.Statuses) == 0 {
			h.logger.InfoWithFields("Search exhausted", map[string]interface{}{
				"poll":   res.Polls,
				"max_id": res.Cursor,
			})
			stop = "search exhausted"
			break
		}

		if err = h.scan(ctx, page.Statuses, res, matched, seen); err != nil {
			stop = "cancelled"
			break
		}
		logger.LogPoll(h.logger, res.Polls, len(page.Statuses), len(res.Matches), h.opts.Target, res.Cursor)

		if len(res.Matches) >= h.opts.Target {
			break
		}
		if res.Cursor == "" {
			stop = "search exhausted"
			break
		}
		if err = h.sleep(ctx, h.opts.PollDelay); err != nil {
			stop = "cancelled"
			break
		}
	}

	logger.LogComponentStop("hunter", stop)
	logger.LogMetrics("hunt", map[string]interface{}{
		"matches": len(res.Matches),
		"polls":   res.Polls,
		"scanned": res.Scanned,
		"liked":   res.Liked,
	})
	return res, err
}

// scan runs one page through the filter. The cursor advances past every
// status looked at, so a page cut short by the target resumes right after
// the last status scanned.
func (h *Hunter) scan(ctx context.Context, statuses []twitter.Status, res *Result, matched filter.Authors, seen filter.AuthorSet) error {
	scanned := 0
	defer func() {
		res.Scanned += scanned
		if h.progress != nil {
			h.progress.Scanned(scanned)
		}
		if h.metrics != nil {
			h.metrics.StatusesScanned.Add(float64(scanned))
		}
	}()

	for i := range statuses {
		if len(res.Matches) >= h.opts.Target {
			return nil
		}
		s := &statuses[i]
		scanned++
		res.Cursor = twitter.DecrementID(s.IDStr)

		ok, reason := h.opts.Criteria.Match(s, seen)
		if !ok {
			h.rejected(s, reason)
			continue
		}

		t := models.FromStatus(s)
		matched.Add(t.UserScreenName)
		res.Matches = append(res.Matches, t)
		h.matchFound(len(res.Matches), t)

		if h.opts.Mode != ModeLike {
			continue
		}
		if err := h.like(ctx, t, res); err != nil {
			return err
		}
	}
	return nil
}

// like favourites one match and pauses. Only cancellation is returned; API
// failures are logged and the run goes on.
func (h *Hunter) like(ctx context.Context, t models.Tweet, res *Result) error {
	pause := h.likePause()
	err := h.api.Like(ctx, t.ID)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	logger.LogLike(h.logger, t.ID, pause, err)
	if h.progress != nil {
		h.progress.Liked(t.ID, err)
	}
	if h.tui != nil {
		h.tui.LikeResult(t.ID, err)
	}

	outcome := metrics.OutcomeLiked
	switch {
	case errors.Is(err, errors.ErrorTypeDuplicate):
		outcome = metrics.OutcomeDuplicate
	case err != nil:
		outcome = metrics.OutcomeFailed
	}
	if h.metrics != nil {
		h.metrics.Likes.WithLabelValues(outcome).Inc()
	}

	if err == nil {
		res.Liked++
		res.LikedIDs[t.ID] = true
		if h.history != nil {
			if herr := h.history.RecordLike(ctx, t); herr != nil {
				h.logger.WithError(herr).WithField("id", t.ID).Warn("Failed to record like in history")
			}
		}
	}

	return h.sleep(ctx, pause)
}

func (h *Hunter) likePause() time.Duration {
	pause := h.opts.LikeDelay
	if h.opts.LikeJitter > 0 {
		pause += time.Duration(h.jitter(int64(h.opts.LikeJitter)))
	}
	return pause
}

// checkBudget reads the search window and sleeps when it is nearly spent.
// It reports whether it waited.
func (h *Hunter) checkBudget(ctx context.Context) (bool, error) {
	status, err := h.api.RateLimitStatus(ctx, twitter.ResourceSearch)
	if err != nil {
		return false, fmt.Errorf("rate limit status: %w", err)
	}

	limit, ok := status.Endpoint(twitter.ResourceSearch, twitter.SearchTweetsPath)
	if !ok {
		h.logger.Debug("Search endpoint missing from rate limit status, proceeding")
		return false, nil
	}
	if h.metrics != nil {
		h.metrics.SearchRemaining.Set(float64(limit.Remaining))
	}
	if h.tui != nil {
		h.tui.UpdateRateLimit(limit.Remaining, limit.Limit, limit.ResetTime())
	}

	wait := h.opts.Budget.Check(ratelimit.Window{
		Limit:     limit.Limit,
		Remaining: limit.Remaining,
		Reset:     limit.ResetTime(),
	}, h.now())
	if wait <= 0 {
		return false, nil
	}

	h.rateLimited(limit.Remaining, wait)
	return true, h.sleep(ctx, wait)
}

// waitForReset handles a 429 from search itself.
func (h *Hunter) waitForReset(ctx context.Context, cause error) error {
	var reset time.Time
	var apiErr *errors.Error
	if stderrors.As(cause, &apiErr) {
		reset = apiErr.Reset
	}
	wait := h.opts.Budget.Check(ratelimit.Window{Reset: reset, Remaining: -1}, h.now())
	h.rateLimited(0, wait)
	return h.sleep(ctx, wait)
}

func (h *Hunter) waitWhilePaused(ctx context.Context) error {
	for h.tui != nil && h.tui.IsPaused() {
		if err := h.sleep(ctx, pausePoll); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hunter) pollStarted(poll int, cursor string) {
	if h.metrics != nil {
		h.metrics.Polls.Inc()
	}
	if h.progress != nil {
		h.progress.ScanningPage(poll, cursor)
	}
	if h.tui != nil {
		h.tui.StartPoll(poll, cursor)
	}
}

func (h *Hunter) rateLimited(remaining int, wait time.Duration) {
	logger.LogRateLimit(h.logger, twitter.ResourceSearch, remaining, wait)
	if h.metrics != nil {
		h.metrics.RecordWait(wait)
	}
	if h.progress != nil {
		h.progress.RateLimitWarning(remaining, wait)
	}
	if h.tui != nil {
		h.tui.LogWarning("Out of search budget (%d left), waiting %s", remaining, wait.Round(time.Second))
	}
	if h.onWait != nil {
		h.onWait(remaining, wait)
	}
}

func (h *Hunter) rejected(s *twitter.Status, reason filter.Reason) {
	if h.metrics != nil {
		h.metrics.Rejected.WithLabelValues(string(reason)).Inc()
	}
	h.logger.DebugWithFields("Status rejected", map[string]interface{}{
		"id":     s.IDStr,
		"reason": string(reason),
	})
}

func (h *Hunter) matchFound(n int, t models.Tweet) {
	logger.LogMatch(h.logger, n, t.UserScreenName, t.ID, t.Likes, t.UserFollowers, t.Created)
	if h.metrics != nil {
		h.metrics.Matches.Inc()
	}
	if h.progress != nil {
		h.progress.Match(t.UserScreenName, t.Text)
	}
	if h.tui != nil {
		h.tui.AddMatch(n, t.UserScreenName, t.ID, t.Text, t.Likes, t.UserFollowers)
	}
}
