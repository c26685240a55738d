package hunter

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetbot/pkg/config"
	"tweetbot/pkg/logger"
	"tweetbot/pkg/metrics"
	"tweetbot/pkg/models"
	"tweetbot/pkg/twitter"
	"tweetbot/pkg/twitter/twittertest"
)

var created = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// harness wires a Hunter to a fake API with instant sleeps.
type harness struct {
	srv    *twittertest.Server
	hunter *Hunter
	log    *logger.TestLogger

	mu      sync.Mutex
	sleeps  []time.Duration
	onSleep func(d time.Duration)
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	srv := twittertest.NewServer()
	t.Cleanup(srv.Close)

	log := logger.NewTestLogger()
	client := twitter.NewClientWithHTTP(srv.URL(), srv.Client(), log)

	h := &harness{srv: srv, log: log}
	h.hunter = New(client, opts, log)
	h.hunter.sleep = func(ctx context.Context, d time.Duration) error {
		h.mu.Lock()
		h.sleeps = append(h.sleeps, d)
		fn := h.onSleep
		h.mu.Unlock()
		if fn != nil {
			fn(d)
		}
		return ctx.Err()
	}
	h.hunter.now = func() time.Time { return created }
	h.hunter.jitter = func(n int64) int64 { return n / 2 }
	return h
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Target = 3
	return opts
}

func ids(tweets []models.Tweet) []string {
	out := make([]string, len(tweets))
	for i, t := range tweets {
		out[i] = t.ID
	}
	return out
}

func TestRunCollectsTargetInOrder(t *testing.T) {
	h := newHarness(t, testOptions())
	h.srv.AddStatuses(
		twittertest.Status("110", "alice", "Day 1 of #100DaysOfCode", 0, 10, created),
		twittertest.Status("109", "bob", "RT Day 2 of #100DaysOfCode", 0, 10, created),
		twittertest.Status("108", "carol", "Day 3 of #100DaysOfCode", 9, 10, created),
		twittertest.Status("107", "dave", "Day 4 of #100DaysOfCode", 0, 900, created),
		twittertest.Status("106", "alice", "Day 5 of #100DaysOfCode", 0, 10, created),
		twittertest.Status("105", "erin", "just vibes #100DaysOfCode", 0, 10, created),
		twittertest.Status("104", "frank", "D6 done #100DaysOfCode", 1, 20, created),
		twittertest.Status("103", "grace", "day 7 of #100DaysOfCode", 4, 499, created),
		twittertest.Status("102", "heidi", "Day 8 of #100DaysOfCode", 0, 1, created),
	)

	res, err := h.hunter.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"110", "104", "103"}, ids(res.Matches))
	assert.Equal(t, 1, res.Polls)
	assert.Equal(t, 8, res.Scanned)
	assert.Equal(t, "102", res.Cursor, "cursor stops right after the last scanned status")
	assert.Empty(t, h.srv.Liked())

	first := res.Matches[0]
	assert.Equal(t, "alice", first.UserScreenName)
	assert.Equal(t, 10, first.UserFollowers)
	assert.Equal(t, 5, first.UserFriends)
	assert.Equal(t, "Day 1 of #100DaysOfCode", first.Text)

	assert.True(t, h.log.HasMessage("Match found"))
	assert.True(t, h.log.HasMessage("Search page scanned"))
}

func TestRunPagesWithDecrementedCursor(t *testing.T) {
	opts := testOptions()
	opts.Count = 2
	h := newHarness(t, opts)
	h.srv.AddStatuses(
		twittertest.Status("1000", "a", "Day 1 ", 0, 1, created),
		twittertest.Status("999", "b", "nope", 0, 1, created),
		twittertest.Status("998", "c", "nope", 0, 1, created),
		twittertest.Status("997", "d", "Day 2 ", 0, 1, created),
		twittertest.Status("996", "e", "Day 3 ", 0, 1, created),
	)

	res, err := h.hunter.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1000", "997", "996"}, ids(res.Matches))
	assert.Equal(t, []string{"", "998", "996"}, h.srv.SearchMaxIDs())
	assert.Equal(t, 3, res.Polls)

	// poll delay between pages only
	assert.Equal(t, []time.Duration{time.Second, time.Second}, h.sleeps)
}

func TestRunStopsOnEmptyPage(t *testing.T) {
	h := newHarness(t, testOptions())
	h.srv.AddStatuses(twittertest.Status("50", "solo", "Day 9 of it", 0, 1, created))

	res, err := h.hunter.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"50"}, ids(res.Matches))
	assert.Equal(t, 2, res.Polls)
	assert.Equal(t, []string{"", "49"}, h.srv.SearchMaxIDs())
}

func TestRunStopsWhenCursorRunsOut(t *testing.T) {
	h := newHarness(t, testOptions())
	h.srv.AddStatuses(twittertest.Status("1", "first", "Day 1 ever", 0, 1, created))

	res, err := h.hunter.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Polls)
	assert.Equal(t, "", res.Cursor)
}

func TestRunWaitsForBudget(t *testing.T) {
	h := newHarness(t, testOptions())
	h.srv.AddStatuses(
		twittertest.Status("30", "a", "Day 1 ", 0, 1, created),
		twittertest.Status("29", "b", "Day 2 ", 0, 1, created),
		twittertest.Status("28", "c", "Day 3 ", 0, 1, created),
	)
	reset := created.Add(2 * time.Minute)
	h.srv.SetRemaining("/search/tweets", 4, reset)

	var waits []int
	h.hunter.OnRateLimitWait(func(remaining int, wait time.Duration) {
		waits = append(waits, remaining)
	})
	h.onSleep = func(d time.Duration) {
		h.srv.SetRemaining("/search/tweets", 180, reset)
	}

	res, err := h.hunter.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Matches, 3)
	assert.Equal(t, []int{4}, waits)
	require.NotEmpty(t, h.sleeps)
	assert.Equal(t, 2*time.Minute+time.Second, h.sleeps[0], "waits until reset plus slack")
	assert.True(t, h.log.HasMessage("Out of limits, waiting before retrying"))
}

func TestRunBudgetFallbackAndCap(t *testing.T) {
	opts := testOptions()
	opts.Target = 1
	opts.Budget.MaxWait = time.Minute
	opts.Budget.Fallback = 30 * time.Second
	h := newHarness(t, opts)
	h.srv.AddStatuses(twittertest.Status("30", "a", "Day 1 ", 0, 1, created))

	// reset far in the future: capped
	h.srv.SetRemaining("/search/tweets", 0, created.Add(time.Hour))
	calls := 0
	h.onSleep = func(time.Duration) {
		calls++
		if calls == 1 {
			// reset already past: fallback interval
			h.srv.SetRemaining("/search/tweets", 0, created.Add(-time.Minute))
			return
		}
		h.srv.SetRemaining("/search/tweets", 180, created.Add(time.Minute))
	}

	res, err := h.hunter.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
	assert.Equal(t, []time.Duration{time.Minute, 30 * time.Second}, h.sleeps)
}

func TestRunLikeMode(t *testing.T) {
	opts := testOptions()
	opts.Mode = ModeLike
	h := newHarness(t, opts)
	h.srv.AddStatuses(
		twittertest.Status("20", "a", "Day 1 ", 0, 1, created),
		twittertest.Status("19", "b", "Day 2 ", 0, 1, created),
		twittertest.Status("18", "c", "Day 3 ", 0, 1, created),
	)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h.hunter.SetMetrics(m)

	res, err := h.hunter.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"20", "19", "18"}, h.srv.Liked())
	assert.Equal(t, 3, res.Liked)
	assert.True(t, res.LikedIDs["19"])

	pause := time.Second + 5*time.Second/2
	assert.Equal(t, []time.Duration{pause, pause, pause}, h.sleeps)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Likes.WithLabelValues(metrics.OutcomeLiked)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Matches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Polls))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StatusesScanned))
	assert.Equal(t, 180.0, testutil.ToFloat64(m.SearchRemaining))
}

func TestRunLikeFailureDoesNotAbort(t *testing.T) {
	opts := testOptions()
	opts.Mode = ModeLike
	opts.Target = 2
	h := newHarness(t, opts)
	h.srv.AddStatuses(
		twittertest.Status("20", "a", "Day 1 ", 0, 1, created),
		twittertest.Status("19", "b", "Day 2 ", 0, 1, created),
	)
	h.srv.SetErrorResponse("favorites/create.json", http.StatusForbidden)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h.hunter.SetMetrics(m)

	res, err := h.hunter.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Matches, 2)
	assert.Equal(t, 0, res.Liked)
	assert.Empty(t, res.LikedIDs)
	assert.True(t, h.log.HasMessage("Like failed"))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Likes.WithLabelValues(metrics.OutcomeFailed)))
}

type fakeHistory struct {
	known    map[string]bool
	recorded []string
}

func (f *fakeHistory) Has(name string) bool { return f.known[strings.ToLower(name)] }

func (f *fakeHistory) RecordLike(_ context.Context, t models.Tweet) error {
	f.recorded = append(f.recorded, t.ID)
	return nil
}

func TestRunHistorySuppressesAuthors(t *testing.T) {
	opts := testOptions()
	opts.Mode = ModeLike
	opts.Target = 2
	h := newHarness(t, opts)
	h.srv.AddStatuses(
		twittertest.Status("20", "Known", "Day 1 ", 0, 1, created),
		twittertest.Status("19", "fresh", "Day 2 ", 0, 1, created),
		twittertest.Status("18", "other", "Day 3 ", 0, 1, created),
	)
	hist := &fakeHistory{known: map[string]bool{"known": true}}
	h.hunter.SetHistory(hist)

	res, err := h.hunter.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"19", "18"}, ids(res.Matches))
	assert.Equal(t, []string{"19", "18"}, hist.recorded)
}

func TestRunMaxPolls(t *testing.T) {
	opts := testOptions()
	opts.Count = 1
	opts.MaxPolls = 2
	h := newHarness(t, opts)
	h.srv.AddStatuses(
		twittertest.Status("10", "a", "nope", 0, 1, created),
		twittertest.Status("9", "b", "nope", 0, 1, created),
		twittertest.Status("8", "c", "Day 1 ", 0, 1, created),
	)

	res, err := h.hunter.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 2, res.Polls)
	assert.Equal(t, "8", res.Cursor)
}

func TestRunCancelledReturnsPartial(t *testing.T) {
	opts := testOptions()
	opts.Count = 1
	h := newHarness(t, opts)
	h.srv.AddStatuses(
		twittertest.Status("10", "a", "Day 1 ", 0, 1, created),
		twittertest.Status("9", "b", "Day 2 ", 0, 1, created),
	)

	ctx, cancel := context.WithCancel(context.Background())
	h.onSleep = func(time.Duration) { cancel() }

	res, err := h.hunter.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"10"}, ids(res.Matches))
}

func TestRunSearchRateLimitedWaitsAndContinues(t *testing.T) {
	opts := testOptions()
	opts.Target = 1
	h := newHarness(t, opts)
	h.srv.AddStatuses(twittertest.Status("10", "a", "Day 1 ", 0, 1, created))
	h.srv.SetRemaining("/search/tweets", 180, created.Add(30*time.Second))
	h.srv.SetErrorResponse("search/tweets.json", http.StatusTooManyRequests)
	h.onSleep = func(time.Duration) { h.srv.SetErrorResponse("search/tweets.json", 0) }

	res, err := h.hunter.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
	assert.Equal(t, 31*time.Second, h.sleeps[0])
}

func TestRunSearchErrorStops(t *testing.T) {
	h := newHarness(t, testOptions())
	h.srv.SetErrorResponse("search/tweets.json", http.StatusUnauthorized)

	res, err := h.hunter.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search page 1")
	assert.Empty(t, res.Matches)
}

func TestRunRateLimitCheckError(t *testing.T) {
	h := newHarness(t, testOptions())
	h.srv.SetErrorResponse("application/rate_limit_status.json", http.StatusInternalServerError)

	_, err := h.hunter.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit status")
}

func TestRunValidatesOptions(t *testing.T) {
	opts := testOptions()
	opts.Query = ""
	_, err := New(nil, opts, nil).Run(context.Background())
	assert.Error(t, err)

	opts = testOptions()
	opts.Target = 0
	_, err = New(nil, opts, nil).Run(context.Background())
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeReport, m)

	m, err = ParseMode("like")
	require.NoError(t, err)
	assert.Equal(t, ModeLike, m)

	_, err = ParseMode("retweet")
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Like.Enabled = true
	cfg.Search.TargetMatches = 7

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, ModeLike, opts.Mode)
	assert.Equal(t, 7, opts.Target)
	assert.Equal(t, cfg.Search.Query, opts.Query)
	assert.Equal(t, cfg.RateLimit.MinRemaining, opts.Budget.MinRemaining)
	assert.Equal(t, cfg.Filter.MaxFollowers, opts.Criteria.MaxFollowers)
}
