package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"tweetbot/pkg/config"
	"tweetbot/pkg/history"
	"tweetbot/pkg/hunter"
	"tweetbot/pkg/logger"
	"tweetbot/pkg/metadata"
	"tweetbot/pkg/metrics"
	"tweetbot/pkg/report"
	"tweetbot/pkg/storage"
	"tweetbot/pkg/ui"
)

// runner holds what survives between hunts: the client, the optional like
// history and metrics. The schedule command reuses one runner for every run.
type runner struct {
	cfg      *config.Config
	api      hunter.API
	history  *history.Store
	metrics  *metrics.Metrics
	notifier *ui.Notifier
	log      logger.Logger
}

func newRunner(cfg *config.Config, api hunter.API, log logger.Logger) (*runner, error) {
	r := &runner{
		cfg:      cfg,
		api:      api,
		notifier: newNotifier(cfg),
		log:      log,
	}
	if cfg.History.Enabled {
		h, err := history.Open(cfg.History.Path, cfg.History.AuthorCooldown, cfg.History.CacheSize)
		if err != nil {
			return nil, err
		}
		h.SetLogger(log.WithField("component", "history"))
		r.history = h
	}
	return r, nil
}

// Close releases the history database.
func (r *runner) Close() error {
	if r.history != nil {
		return r.history.Close()
	}
	return nil
}

// hunt runs one search, writes the report and sends the notifications.
// configure may attach a dashboard or progress display to the hunter. The
// report is written even for a cancelled run when anything was found.
func (r *runner) hunt(ctx context.Context, configure func(h *hunter.Hunter)) (*hunter.Result, string, error) {
	h := hunter.New(r.api, hunter.OptionsFromConfig(r.cfg), r.log)
	if r.history != nil {
		h.SetHistory(r.history)
	}
	if r.metrics != nil {
		h.SetMetrics(r.metrics)
	}
	if r.cfg.Notifications.OnRateLimit {
		h.OnRateLimitWait(func(remaining int, wait time.Duration) {
			r.notifier.SendNotification("Rate limited", fmt.Sprintf("%d searches left, waiting %s", remaining, wait.Round(time.Second)))
		})
	}
	if configure != nil {
		configure(h)
	}

	start := time.Now()
	res, err := h.Run(ctx)
	if r.metrics != nil {
		r.metrics.RecordRun(time.Since(start), err)
	}

	var path string
	if res != nil && (err == nil || len(res.Matches) > 0) {
		var werr error
		path, werr = r.writeReport(res, h.Options())
		if werr != nil {
			err = errors.Join(err, werr)
		}
	}

	r.notify(res, err)
	return res, path, err
}

// writeReport renders the HTML report and, when enabled, the JSON sidecar.
func (r *runner) writeReport(res *hunter.Result, opts hunter.Options) (string, error) {
	store, err := storage.NewManager(r.cfg.Report.Directory)
	if err != nil {
		return "", err
	}

	b := report.NewBuilder(r.cfg.Report.Title, opts.Query)
	if r.cfg.Report.Template != "" {
		if err := b.LoadTemplate(r.cfg.Report.Template); err != nil {
			return "", err
		}
	}

	path, err := store.WriteFile(r.cfg.Report.FileName, func(w io.Writer) error {
		return b.Render(w, res.Matches)
	})
	if err != nil {
		return "", err
	}
	r.log.WithField("path", path).Info("Report written")

	if r.cfg.Report.JSON {
		meta := metadata.FromTweets(opts.Query, string(opts.Mode), res.Matches, res.LikedIDs)
		meta.Polls = res.Polls
		meta.Scanned = res.Scanned
		meta.Liked = res.Liked
		meta.Cursor = res.Cursor
		name := strings.TrimSuffix(r.cfg.Report.FileName, filepath.Ext(r.cfg.Report.FileName)) + ".json"
		if _, err := store.WriteJSON(name, meta); err != nil {
			return path, err
		}
	}
	return path, nil
}

func (r *runner) notify(res *hunter.Result, err error) {
	switch {
	case err != nil && !errors.Is(err, context.Canceled):
		if r.cfg.Notifications.OnError {
			r.notifier.SendError("Hunt failed", err.Error())
		}
	case res != nil && r.cfg.Notifications.OnComplete:
		msg := fmt.Sprintf("%d tweets found in %d pages", len(res.Matches), res.Polls)
		if res.Liked > 0 {
			msg += fmt.Sprintf(", %d liked", res.Liked)
		}
		r.notifier.SendSuccess("Hunt complete", msg)
	}
}
