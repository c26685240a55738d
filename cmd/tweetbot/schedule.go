package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tweetbot/pkg/logger"
	"tweetbot/pkg/metrics"
	"tweetbot/pkg/scheduler"
	"tweetbot/pkg/ui"
)

var (
	scheduleCron        string
	scheduleMetricsAddr string
	scheduleRunNow      bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the hunt on a cron schedule",
	Long: `Keep running and start a hunt on every tick of a cron expression (standard
five fields, or descriptors such as @daily). A run that is still going when
the next tick arrives is skipped, and every run is bounded by
schedule.run_timeout.

With --metrics-addr the process also serves Prometheus metrics: polls,
matches, likes by outcome, rate-limit waits and the remaining search budget.`,
	Example: `  # Like 20 check-ins every morning at 9
  tweetbot schedule --cron "0 9 * * *" --like

  # Every six hours, with metrics on :9090/metrics
  tweetbot schedule --cron "@every 6h" --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron expression (default from config, 0 9 * * *)")
	scheduleCmd.Flags().StringVar(&scheduleMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "run-now", false, "run once immediately before waiting for the schedule")
	huntOpts.register(scheduleCmd.Flags(), false)
	scheduleCmd.MarkFlagsMutuallyExclusive("like", "report")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	flags := huntOpts.configFlags(cmd.Flags())
	if scheduleCron != "" {
		flags["cron"] = scheduleCron
	}
	if cmd.Flags().Changed("metrics-addr") {
		flags["metrics-addr"] = scheduleMetricsAddr
	}

	cfg, err := loadConfig(cmd, flags, false)
	if err != nil {
		return err
	}
	if err := scheduler.Validate(cfg.Schedule.Cron); err != nil {
		return err
	}
	if err := resolveCredentials(cfg, huntOpts.account); err != nil {
		return err
	}

	log := logger.GetLogger()
	r, err := newRunner(cfg, newClient(cfg, log), log)
	if err != nil {
		return err
	}
	defer r.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.metrics = metrics.New(reg)

	sched, err := scheduler.New(cfg.Schedule.Timezone, cfg.Schedule.RunTimeout, log)
	if err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		res, path, err := r.hunt(ctx, nil)
		if res != nil {
			log.InfoWithFields("Scheduled hunt finished", map[string]interface{}{
				"matches": len(res.Matches),
				"liked":   res.Liked,
				"report":  path,
			})
		}
		return err
	}
	if err := sched.AddJob("hunt", cfg.Schedule.Cron, job); err != nil {
		return err
	}

	for _, j := range sched.ListJobs() {
		ui.PrintInfo("Next run", fmt.Sprintf("%s (%s)", j.NextRun.Format("2006-01-02 15:04 MST"), j.Spec))
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return metrics.Serve(ctx, cfg.Metrics.Addr, cfg.Metrics.Path, reg, log)
		})
	}
	g.Go(func() error { return sched.Run(ctx) })
	if scheduleRunNow {
		g.Go(func() error {
			// a failed first run is logged by the scheduler and not fatal
			_ = sched.RunNow("hunt", job)
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
