package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"tweetbot/pkg/checkpoint"
	"tweetbot/pkg/logger"
	"tweetbot/pkg/timeline"
	"tweetbot/pkg/ui"
)

var (
	timelineAccount      string
	timelineResume       bool
	timelineForceRestart bool
)

var timelineCmd = &cobra.Command{
	Use:   "timeline <screen_name>",
	Short: "Print every tweet of one account, one line each",
	Long: `Walk a user's timeline from the newest tweet backwards and print one line
per tweet:

  <created RFC3339> c=<n> id=<id> msg=(<first 50 characters>)

Retweets are skipped. The cursor is checkpointed after every page, so an
interrupted walk can continue with --resume. Lines go to stdout and logs to
stderr, so the output can be redirected to a file.`,
	Example: `  # Dump a timeline to a file
  tweetbot timeline jack > jack.txt

  # Continue after an interruption
  tweetbot timeline jack --resume >> jack.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runTimeline,
}

func init() {
	rootCmd.AddCommand(timelineCmd)
	timelineCmd.Flags().StringVarP(&timelineAccount, "account", "a", "", "use a specific stored account")
	timelineCmd.Flags().BoolVar(&timelineResume, "resume", false, "resume from the last checkpoint")
	timelineCmd.Flags().BoolVar(&timelineForceRestart, "force-restart", false, "discard an existing checkpoint and start over")
	timelineCmd.MarkFlagsMutuallyExclusive("resume", "force-restart")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	screenName := strings.TrimPrefix(strings.TrimSpace(args[0]), "@")

	cfg, err := loadConfig(cmd, nil, false)
	if err != nil {
		return err
	}
	if err := resolveCredentials(cfg, timelineAccount); err != nil {
		return err
	}

	log := logger.GetLogger()
	cp, err := checkpoint.NewManager(screenName)
	if err != nil {
		return err
	}
	cp.SetLogger(log)

	w := timeline.New(newClient(cfg, log), timeline.OptionsFromConfig(cfg), log)
	w.SetCheckpoint(cp)

	sum, err := w.Walk(cmd.Context(), timeline.Request{
		ScreenName:   screenName,
		Resume:       timelineResume,
		ForceRestart: timelineForceRestart,
	}, func(l timeline.Line) error {
		ui.Println(l.String())
		return nil
	})

	fields := map[string]interface{}{
		"screen_name": screenName,
		"summary":     w.Tracker().Summary(),
	}
	switch {
	case errors.Is(err, context.Canceled):
		fields["cursor"] = sum.Cursor
		log.WarnWithFields("Timeline walk interrupted, continue with --resume", fields)
		return nil
	case err != nil:
		return err
	}
	log.InfoWithFields("Timeline complete", fields)
	return nil
}
