package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tweetbot/pkg/hunter"
	"tweetbot/pkg/logger"
	"tweetbot/pkg/ui"
	"tweetbot/pkg/ui/tui"
)

// huntFlags are shared by hunt, schedule and the root command.
type huntFlags struct {
	query     string
	lang      string
	target    int
	maxPolls  int
	like      bool
	report    bool
	json      bool
	useTUI    bool
	history   bool
	account   string
	reportDir string
	template  string
}

var huntOpts huntFlags

var huntCmd = &cobra.Command{
	Use:   "hunt",
	Short: "Search for unnoticed check-ins and report or like them",
	Long: `Search recent tweets for the query (default #100DaysOfCode) and keep the
ones that look like a personal progress report from a small account: fewer
than 5 likes, fewer than 500 followers, not a retweet or reply, and one match
per author.

The run stops once the target number of matches is found or the search runs
dry. Matches are written to an HTML report for review; with --like each match
is also liked, with a randomised pause between likes.

hunt is the default command, so 'tweetbot --like' works too.`,
	Example: `  # Write 20 matches to ./lib/report.html
  tweetbot hunt

  # Like 10 matches, watching progress in the dashboard
  tweetbot hunt --like --target 10 --tui

  # Search a different tag and keep a JSON copy of the results
  tweetbot hunt --query "#66DaysOfData" --json

  # Use a specific stored account
  tweetbot hunt --account work`,
	Args: cobra.NoArgs,
	RunE: runHunt,
}

func init() {
	rootCmd.AddCommand(huntCmd)
	huntOpts.register(huntCmd.Flags(), true)
	huntCmd.MarkFlagsMutuallyExclusive("like", "report")

	// hunt is the default command
	huntOpts.register(rootCmd.Flags(), true)
	rootCmd.MarkFlagsMutuallyExclusive("like", "report")
	rootCmd.Args = cobra.NoArgs
	rootCmd.RunE = runHunt
}

func (f *huntFlags) register(fs *pflag.FlagSet, interactive bool) {
	fs.StringVar(&f.query, "query", "", "search query (default #100DaysOfCode)")
	fs.StringVar(&f.lang, "lang", "", "restrict results to a language code")
	fs.IntVarP(&f.target, "target", "n", 0, "stop after this many matches (default 20)")
	fs.IntVar(&f.maxPolls, "max-polls", 0, "stop after this many search pages, 0 for no limit")
	fs.BoolVar(&f.like, "like", false, "like every match")
	fs.BoolVar(&f.report, "report", false, "only write the report, even if the config enables liking")
	fs.BoolVar(&f.json, "json", false, "also write the matches as JSON next to the report")
	if interactive {
		fs.BoolVar(&f.useTUI, "tui", false, "show the interactive dashboard")
	}
	fs.BoolVar(&f.history, "history", false, "skip authors liked within the cooldown on earlier runs")
	fs.StringVarP(&f.account, "account", "a", "", "use a specific stored account")
	fs.StringVarP(&f.reportDir, "output", "o", "", "report directory (default ./lib)")
	fs.StringVar(&f.template, "template", "", "custom report template file")
}

// configFlags converts the set flags into config overrides.
func (f *huntFlags) configFlags(fs *pflag.FlagSet) map[string]interface{} {
	flags := make(map[string]interface{})
	if f.query != "" {
		flags["query"] = f.query
	}
	if f.lang != "" {
		flags["lang"] = f.lang
	}
	if fs.Changed("target") {
		flags["target"] = f.target
	}
	if fs.Changed("max-polls") {
		flags["max-polls"] = f.maxPolls
	}
	if fs.Changed("like") {
		flags["like"] = f.like
	}
	if f.report {
		flags["like"] = false
	}
	if fs.Changed("json") {
		flags["json"] = f.json
	}
	if fs.Changed("history") {
		flags["history"] = f.history
	}
	if f.reportDir != "" {
		flags["report-dir"] = f.reportDir
	}
	if f.template != "" {
		flags["template"] = f.template
	}
	return flags
}

func runHunt(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, huntOpts.configFlags(cmd.Flags()), !verbose)
	if err != nil {
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

	opts := hunter.OptionsFromConfig(cfg)
	ctx := cmd.Context()

	if huntOpts.useTUI {
		return huntWithTUI(ctx, r, opts)
	}

	ui.PrintInfo("Query", opts.Query)
	ui.PrintInfo("Target", strconv.Itoa(opts.Target))
	ui.PrintInfo("Mode", string(opts.Mode))

	progress := ui.NewProgressDisplay(opts.Query, opts.Target, verbose)
	_, path, err := r.hunt(ctx, func(h *hunter.Hunter) { h.SetProgress(progress) })
	progress.Complete(path)
	if errors.Is(err, context.Canceled) {
		ui.PrintWarning("Interrupted, partial results kept")
		return nil
	}
	return err
}

// huntWithTUI runs the hunt behind the dashboard. Quitting the dashboard
// cancels the hunt.
func huntWithTUI(ctx context.Context, r *runner, opts hunter.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dash := tui.NewTUI(opts.Query, opts.Target)

	type outcome struct {
		res  *hunter.Result
		path string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		res, path, err := r.hunt(ctx, func(h *hunter.Hunter) { h.SetTUI(dash) })
		done <- outcome{res, path, err}
		dash.Stop()
	}()

	if err := dash.Start(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("dashboard failed: %w", err)
	}
	// the user may have quit before the hunt finished
	cancel()
	out := <-done

	if out.res != nil {
		ui.PrintSuccess(fmt.Sprintf("Found %d of %d tweets (%d liked)", len(out.res.Matches), opts.Target, out.res.Liked))
	}
	if out.path != "" {
		ui.PrintInfo("Report", out.path)
	}
	if errors.Is(out.err, context.Canceled) {
		return nil
	}
	return out.err
}
