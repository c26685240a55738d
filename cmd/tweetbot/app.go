package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tweetbot/pkg/auth"
	"tweetbot/pkg/config"
	"tweetbot/pkg/logger"
	"tweetbot/pkg/ratelimit"
	"tweetbot/pkg/retry"
	"tweetbot/pkg/twitter"
	"tweetbot/pkg/ui"
)

// loadConfig merges the persistent flags into flags, loads the config and
// installs the global logger. progressOnly lowers logging to errors unless
// the user asked for more, so log lines do not break the progress display.
func loadConfig(cmd *cobra.Command, flags map[string]interface{}, progressOnly bool) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	switch {
	case cmd.Flags().Changed("log-level") || verbose:
		flags["log-level"] = logLevel
	case progressOnly:
		flags["log-level"] = "error"
	}
	if cmd.Flags().Changed("notifications") {
		flags["notifications"] = notifications
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.WithField("version", version).Debug("tweetbot starting")
	return cfg, nil
}

// resolveCredentials fills cfg.Twitter from the credential store when the
// config and environment do not already provide a complete set. A named
// account always wins.
func resolveCredentials(cfg *config.Config, accountName string) error {
	if accountName == "" && cfg.HasCredentials() {
		logger.Debug("Using credentials from configuration")
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	return applyAccount(cfg, manager, accountName)
}

func applyAccount(cfg *config.Config, manager *auth.Manager, accountName string) error {
	var (
		account *auth.Account
		err     error
	)
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
		if err != nil {
			return fmt.Errorf("account %q not found, run 'tweetbot auth list' to see stored accounts: %w", accountName, err)
		}
	} else {
		account, err = manager.RetrieveDefault()
		if err != nil {
			return fmt.Errorf("no Twitter credentials found, run 'tweetbot auth login' or set TWEETBOT_CONSUMER_KEY and friends: %w", err)
		}
	}

	account.Apply(&cfg.Twitter)
	logger.WithField("account", account.Name).Info("Using stored credentials")
	if err := cfg.ValidateCredentials(); err != nil {
		return fmt.Errorf("stored account %q is incomplete: %w", account.Name, err)
	}
	return nil
}

// newClient builds the signed API client with the configured pacing and
// retry policy.
func newClient(cfg *config.Config, log logger.Logger) *twitter.Client {
	c := twitter.NewClient(cfg.Twitter, log)
	c.SetLimiter(ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize))
	c.SetRetryConfig(retry.FromConfig(cfg.Retry, log))
	return c
}

func newNotifier(cfg *config.Config) *ui.Notifier {
	if !cfg.Notifications.Enabled {
		return ui.NewNotifier(string(ui.KindNone))
	}
	return ui.NewNotifier(cfg.Notifications.NotificationType)
}
