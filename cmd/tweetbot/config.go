package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tweetbot/pkg/config"
	"tweetbot/pkg/ui"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tweetbot configuration files.

Configuration is merged from, highest priority first:
  - Command line flags
  - Environment variables (TWEETBOT_*, plus consumer_key and friends)
  - .env in the working directory and ~/.tweetbot.env
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with every option at its default",
	Long: `Write a configuration file with every option at its default value.

The file goes to $XDG_CONFIG_HOME/tweetbot/config.yaml unless --config names
another path. Credentials are left empty; store them with 'tweetbot auth login'
or fill them in by hand.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Print the configuration after merging every source, as YAML.

Credentials are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	Long: `Load the configuration from every source and report invalid values,
missing credentials and unwritable directories.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
}

const configHeader = `# tweetbot configuration
#
# Every value can also come from the environment: TWEETBOT_QUERY,
# TWEETBOT_TARGET, TWEETBOT_LIKE, TWEETBOT_CONSUMER_KEY and so on.
# Durations use Go syntax: 500ms, 30s, 15m, 168h.

`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := writeDefaultConfig(path, configForce); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	ui.Println("\nNext steps:")
	ui.Println("1. Run 'tweetbot auth login' to store your API keys")
	ui.Println("2. Run 'tweetbot config validate' to check the configuration")
	ui.Println("3. Run 'tweetbot' to write your first report")
	return nil
}

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0600)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(maskedConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	ui.Println(string(data))
	return nil
}

// maskedConfig returns a copy with the OAuth values masked.
func maskedConfig(cfg *config.Config) *config.Config {
	c := *cfg
	for _, v := range []*string{&c.Twitter.ConsumerKey, &c.Twitter.ConsumerSecret, &c.Twitter.AccessToken, &c.Twitter.AccessSecret} {
		*v = mask(*v)
	}
	return &c
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "***"
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var problems []error
	if err := os.MkdirAll(cfg.Report.Directory, 0755); err != nil {
		problems = append(problems, fmt.Errorf("cannot create report directory: %w", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}
	if cfg.Report.Template != "" {
		if _, err := os.Stat(cfg.Report.Template); err != nil {
			problems = append(problems, fmt.Errorf("report template: %w", err))
		}
	}
	if len(problems) > 0 {
		return errors.Join(problems...)
	}

	if err := cfg.ValidateCredentials(); err != nil {
		ui.PrintWarning("No credentials in the configuration, a stored account will be used", err)
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Query", cfg.Search.Query)
	ui.PrintInfo("Target", fmt.Sprint(cfg.Search.TargetMatches))
	ui.PrintInfo("Like", fmt.Sprint(cfg.Like.Enabled))
	ui.PrintInfo("Report", filepath.Join(cfg.Report.Directory, cfg.Report.FileName))
	ui.PrintInfo("History", fmt.Sprint(cfg.History.Enabled))
	ui.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}
