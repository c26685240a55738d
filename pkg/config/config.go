package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppName is used for config, data and env file names.
const AppName = "tweetbot"

// Config holds all configuration options for the bot
type Config struct {
	// OAuth 1.0a user-context credentials
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// What to search for and when to stop
	Search SearchConfig `yaml:"search" json:"search"`

	// Match heuristics
	Filter FilterConfig `yaml:"filter" json:"filter"`

	// Rate-limit budget handling
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	Like     LikeConfig     `yaml:"like" json:"like"`
	Report   ReportConfig   `yaml:"report" json:"report"`
	Retry    RetryConfig    `yaml:"retry" json:"retry"`
	Timeline TimelineConfig `yaml:"timeline" json:"timeline"`
	History  HistoryConfig  `yaml:"history" json:"history"`
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds API credentials and transport settings
type TwitterConfig struct {
	ConsumerKey    string        `yaml:"consumer_key" json:"consumer_key"`
	ConsumerSecret string        `yaml:"consumer_secret" json:"consumer_secret"`
	AccessToken    string        `yaml:"access_token" json:"access_token"`
	AccessSecret   string        `yaml:"access_secret" json:"access_secret"`
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
}

// SearchConfig controls the search query and the run length
type SearchConfig struct {
	Query         string `yaml:"query" json:"query"`
	Count         int    `yaml:"count" json:"count"`
	Lang          string `yaml:"lang" json:"lang"`
	ResultType    string `yaml:"result_type" json:"result_type"`
	TargetMatches int    `yaml:"target_matches" json:"target_matches"`
	MaxPolls      int    `yaml:"max_polls" json:"max_polls"`
}

// FilterConfig holds the match thresholds
type FilterConfig struct {
	MaxLikes              int  `yaml:"max_likes" json:"max_likes"`
	MaxFollowers          int  `yaml:"max_followers" json:"max_followers"`
	ExcludeRetweets       bool `yaml:"exclude_retweets" json:"exclude_retweets"`
	ExcludeReplies        bool `yaml:"exclude_replies" json:"exclude_replies"`
	RequireProgressReport bool `yaml:"require_progress_report" json:"require_progress_report"`
}

// RateLimitConfig holds the API budget settings and client-side pacing
type RateLimitConfig struct {
	MinRemaining      int           `yaml:"min_remaining" json:"min_remaining"`
	WaitInterval      time.Duration `yaml:"wait_interval" json:"wait_interval"`
	MaxWait           time.Duration `yaml:"max_wait" json:"max_wait"`
	PollDelay         time.Duration `yaml:"poll_delay" json:"poll_delay"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
}

// LikeConfig controls like mode
type LikeConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	MinDelay  time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxJitter time.Duration `yaml:"max_jitter" json:"max_jitter"`
}

// ReportConfig holds report output settings
type ReportConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	FileName  string `yaml:"file_name" json:"file_name"`
	Template  string `yaml:"template" json:"template"`
	Title     string `yaml:"title" json:"title"`
	JSON      bool   `yaml:"json" json:"json"`
}

// RetryConfig holds retry settings for API calls
type RetryConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// TimelineConfig controls the timeline walk
type TimelineConfig struct {
	PageSize     int           `yaml:"page_size" json:"page_size"`
	MinRemaining int           `yaml:"min_remaining" json:"min_remaining"`
	PageDelay    time.Duration `yaml:"page_delay" json:"page_delay"`
	MaxLength    int           `yaml:"max_length" json:"max_length"`
}

// HistoryConfig controls the optional cross-run like history
type HistoryConfig struct {
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	Path           string        `yaml:"path" json:"path"`
	AuthorCooldown time.Duration `yaml:"author_cooldown" json:"author_cooldown"`
	CacheSize      int           `yaml:"cache_size" json:"cache_size"`
}

// ScheduleConfig controls recurring runs
type ScheduleConfig struct {
	Cron       string        `yaml:"cron" json:"cron"`
	Timezone   string        `yaml:"timezone" json:"timezone"`
	RunTimeout time.Duration `yaml:"run_timeout" json:"run_timeout"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	Path string `yaml:"path" json:"path"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	OnRateLimit      bool   `yaml:"on_rate_limit" json:"on_rate_limit"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL:   "https://api.twitter.com/1.1/",
			UserAgent: AppName + "/1.0",
			Timeout:   30 * time.Second,
		},
		Search: SearchConfig{
			Query:         "#100DaysOfCode",
			Count:         100,
			Lang:          "en",
			ResultType:    "recent",
			TargetMatches: 20,
		},
		Filter: FilterConfig{
			MaxLikes:              5,
			MaxFollowers:          500,
			ExcludeRetweets:       true,
			ExcludeReplies:        true,
			RequireProgressReport: true,
		},
		RateLimit: RateLimitConfig{
			MinRemaining:      5,
			WaitInterval:      time.Minute,
			MaxWait:           15 * time.Minute,
			PollDelay:         time.Second,
			RequestsPerMinute: 60,
			BurstSize:         5,
		},
		Like: LikeConfig{
			Enabled:   false,
			MinDelay:  time.Second,
			MaxJitter: 5 * time.Second,
		},
		Report: ReportConfig{
			Directory: "./lib",
			FileName:  "report.html",
			Title:     "Tweets to review",
		},
		Retry: RetryConfig{
			Enabled:      true,
			MaxAttempts:  3,
			BaseDelay:    time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Timeline: TimelineConfig{
			PageSize:     200,
			MinRemaining: 1,
			PageDelay:    250 * time.Millisecond,
			MaxLength:    50,
		},
		History: HistoryConfig{
			Enabled:        false,
			Path:           filepath.Join(xdg.DataHome, AppName, "history.db"),
			AuthorCooldown: 7 * 24 * time.Hour,
			CacheSize:      1024,
		},
		Schedule: ScheduleConfig{
			Cron:       "0 9 * * *",
			Timezone:   "Local",
			RunTimeout: 30 * time.Minute,
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			OnComplete:       true,
			OnError:          true,
			OnRateLimit:      false,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// envPrefix is prepended to every TWEETBOT_* variable
const envPrefix = "TWEETBOT_"

// LoadFromEnv loads configuration from environment variables.
// The lower-case credential names used by older .env files are honoured too.
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString(&c.Twitter.ConsumerKey, "consumer_key", envPrefix+"CONSUMER_KEY")
	setString(&c.Twitter.ConsumerSecret, "consumer_secret", envPrefix+"CONSUMER_SECRET")
	setString(&c.Twitter.AccessToken, "access_token_key", envPrefix+"ACCESS_TOKEN")
	setString(&c.Twitter.AccessSecret, "access_token_secret", envPrefix+"ACCESS_SECRET")
	setString(&c.Twitter.BaseURL, envPrefix+"BASE_URL")

	setString(&c.Search.Query, envPrefix+"QUERY")
	setString(&c.Search.Lang, envPrefix+"LANG")
	errs = append(errs, setInt(&c.Search.TargetMatches, envPrefix+"TARGET"))
	errs = append(errs, setInt(&c.RateLimit.RequestsPerMinute, envPrefix+"REQUESTS_PER_MINUTE"))
	errs = append(errs, setBool(&c.Like.Enabled, envPrefix+"LIKE"))

	setString(&c.Report.Directory, envPrefix+"REPORT_DIR")
	setString(&c.Report.Template, envPrefix+"REPORT_TEMPLATE")

	errs = append(errs, setBool(&c.History.Enabled, envPrefix+"HISTORY_ENABLED"))
	setString(&c.History.Path, envPrefix+"HISTORY_PATH")

	setString(&c.Metrics.Addr, envPrefix+"METRICS_ADDR")
	errs = append(errs, setBool(&c.Notifications.Enabled, envPrefix+"NOTIFICATIONS_ENABLED"))
	setString(&c.Logging.Level, envPrefix+"LOG_LEVEL")
	setString(&c.Logging.File, envPrefix+"LOG_FILE")

	return errors.Join(errs...)
}

// setString assigns each non-empty variable in order, so later keys win.
func setString(dst *string, keys ...string) {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if n > 0 {
		*dst = n
	}
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		"." + AppName + ".yaml",
		"." + AppName + ".yml",
		filepath.Join(xdg.ConfigHome, AppName, "config.yaml"),
		filepath.Join(xdg.ConfigHome, AppName, "config.yml"),
		filepath.Join(home, "."+AppName+".yaml"),
		filepath.Join(home, "."+AppName+".yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// DefaultConfigPath is where "config init" writes when no path is given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// HasCredentials reports whether all four OAuth values are set.
func (c *Config) HasCredentials() bool {
	return c.ValidateCredentials() == nil
}

// ValidateCredentials checks the OAuth values separately from Validate so
// that credentials may still be filled in from the credential store.
func (c *Config) ValidateCredentials() error {
	var errs []error
	if c.Twitter.ConsumerKey == "" {
		errs = append(errs, errors.New("consumer key is required"))
	}
	if c.Twitter.ConsumerSecret == "" {
		errs = append(errs, errors.New("consumer secret is required"))
	}
	if c.Twitter.AccessToken == "" {
		errs = append(errs, errors.New("access token is required"))
	}
	if c.Twitter.AccessSecret == "" {
		errs = append(errs, errors.New("access token secret is required"))
	}
	return errors.Join(errs...)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Twitter.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.Twitter.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	// Search
	if strings.TrimSpace(c.Search.Query) == "" {
		errs = append(errs, errors.New("search query is required"))
	}
	if c.Search.Count <= 0 || c.Search.Count > 100 {
		errs = append(errs, errors.New("search count must be between 1 and 100"))
	}
	if c.Search.TargetMatches <= 0 {
		errs = append(errs, errors.New("target matches must be positive"))
	}
	if c.Search.MaxPolls < 0 {
		errs = append(errs, errors.New("max polls cannot be negative"))
	}

	// Filter
	if c.Filter.MaxLikes <= 0 {
		errs = append(errs, errors.New("max likes must be positive"))
	}
	if c.Filter.MaxFollowers <= 0 {
		errs = append(errs, errors.New("max followers must be positive"))
	}

	// Rate limiting
	if c.RateLimit.MinRemaining < 0 {
		errs = append(errs, errors.New("min remaining cannot be negative"))
	}
	if c.RateLimit.WaitInterval <= 0 {
		errs = append(errs, errors.New("wait interval must be positive"))
	}
	if c.RateLimit.PollDelay < 0 {
		errs = append(errs, errors.New("poll delay cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	// Like pacing
	if c.Like.MinDelay < 0 || c.Like.MaxJitter < 0 {
		errs = append(errs, errors.New("like delays cannot be negative"))
	}

	if c.Report.FileName == "" {
		errs = append(errs, errors.New("report file name is required"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Timeline.PageSize <= 0 || c.Timeline.PageSize > 200 {
		errs = append(errs, errors.New("timeline page size must be between 1 and 200"))
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, errors.New("history path is required when history is enabled"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	// Validate notification type
	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["query"].(string); ok && v != "" {
		c.Search.Query = v
	}
	if v, ok := flags["lang"].(string); ok && v != "" {
		c.Search.Lang = v
	}
	if v, ok := flags["target"].(int); ok && v > 0 {
		c.Search.TargetMatches = v
	}
	if v, ok := flags["max-polls"].(int); ok && v >= 0 {
		c.Search.MaxPolls = v
	}
	if v, ok := flags["like"].(bool); ok {
		c.Like.Enabled = v
	}
	if v, ok := flags["report-dir"].(string); ok && v != "" {
		c.Report.Directory = v
	}
	if v, ok := flags["template"].(string); ok && v != "" {
		c.Report.Template = v
	}
	if v, ok := flags["json"].(bool); ok {
		c.Report.JSON = v
	}
	if v, ok := flags["requests-per-minute"].(int); ok && v > 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["max-retries"].(int); ok && v >= 0 {
		c.Retry.MaxAttempts = v
	}
	if v, ok := flags["history"].(bool); ok {
		c.History.Enabled = v
	}
	if v, ok := flags["cron"].(string); ok && v != "" {
		c.Schedule.Cron = v
	}
	if v, ok := flags["metrics-addr"].(string); ok {
		c.Metrics.Addr = v
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	home, _ := os.UserHomeDir()
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(home, "."+AppName+".env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
