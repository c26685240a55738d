package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)

	assert.Equal(t, "#100DaysOfCode", cfg.Search.Query)
	assert.Equal(t, 100, cfg.Search.Count)
	assert.Equal(t, "en", cfg.Search.Lang)
	assert.Equal(t, 20, cfg.Search.TargetMatches)
	assert.Zero(t, cfg.Search.MaxPolls)

	assert.Equal(t, 5, cfg.Filter.MaxLikes)
	assert.Equal(t, 500, cfg.Filter.MaxFollowers)
	assert.True(t, cfg.Filter.ExcludeRetweets)
	assert.True(t, cfg.Filter.ExcludeReplies)
	assert.True(t, cfg.Filter.RequireProgressReport)

	assert.Equal(t, 5, cfg.RateLimit.MinRemaining)
	assert.Equal(t, time.Minute, cfg.RateLimit.WaitInterval)
	assert.Equal(t, time.Second, cfg.RateLimit.PollDelay)

	assert.False(t, cfg.Like.Enabled)
	assert.Equal(t, time.Second, cfg.Like.MinDelay)
	assert.Equal(t, 5*time.Second, cfg.Like.MaxJitter)

	assert.Equal(t, "report.html", cfg.Report.FileName)

	assert.True(t, cfg.Retry.Enabled)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)

	assert.Equal(t, 200, cfg.Timeline.PageSize)
	assert.Equal(t, 1, cfg.Timeline.MinRemaining)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeline.PageDelay)

	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 7*24*time.Hour, cfg.History.AuthorCooldown)
	assert.NotEmpty(t, cfg.History.Path)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)

	// Defaults are valid apart from credentials
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.HasCredentials())
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("prefixed variables", func(t *testing.T) {
		t.Setenv("TWEETBOT_CONSUMER_KEY", "ck")
		t.Setenv("TWEETBOT_CONSUMER_SECRET", "cs")
		t.Setenv("TWEETBOT_ACCESS_TOKEN", "at")
		t.Setenv("TWEETBOT_ACCESS_SECRET", "as")
		t.Setenv("TWEETBOT_QUERY", "#golang")
		t.Setenv("TWEETBOT_TARGET", "7")
		t.Setenv("TWEETBOT_LIKE", "true")
		t.Setenv("TWEETBOT_REPORT_DIR", "/env/reports")
		t.Setenv("TWEETBOT_NOTIFICATIONS_ENABLED", "false")
		t.Setenv("TWEETBOT_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromEnv())

		assert.Equal(t, "ck", cfg.Twitter.ConsumerKey)
		assert.Equal(t, "cs", cfg.Twitter.ConsumerSecret)
		assert.Equal(t, "at", cfg.Twitter.AccessToken)
		assert.Equal(t, "as", cfg.Twitter.AccessSecret)
		assert.True(t, cfg.HasCredentials())
		assert.Equal(t, "#golang", cfg.Search.Query)
		assert.Equal(t, 7, cfg.Search.TargetMatches)
		assert.True(t, cfg.Like.Enabled)
		assert.Equal(t, "/env/reports", cfg.Report.Directory)
		assert.False(t, cfg.Notifications.Enabled)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("legacy credential names", func(t *testing.T) {
		t.Setenv("consumer_key", "legacy-ck")
		t.Setenv("consumer_secret", "legacy-cs")
		t.Setenv("access_token_key", "legacy-at")
		t.Setenv("access_token_secret", "legacy-as")

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromEnv())

		assert.Equal(t, "legacy-ck", cfg.Twitter.ConsumerKey)
		assert.Equal(t, "legacy-at", cfg.Twitter.AccessToken)
		assert.True(t, cfg.HasCredentials())
	})

	t.Run("prefixed wins over legacy", func(t *testing.T) {
		t.Setenv("consumer_key", "legacy")
		t.Setenv("TWEETBOT_CONSUMER_KEY", "prefixed")

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromEnv())
		assert.Equal(t, "prefixed", cfg.Twitter.ConsumerKey)
	})

	t.Run("malformed numbers are reported", func(t *testing.T) {
		t.Setenv("TWEETBOT_TARGET", "twenty")
		t.Setenv("TWEETBOT_LIKE", "maybe")

		cfg := DefaultConfig()
		err := cfg.LoadFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TWEETBOT_TARGET")
		assert.Contains(t, err.Error(), "TWEETBOT_LIKE")
		assert.Equal(t, 20, cfg.Search.TargetMatches)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")

		content := `
twitter:
  consumer_key: file_ck
  consumer_secret: file_cs
  access_token: file_at
  access_secret: file_as
  timeout: 10s

search:
  query: "#100DaysOfGo"
  count: 50
  target_matches: 10
  max_polls: 3

filter:
  max_likes: 3
  max_followers: 250
  exclude_replies: false

rate_limit:
  min_remaining: 2
  wait_interval: 30s
  poll_delay: 2s

like:
  enabled: true
  min_delay: 500ms
  max_jitter: 2s

report:
  directory: /file/reports
  template: /file/template.html
  json: true

logging:
  level: warn
  file: /var/log/tweetbot.log
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(configPath))

		assert.Equal(t, "file_ck", cfg.Twitter.ConsumerKey)
		assert.Equal(t, "file_as", cfg.Twitter.AccessSecret)
		assert.Equal(t, 10*time.Second, cfg.Twitter.Timeout)

		assert.Equal(t, "#100DaysOfGo", cfg.Search.Query)
		assert.Equal(t, 50, cfg.Search.Count)
		assert.Equal(t, 10, cfg.Search.TargetMatches)
		assert.Equal(t, 3, cfg.Search.MaxPolls)
		assert.Equal(t, "en", cfg.Search.Lang, "unset keys keep their defaults")

		assert.Equal(t, 3, cfg.Filter.MaxLikes)
		assert.Equal(t, 250, cfg.Filter.MaxFollowers)
		assert.False(t, cfg.Filter.ExcludeReplies)
		assert.True(t, cfg.Filter.ExcludeRetweets)

		assert.Equal(t, 2, cfg.RateLimit.MinRemaining)
		assert.Equal(t, 30*time.Second, cfg.RateLimit.WaitInterval)
		assert.Equal(t, 2*time.Second, cfg.RateLimit.PollDelay)

		assert.True(t, cfg.Like.Enabled)
		assert.Equal(t, 500*time.Millisecond, cfg.Like.MinDelay)

		assert.Equal(t, "/file/reports", cfg.Report.Directory)
		assert.Equal(t, "/file/template.html", cfg.Report.Template)
		assert.True(t, cfg.Report.JSON)

		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "/var/log/tweetbot.log", cfg.Logging.File)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("search:\n  query: [this is invalid\n"), 0644))

		err := DefaultConfig().LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("non-existent file", func(t *testing.T) {
		err := DefaultConfig().LoadFromFile("/non/existent/path/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Run("finds config in current directory", func(t *testing.T) {
		chdir(t, t.TempDir())
		require.NoError(t, os.WriteFile(".tweetbot.yaml", []byte("search: {}"), 0644))

		assert.Equal(t, ".tweetbot.yaml", DefaultConfig().findConfigFile())
	})

	t.Run("empty path without any file is not an error", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("HOME", t.TempDir())

		cfg := DefaultConfig()
		assert.NoError(t, cfg.LoadFromFile(""))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		setupConfig   func(*Config)
		expectError   bool
		errorContains []string
	}{
		{
			name:        "defaults",
			setupConfig: func(cfg *Config) {},
		},
		{
			name: "bad search settings",
			setupConfig: func(cfg *Config) {
				cfg.Search.Query = "  "
				cfg.Search.Count = 101
				cfg.Search.TargetMatches = 0
				cfg.Search.MaxPolls = -1
			},
			expectError: true,
			errorContains: []string{
				"search query is required",
				"search count must be between 1 and 100",
				"target matches must be positive",
				"max polls cannot be negative",
			},
		},
		{
			name: "bad thresholds",
			setupConfig: func(cfg *Config) {
				cfg.Filter.MaxLikes = 0
				cfg.Filter.MaxFollowers = -5
			},
			expectError:   true,
			errorContains: []string{"max likes must be positive", "max followers must be positive"},
		},
		{
			name: "bad rate limit",
			setupConfig: func(cfg *Config) {
				cfg.RateLimit.MinRemaining = -1
				cfg.RateLimit.WaitInterval = 0
				cfg.RateLimit.RequestsPerMinute = 0
			},
			expectError: true,
			errorContains: []string{
				"min remaining cannot be negative",
				"wait interval must be positive",
				"requests per minute must be positive",
			},
		},
		{
			name: "negative like delay",
			setupConfig: func(cfg *Config) {
				cfg.Like.MaxJitter = -time.Second
			},
			expectError:   true,
			errorContains: []string{"like delays cannot be negative"},
		},
		{
			name: "history without path",
			setupConfig: func(cfg *Config) {
				cfg.History.Enabled = true
				cfg.History.Path = ""
			},
			expectError:   true,
			errorContains: []string{"history path is required"},
		},
		{
			name: "timeline page too large",
			setupConfig: func(cfg *Config) {
				cfg.Timeline.PageSize = 500
			},
			expectError:   true,
			errorContains: []string{"timeline page size"},
		},
		{
			name: "invalid log level",
			setupConfig: func(cfg *Config) {
				cfg.Logging.Level = "invalid"
			},
			expectError:   true,
			errorContains: []string{"invalid log level"},
		},
		{
			name: "invalid notification type",
			setupConfig: func(cfg *Config) {
				cfg.Notifications.NotificationType = "pager"
			},
			expectError:   true,
			errorContains: []string{"invalid notification type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.setupConfig(cfg)

			err := cfg.Validate()

			if tt.expectError {
				require.Error(t, err)
				for _, contains := range tt.errorContains {
					assert.Contains(t, err.Error(), contains)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ValidateCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumer key is required")
	assert.Contains(t, err.Error(), "access token secret is required")

	cfg.Twitter = TwitterConfig{ConsumerKey: "a", ConsumerSecret: "b", AccessToken: "c", AccessSecret: "d"}
	assert.NoError(t, cfg.ValidateCredentials())
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Search.Query = "#saved"
	cfg.Like.Enabled = true
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "#saved", loaded.Search.Query)
	assert.True(t, loaded.Like.Enabled)
}

func TestMergeCommandLineFlags(t *testing.T) {
	t.Run("applies known flags", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MergeCommandLineFlags(map[string]interface{}{
			"query":        "#flag",
			"target":       3,
			"max-polls":    2,
			"like":         true,
			"report-dir":   "/flag/out",
			"json":         true,
			"history":      true,
			"metrics-addr": ":9100",
			"log-level":    "error",
		})

		assert.Equal(t, "#flag", cfg.Search.Query)
		assert.Equal(t, 3, cfg.Search.TargetMatches)
		assert.Equal(t, 2, cfg.Search.MaxPolls)
		assert.True(t, cfg.Like.Enabled)
		assert.Equal(t, "/flag/out", cfg.Report.Directory)
		assert.True(t, cfg.Report.JSON)
		assert.True(t, cfg.History.Enabled)
		assert.Equal(t, ":9100", cfg.Metrics.Addr)
		assert.Equal(t, "error", cfg.Logging.Level)
	})

	t.Run("invalid values are ignored", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MergeCommandLineFlags(map[string]interface{}{
			"target":              "not a number",
			"requests-per-minute": -1,
			"query":               "",
		})

		assert.Equal(t, DefaultConfig().Search, cfg.Search)
		assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	})

	t.Run("nil map", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MergeCommandLineFlags(nil)
		assert.Equal(t, DefaultConfig(), cfg)
	})
}

func TestLoad(t *testing.T) {
	t.Run("precedence order", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("HOME", t.TempDir())

		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
search:
  query: "#file"
  lang: fr
report:
  directory: /file/out
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		t.Setenv("TWEETBOT_QUERY", "#env")
		t.Setenv("TWEETBOT_REPORT_DIR", "/env/out")

		cfg, err := Load(configPath, map[string]interface{}{"query": "#flag"})
		require.NoError(t, err)

		assert.Equal(t, "#flag", cfg.Search.Query)      // flags
		assert.Equal(t, "/env/out", cfg.Report.Directory) // env
		assert.Equal(t, "fr", cfg.Search.Lang)           // file
		assert.Equal(t, 100, cfg.Search.Count)           // defaults
	})

	t.Run("validation failure", func(t *testing.T) {
		chdir(t, t.TempDir())
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("search:\n  count: 500\n"), 0644))

		cfg, err := Load(configPath, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
		assert.Nil(t, cfg)
	})

	t.Run("loads .env file", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("HOME", t.TempDir())
		// t.Setenv restores the variables godotenv sets below
		t.Setenv("consumer_key", "")
		t.Setenv("access_token_key", "")

		envContent := "consumer_key=dotenv_ck\naccess_token_key=dotenv_at\n"
		require.NoError(t, os.WriteFile(".env", []byte(envContent), 0644))
		os.Unsetenv("consumer_key")
		os.Unsetenv("access_token_key")

		cfg, err := Load("", nil)
		require.NoError(t, err)

		assert.Equal(t, "dotenv_ck", cfg.Twitter.ConsumerKey)
		assert.Equal(t, "dotenv_at", cfg.Twitter.AccessToken)
	})
}

func TestDurationParsing(t *testing.T) {
	yamlContent := `
rate_limit:
  wait_interval: 90s
  max_wait: 10m
retry:
  base_delay: 500ms
  max_delay: 1m30s
history:
  author_cooldown: 168h
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(yamlContent), &cfg))

	assert.Equal(t, 90*time.Second, cfg.RateLimit.WaitInterval)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.MaxWait)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 90*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 7*24*time.Hour, cfg.History.AuthorCooldown)
}

func BenchmarkValidate(b *testing.B) {
	cfg := DefaultConfig()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cfg.Validate()
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
