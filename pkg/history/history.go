// Package history remembers liked tweets across runs so an author is not
// liked again within a cooldown window.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	_ "modernc.org/sqlite"

	"tweetbot/pkg/logger"
	"tweetbot/pkg/models"
)

// Store is a SQLite table of likes fronted by an in-memory cache of
// author -> last liked time.
type Store struct {
	db       *sql.DB
	cache    *expirable.LRU[string, time.Time]
	cooldown time.Duration
	logger   logger.Logger
	now      func() time.Time
}

// Open creates or opens the database at path.
func Open(path string, cooldown time.Duration, cacheSize int) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	if cacheSize <= 0 {
		cacheSize = 1024
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and serialises writes
	db.SetMaxOpenConns(1)

	s := &Store{
		db:       db,
		cache:    expirable.NewLRU[string, time.Time](cacheSize, nil, cooldown),
		cooldown: cooldown,
		logger:   logger.GetLogger(),
		now:      time.Now,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return s, nil
}

// SetLogger replaces the store's logger.
func (s *Store) SetLogger(l logger.Logger) {
	s.logger = l
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS likes (
		tweet_id TEXT PRIMARY KEY,
		screen_name TEXT NOT NULL,
		text TEXT,
		likes INTEGER,
		followers INTEGER,
		liked_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_likes_screen_name ON likes(screen_name, liked_at);
	CREATE INDEX IF NOT EXISTS idx_likes_liked_at ON likes(liked_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordLike stores a successful like.
func (s *Store) RecordLike(ctx context.Context, t models.Tweet) error {
	now := s.now()
	name := strings.ToLower(t.UserScreenName)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO likes (tweet_id, screen_name, text, likes, followers, liked_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tweet_id) DO UPDATE SET liked_at = excluded.liked_at
	`, t.ID, name, t.Text, t.Likes, t.UserFollowers, now.Unix())
	if err != nil {
		return fmt.Errorf("failed to record like: %w", err)
	}

	s.cache.Add(name, now)
	return nil
}

// LastLiked returns when screenName was last liked, if ever.
func (s *Store) LastLiked(ctx context.Context, screenName string) (time.Time, bool, error) {
	name := strings.ToLower(screenName)
	if at, ok := s.cache.Get(name); ok {
		return at, true, nil
	}

	var ts sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(liked_at) FROM likes WHERE screen_name = ?`, name).Scan(&ts)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query history: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, false, nil
	}

	at := time.Unix(ts.Int64, 0)
	if s.now().Sub(at) < s.cooldown {
		s.cache.Add(name, at)
	}
	return at, true, nil
}

// Has reports whether screenName was liked within the cooldown. Lookup
// errors are logged and treated as "not seen".
func (s *Store) Has(screenName string) bool {
	at, ok, err := s.LastLiked(context.Background(), screenName)
	if err != nil {
		s.logger.WarnWithFields("History lookup failed", map[string]interface{}{
			"screen_name": screenName,
			"error":       err.Error(),
		})
		return false
	}
	return ok && s.now().Sub(at) < s.cooldown
}

// Count returns the number of recorded likes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// Prune deletes likes older than before and returns how many were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM likes WHERE liked_at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}
