package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetbot/pkg/logger"
	"tweetbot/pkg/models"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, 7*24*time.Hour, 16)
	require.NoError(t, err)
	s.SetLogger(logger.NewTestLogger())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndHas(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "history.db"))
	ctx := context.Background()

	assert.False(t, s.Has("alice"))

	require.NoError(t, s.RecordLike(ctx, models.Tweet{ID: "1", UserScreenName: "Alice", Text: "day 1"}))
	assert.True(t, s.Has("alice"))
	assert.True(t, s.Has("ALICE"))
	assert.False(t, s.Has("bob"))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordLikeIsIdempotent(t *testing.T) {
	s := openTestStore(t, ":memory:")
	ctx := context.Background()

	tw := models.Tweet{ID: "1", UserScreenName: "alice"}
	require.NoError(t, s.RecordLike(ctx, tw))
	require.NoError(t, s.RecordLike(ctx, tw))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCooldownExpires(t *testing.T) {
	s := openTestStore(t, ":memory:")
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base.Add(-8 * 24 * time.Hour) }
	require.NoError(t, s.RecordLike(ctx, models.Tweet{ID: "1", UserScreenName: "alice"}))
	s.cache.Purge()

	s.now = func() time.Time { return base }
	at, ok, err := s.LastLiked(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.WithinDuration(t, base.Add(-8*24*time.Hour), at, time.Second)
	assert.False(t, s.Has("alice"), "likes older than the cooldown do not count")
}

func TestPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path, time.Hour, 0)
	require.NoError(t, err)
	require.NoError(t, s.RecordLike(context.Background(), models.Tweet{ID: "9", UserScreenName: "carol"}))
	require.NoError(t, s.Close())

	reopened := openTestStore(t, path)
	assert.True(t, reopened.Has("carol"))
}

func TestPrune(t *testing.T) {
	s := openTestStore(t, ":memory:")
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base.Add(-30 * 24 * time.Hour) }
	require.NoError(t, s.RecordLike(ctx, models.Tweet{ID: "1", UserScreenName: "old"}))
	s.now = func() time.Time { return base }
	require.NoError(t, s.RecordLike(ctx, models.Tweet{ID: "2", UserScreenName: "new"}))

	removed, err := s.Prune(ctx, base.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
