package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", time.Hour, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	got, err := s.Get(ctx, "https://example.com")
	require.NoError(t, err)
	require.Nil(t, got)

	checked := time.UnixMilli(time.Now().UnixMilli())
	require.NoError(t, s.Put(ctx, &Entry{URL: "https://example.com", Status: "http-error", Code: 500, Reason: "500 Internal Server Error", CheckedAt: checked, FailureCount: 2, FirstFailedAt: checked.Add(-time.Hour)}))

	got, err = s.Get(ctx, "https://example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "http-error", got.Status)
	require.Equal(t, 500, got.Code)
	require.False(t, got.Valid)
	require.Equal(t, 2, got.FailureCount)
	require.True(t, checked.Equal(got.CheckedAt))
	require.True(t, checked.Add(-time.Hour).Equal(got.FirstFailedAt))

	require.NoError(t, s.Put(ctx, &Entry{URL: "https://example.com", Status: "ok", Code: 200, Valid: true}))
	got, err = s.Get(ctx, "https://example.com")
	require.NoError(t, err)
	require.True(t, got.Valid)
	require.Equal(t, 0, got.FailureCount)
	require.True(t, got.FirstFailedAt.IsZero())
}

func TestStore_Fresh(t *testing.T) {
	s := newStore(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.False(t, s.Fresh(nil))
	require.True(t, s.Fresh(&Entry{Valid: true, CheckedAt: now.Add(-30 * time.Minute)}))
	require.False(t, s.Fresh(&Entry{Valid: true, CheckedAt: now.Add(-2 * time.Hour)}))
	require.True(t, s.Fresh(&Entry{Valid: false, CheckedAt: now.Add(-30 * time.Second)}))
	require.False(t, s.Fresh(&Entry{Valid: false, CheckedAt: now.Add(-5 * time.Minute)}))
}

func TestStore_ClearAndPrune(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now()

	require.NoError(t, s.Put(ctx, &Entry{URL: "a", Status: "ok", Valid: true, CheckedAt: now}))
	require.NoError(t, s.Put(ctx, &Entry{URL: "b", Status: "ok", Valid: true, CheckedAt: now.Add(-3 * time.Hour)}))

	n, err := s.Prune(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = s.Clear(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestOpen_PersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "links.db")

	s, err := Open(path, time.Hour, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, &Entry{URL: "https://example.com", Status: "ok", Code: 200, Valid: true}))
	require.NoError(t, s.Close())

	s, err = Open(path, time.Hour, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	got, err := s.Get(ctx, "https://example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 200, got.Code)
}

func TestTrack(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	first := Track(nil, Entry{URL: "u"}, now)
	require.Equal(t, 1, first.FailureCount)
	require.Equal(t, now, first.FirstFailedAt)

	second := Track(&Entry{FailureCount: 1, FirstFailedAt: earlier}, Entry{URL: "u"}, now)
	require.Equal(t, 2, second.FailureCount)
	require.Equal(t, earlier, second.FirstFailedAt)

	recovered := Track(&second, Entry{URL: "u", Valid: true}, now)
	require.Equal(t, 0, recovered.FailureCount)
	require.True(t, recovered.FirstFailedAt.IsZero())

	afterOK := Track(&Entry{Valid: true}, Entry{URL: "u"}, now)
	require.Equal(t, 1, afterOK.FailureCount)
}
