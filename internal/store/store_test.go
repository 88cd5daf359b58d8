package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "site.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestVisitors(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Now()

	visits := []Visitor{
		{HashedIP: "aaa", Path: "/", Timestamp: now.Add(-3 * time.Minute)},
		{HashedIP: "aaa", Path: "/about", Timestamp: now.Add(-2 * time.Minute)},
		{HashedIP: "bbb", Path: "/", Timestamp: now.Add(-time.Minute)},
		{HashedIP: "ccc", Path: "/blog", Timestamp: now.Add(-400 * 24 * time.Hour)},
	}
	for _, v := range visits {
		require.NoError(t, s.RecordVisit(ctx, v))
	}

	recent, err := s.RecentVisitors(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "bbb", recent[0].HashedIP)
	assert.Equal(t, "/about", recent[1].Path)

	pages, err := s.TopPages(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []PageCount{{Path: "/", Views: 2}}, pages)

	removed, err := s.PruneVisitors(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	stats, err := s.Stats(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalVisitors)
	assert.EqualValues(t, 2, stats.UniqueVisitors)
	assert.EqualValues(t, 3, stats.VisitorsThisWeek)
}

func TestMessages(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	m, err := s.SaveMessage(ctx, Message{Name: "Ada", Email: "ada@example.com", Body: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.CreatedAt.IsZero())

	require.NoError(t, s.MarkDelivered(ctx, m.ID))
	assert.ErrorIs(t, s.MarkDelivered(ctx, "missing"), ErrNotFound)

	list, err := s.Messages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ada", list[0].Name)
	assert.True(t, list[0].Delivered)

	require.NoError(t, s.DeleteMessage(ctx, m.ID))
	assert.ErrorIs(t, s.DeleteMessage(ctx, m.ID), ErrNotFound)
}

func TestHeroSessions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.StartHeroSession(ctx, "one", "sse", now))
	require.NoError(t, s.StartHeroSession(ctx, "two", "websocket", now))
	require.NoError(t, s.EndHeroSession(ctx, "one", now.Add(time.Second), 12))
	assert.ErrorIs(t, s.EndHeroSession(ctx, "nope", now, 1), ErrNotFound)

	stats, err := s.Stats(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.HeroSessions)
	assert.EqualValues(t, 1, stats.ActiveHero)
	assert.EqualValues(t, 12, stats.HeroTicks)
}

func TestOpenClosesOrphanedHeroSessions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "site.db")
	now := time.Now()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.StartHeroSession(ctx, "finished", "sse", now))
	require.NoError(t, s.EndHeroSession(ctx, "finished", now.Add(time.Minute), 40))
	// A process that dies mid-stream never ends this one.
	require.NoError(t, s.StartHeroSession(ctx, "orphan", "websocket", now))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	stats, err := s.Stats(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.HeroSessions)
	assert.Zero(t, stats.ActiveHero)
	assert.EqualValues(t, 40, stats.HeroTicks)

	// The orphan keeps its identity; ending it late is still recorded.
	assert.NoError(t, s.EndHeroSession(ctx, "orphan", now.Add(time.Second), 3))
}
