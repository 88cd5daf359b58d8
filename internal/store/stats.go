package store

import (
	"context"
	"fmt"
	"time"
)

// Stats summarises everything the admin dashboard shows.
type Stats struct {
	TotalVisitors    int64       `json:"total_visitors"`
	UniqueVisitors   int64       `json:"unique_visitors"`
	VisitorsToday    int64       `json:"visitors_today"`
	VisitorsThisWeek int64       `json:"visitors_this_week"`
	TotalMessages    int64       `json:"total_messages"`
	Undelivered      int64       `json:"undelivered_messages"`
	HeroSessions     int64       `json:"hero_sessions"`
	ActiveHero       int64       `json:"active_hero_sessions"`
	HeroTicks        int64       `json:"hero_ticks"`
	TopPages         []PageCount `json:"top_pages"`
	RecentVisitors   []Visitor   `json:"recent_visitors"`
	RecentMessages   []Message   `json:"recent_messages"`
}

// Stats computes dashboard figures relative to now.
func (s *Store) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	week := now.Add(-7 * 24 * time.Hour).UTC()

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{today}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{week}},
		{&stats.TotalMessages, `SELECT COUNT(*) FROM messages`, nil},
		{&stats.Undelivered, `SELECT COUNT(*) FROM messages WHERE delivered = 0`, nil},
		{&stats.HeroSessions, `SELECT COUNT(*) FROM hero_sessions`, nil},
		{&stats.ActiveHero, `SELECT COUNT(*) FROM hero_sessions WHERE ended_at IS NULL`, nil},
		{&stats.HeroTicks, `SELECT COALESCE(SUM(ticks), 0) FROM hero_sessions`, nil},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("stats %q: %w", c.query, err)
		}
	}

	var err error
	if stats.TopPages, err = s.TopPages(ctx, 10); err != nil {
		return nil, err
	}
	if stats.RecentVisitors, err = s.RecentVisitors(ctx, 50); err != nil {
		return nil, err
	}
	if stats.RecentMessages, err = s.Messages(ctx, 10); err != nil {
		return nil, err
	}
	return stats, nil
}
