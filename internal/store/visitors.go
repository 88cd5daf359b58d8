package store

import (
	"context"
	"fmt"
	"time"
)

// Visitor is one tracked page view. The address is stored only as a salted
// hash.
type Visitor struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type PageCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

func (s *Store) RecordVisit(ctx context.Context, v Visitor) error {
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, v.HashedIP, v.UserAgent, v.Path, v.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// RecentVisitors returns up to limit visitors, newest first.
func (s *Store) RecentVisitors(ctx context.Context, limit int) ([]Visitor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query visitors: %w", err)
	}
	defer rows.Close()

	var visitors []Visitor
	for rows.Next() {
		var v Visitor
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

// TopPages returns the most viewed paths.
func (s *Store) TopPages(ctx context.Context, limit int) ([]PageCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(path, ''), COUNT(*) AS views
		FROM visitors
		GROUP BY path
		ORDER BY views DESC, path ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top pages: %w", err)
	}
	defer rows.Close()

	var pages []PageCount
	for rows.Next() {
		var p PageCount
		if err := rows.Scan(&p.Path, &p.Views); err != nil {
			return nil, fmt.Errorf("scan page count: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// PruneVisitors deletes visitor records older than now minus Retention and
// returns how many were removed.
func (s *Store) PruneVisitors(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE timestamp < ?`, now.Add(-Retention).UTC())
	if err != nil {
		return 0, fmt.Errorf("prune visitors: %w", err)
	}
	return res.RowsAffected()
}
