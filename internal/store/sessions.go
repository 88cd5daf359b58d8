package store

import (
	"context"
	"fmt"
	"time"
)

// StartHeroSession records that a hero typewriter stream opened.
func (s *Store) StartHeroSession(ctx context.Context, id, transport string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hero_sessions (id, transport, started_at) VALUES (?, ?, ?)
	`, id, transport, at.UTC())
	if err != nil {
		return fmt.Errorf("start hero session: %w", err)
	}
	return nil
}

// EndHeroSession closes a hero stream record with the number of ticks it ran.
func (s *Store) EndHeroSession(ctx context.Context, id string, at time.Time, ticks int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE hero_sessions SET ended_at = ?, ticks = ? WHERE id = ?
	`, at.UTC(), ticks, id)
	if err != nil {
		return fmt.Errorf("end hero session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
