// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"time"
)

// NoticeDelivered reports whether recipient already received the notice of
// run runID.
func (s *Store) NoticeDelivered(ctx context.Context, runID, recipient string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notice_delivery WHERE run_id = $1 AND recipient = $2
	`, runID, recipient).Scan(&n)
	if err != nil {
		return false, wrap(err)
	}
	return n > 0, nil
}

// RecordNotice marks recipient as notified for runID. Recording twice is a
// no-op.
func (s *Store) RecordNotice(ctx context.Context, runID, recipient string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notice_delivery (run_id, recipient, sent_at) VALUES ($1, $2, $3)
		ON CONFLICT (run_id, recipient) DO NOTHING
	`, runID, recipient, at.UTC())
	return wrap(err)
}

// CountNotices returns how many recipients were notified in runID.
func (s *Store) CountNotices(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notice_delivery WHERE run_id = $1`, runID).Scan(&n)
	return n, wrap(err)
}
