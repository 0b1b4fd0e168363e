// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"

	"github.com/danielhkuo/board-elections/eligibility"
	"github.com/danielhkuo/board-elections/models"
)

// Facts loads the eligibility facts for one member. It satisfies
// eligibility.FactsProvider. Unknown members yield ErrNotFound.
func (s *Store) Facts(ctx context.Context, memberID string) (eligibility.Facts, error) {
	var f eligibility.Facts

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM member WHERE id = $1`, memberID).Scan(&exists)
	if err != nil {
		return f, wrap(err)
	}

	if f.Subscriptions, err = s.subscriptions(ctx, memberID); err != nil {
		return f, err
	}

	var linked int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM community_account WHERE member_id = $1 AND provider = $2
	`, memberID, models.ProviderDiscord).Scan(&linked)
	if err != nil {
		return f, wrap(err)
	}
	f.HasCommunityAccount = linked > 0

	if f.Activity, err = s.activity(ctx, memberID); err != nil {
		return f, err
	}
	if f.Grants, err = s.grants(ctx, memberID); err != nil {
		return f, err
	}
	return f, nil
}

func (s *Store) subscriptions(ctx context.Context, memberID string) ([]models.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, status, current_period_start, current_period_end
		FROM subscription WHERE member_id = $1
		ORDER BY current_period_end
	`, memberID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.MemberID, &sub.Status, &sub.CurrentPeriodStart, &sub.CurrentPeriodEnd); err != nil {
			return nil, wrap(err)
		}
		out = append(out, sub)
	}
	return out, wrap(rows.Err())
}

func (s *Store) activity(ctx context.Context, memberID string) ([]models.ActivityDay, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, count FROM activity_day WHERE member_id = $1 ORDER BY day
	`, memberID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []models.ActivityDay
	for rows.Next() {
		var day string
		a := models.ActivityDay{MemberID: memberID}
		if err := rows.Scan(&day, &a.Count); err != nil {
			return nil, wrap(err)
		}
		if a.Day, err = parseDate(day); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, wrap(rows.Err())
}

func (s *Store) grants(ctx context.Context, memberID string) ([]models.RecognitionGrant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, start_date, end_date, reason
		FROM recognition_grant WHERE member_id = $1 ORDER BY start_date
	`, memberID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []models.RecognitionGrant
	for rows.Next() {
		var start string
		var end sql.NullString
		g := models.RecognitionGrant{MemberID: memberID}
		if err := rows.Scan(&g.ID, &g.Kind, &start, &end, &g.Reason); err != nil {
			return nil, wrap(err)
		}
		if g.StartDate, err = parseDate(start); err != nil {
			return nil, err
		}
		if end.Valid {
			e, err := parseDate(end.String)
			if err != nil {
				return nil, err
			}
			g.EndDate = &e
		}
		out = append(out, g)
	}
	return out, wrap(rows.Err())
}
