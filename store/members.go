// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/board-elections/models"
)

const memberColumns = `id, first_name, last_name, email, username, street_address, zip_code, district_number, created_at`

func scanMember(row interface{ Scan(...any) error }) (*models.Member, error) {
	var m models.Member
	var district sql.NullInt64
	if err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Username,
		&m.StreetAddress, &m.ZipCode, &district, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.District = intPtr(district)
	return &m, nil
}

// CreateMember inserts m, assigning an ID and creation time when missing.
func (s *Store) CreateMember(ctx context.Context, m *models.Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.CreatedAt = m.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO member (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, m.ID, m.FirstName, m.LastName, m.Email, m.Username, m.StreetAddress, m.ZipCode,
		nullInt(m.District), m.CreatedAt)
	return wrap(err)
}

func (s *Store) GetMember(ctx context.Context, id string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM member WHERE id = $1`, id)
	m, err := scanMember(row)
	if err != nil {
		return nil, wrap(err)
	}
	return m, nil
}

// ListMembers returns every member ordered by creation time.
func (s *Store) ListMembers(ctx context.Context) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM member ORDER BY created_at, id`)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, wrap(err)
		}
		out = append(out, m)
	}
	return out, wrap(rows.Err())
}

// SetMemberDistrict assigns or clears the member's home district.
func (s *Store) SetMemberDistrict(ctx context.Context, memberID string, district *int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE member SET district_number = $1 WHERE id = $2`,
		nullInt(district), memberID)
	if err != nil {
		return wrap(err)
	}
	return mustAffect(res)
}

// UpdateMemberAddress stores the mailing address used for the profile check.
func (s *Store) UpdateMemberAddress(ctx context.Context, memberID, street, zip string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE member SET street_address = $1, zip_code = $2 WHERE id = $3`,
		street, zip, memberID)
	if err != nil {
		return wrap(err)
	}
	return mustAffect(res)
}

func (s *Store) AddSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscription (id, member_id, status, current_period_start, current_period_end)
		VALUES ($1, $2, $3, $4, $5)
	`, sub.ID, sub.MemberID, sub.Status, sub.CurrentPeriodStart.UTC(), sub.CurrentPeriodEnd.UTC())
	return wrap(err)
}

// LinkCommunityAccount links or relinks the member's account on a provider.
func (s *Store) LinkCommunityAccount(ctx context.Context, acct models.CommunityAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO community_account (member_id, provider, handle)
		VALUES ($1, $2, $3)
		ON CONFLICT (member_id, provider) DO UPDATE SET handle = excluded.handle
	`, acct.MemberID, acct.Provider, acct.Handle)
	return wrap(err)
}

// RecordActivity sets the message count for a member on one day. Recording
// the same day again replaces the count.
func (s *Store) RecordActivity(ctx context.Context, a models.ActivityDay) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_day (member_id, day, count)
		VALUES ($1, $2, $3)
		ON CONFLICT (member_id, day) DO UPDATE SET count = excluded.count
	`, a.MemberID, formatDate(a.Day), a.Count)
	return wrap(err)
}

func (s *Store) AddGrant(ctx context.Context, g *models.RecognitionGrant) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	var end sql.NullString
	if g.EndDate != nil {
		end = sql.NullString{String: formatDate(*g.EndDate), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recognition_grant (id, member_id, kind, start_date, end_date, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, g.ID, g.MemberID, g.Kind, formatDate(g.StartDate), end, g.Reason)
	return wrap(err)
}

// UpsertDistrict creates or renames a district.
func (s *Store) UpsertDistrict(ctx context.Context, d models.District) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO district (number, name)
		VALUES ($1, $2)
		ON CONFLICT (number) DO UPDATE SET name = excluded.name
	`, d.Number, d.Name)
	return wrap(err)
}

func (s *Store) ListDistricts(ctx context.Context) ([]models.District, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT number, name FROM district ORDER BY number`)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []models.District
	for rows.Next() {
		var d models.District
		if err := rows.Scan(&d.Number, &d.Name); err != nil {
			return nil, wrap(err)
		}
		out = append(out, d)
	}
	return out, wrap(rows.Err())
}
