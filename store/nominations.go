// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/danielhkuo/board-elections/models"
)

const nominationSelect = `
	SELECT x.id, x.nominee_id, x.nominator_id, x.statement, x.draft, x.acceptance_status,
		x.acceptance_date, x.acceptance_note, x.created_at, x.updated_at,
		n.member_id, n.election_id
	FROM nomination x
	JOIN nominee n ON n.id = x.nominee_id`

func scanNomination(row interface{ Scan(...any) error }) (*models.Nomination, error) {
	var x models.Nomination
	var date sql.NullTime
	var note sql.NullString
	if err := row.Scan(&x.ID, &x.NomineeID, &x.NominatorID, &x.Statement, &x.Draft, &x.AcceptanceStatus,
		&date, &note, &x.CreatedAt, &x.UpdatedAt, &x.NomineeMemberID, &x.ElectionID); err != nil {
		return nil, err
	}
	if date.Valid {
		x.AcceptanceDate = &date.Time
	}
	if note.Valid {
		x.AcceptanceNote = &note.String
	}
	return &x, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CreateNomination inserts x. A second nomination of the same nominee by the
// same nominator yields ErrAlreadyExists.
func (s *Store) CreateNomination(ctx context.Context, x *models.Nomination) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nomination (id, nominee_id, nominator_id, statement, draft, acceptance_status,
			acceptance_date, acceptance_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, x.ID, x.NomineeID, x.NominatorID, x.Statement, x.Draft, x.AcceptanceStatus,
		nullTime(x.AcceptanceDate), nullString(x.AcceptanceNote), x.CreatedAt.UTC(), x.UpdatedAt.UTC())
	return wrap(err)
}

func (s *Store) GetNomination(ctx context.Context, id string) (*models.Nomination, error) {
	x, err := scanNomination(s.db.QueryRowContext(ctx, nominationSelect+` WHERE x.id = $1`, id))
	if err != nil {
		return nil, wrap(err)
	}
	return x, nil
}

// FindNomination looks up the nomination of nomineeID by nominatorID.
func (s *Store) FindNomination(ctx context.Context, nomineeID, nominatorID string) (*models.Nomination, error) {
	x, err := scanNomination(s.db.QueryRowContext(ctx,
		nominationSelect+` WHERE x.nominee_id = $1 AND x.nominator_id = $2`, nomineeID, nominatorID))
	if err != nil {
		return nil, wrap(err)
	}
	return x, nil
}

// UpdateNomination writes back the mutable fields of x.
func (s *Store) UpdateNomination(ctx context.Context, x *models.Nomination) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE nomination
		SET statement = $1, draft = $2, acceptance_status = $3, acceptance_date = $4,
			acceptance_note = $5, updated_at = $6
		WHERE id = $7
	`, x.Statement, x.Draft, x.AcceptanceStatus, nullTime(x.AcceptanceDate), nullString(x.AcceptanceNote),
		x.UpdatedAt.UTC(), x.ID)
	if err != nil {
		return wrap(err)
	}
	return mustAffect(res)
}

// ListMemberNominations returns the nominations a member made or received in
// an election, oldest first.
func (s *Store) ListMemberNominations(ctx context.Context, electionID, memberID string) ([]*models.Nomination, error) {
	rows, err := s.db.QueryContext(ctx, nominationSelect+`
		WHERE n.election_id = $1 AND (x.nominator_id = $2 OR n.member_id = $2)
		ORDER BY x.created_at, x.id
	`, electionID, memberID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	out := []*models.Nomination{}
	for rows.Next() {
		x, err := scanNomination(rows)
		if err != nil {
			return nil, wrap(err)
		}
		out = append(out, x)
	}
	return out, wrap(rows.Err())
}
