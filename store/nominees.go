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

const nomineeColumns = `n.id, n.election_id, n.member_id, n.photo_key, n.public_display_name,
	n.responsibilities_acknowledged, n.created_at, n.updated_at`

func scanNominee(row interface{ Scan(...any) error }, extra ...any) (*models.Nominee, error) {
	var n models.Nominee
	dest := append([]any{&n.ID, &n.ElectionID, &n.MemberID, &n.PhotoKey, &n.PublicDisplayName,
		&n.ResponsibilitiesAcknowledged, &n.CreatedAt, &n.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &n, nil
}

// GetOrCreateNominee returns the nominee for (election, member), creating it
// on first use. Concurrent callers converge on the same row.
func (s *Store) GetOrCreateNominee(ctx context.Context, electionID, memberID, displayName string) (*models.Nominee, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nominee (id, election_id, member_id, public_display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (election_id, member_id) DO NOTHING
	`, uuid.NewString(), electionID, memberID, displayName, now, now)
	if err != nil {
		return nil, wrap(err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+nomineeColumns+` FROM nominee n WHERE n.election_id = $1 AND n.member_id = $2
	`, electionID, memberID)
	n, err := scanNominee(row)
	if err != nil {
		return nil, wrap(err)
	}
	return n, nil
}

func (s *Store) GetNominee(ctx context.Context, id string) (*models.Nominee, error) {
	n, err := scanNominee(s.db.QueryRowContext(ctx, `SELECT `+nomineeColumns+` FROM nominee n WHERE n.id = $1`, id))
	if err != nil {
		return nil, wrap(err)
	}
	return n, nil
}

// UpdateNomineeProfile stores the nominee's photo, display name and
// acknowledgment.
func (s *Store) UpdateNomineeProfile(ctx context.Context, n *models.Nominee) error {
	n.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE nominee
		SET photo_key = $1, public_display_name = $2, responsibilities_acknowledged = $3, updated_at = $4
		WHERE id = $5
	`, n.PhotoKey, n.PublicDisplayName, n.ResponsibilitiesAcknowledged, n.UpdatedAt, n.ID)
	if err != nil {
		return wrap(err)
	}
	return mustAffect(res)
}

// Candidate is an accepted nominee together with the member facts the ballot
// and results need.
type Candidate struct {
	Nominee     models.Nominee `json:"nominee"`
	DisplayName string         `json:"display_name"`
	District    *int           `json:"district"`
}

// ListCandidates returns the nominees of an election that hold at least one
// accepted, submitted nomination.
func (s *Store) ListCandidates(ctx context.Context, electionID string) ([]Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nomineeColumns+`, m.first_name, m.last_name, m.username, m.district_number
		FROM nominee n
		JOIN member m ON m.id = n.member_id
		WHERE n.election_id = $1
		  AND EXISTS (
			SELECT 1 FROM nomination x
			WHERE x.nominee_id = n.id AND x.draft = $2 AND x.acceptance_status = $3
		  )
		ORDER BY n.id
	`, electionID, false, models.AcceptanceAccepted)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	out := []Candidate{}
	for rows.Next() {
		var m models.Member
		var district sql.NullInt64
		n, err := scanNominee(rows, &m.FirstName, &m.LastName, &m.Username, &district)
		if err != nil {
			return nil, wrap(err)
		}
		name := n.PublicDisplayName
		if name == "" {
			name = m.DisplayName()
		}
		out = append(out, Candidate{Nominee: *n, DisplayName: name, District: intPtr(district)})
	}
	return out, wrap(rows.Err())
}
