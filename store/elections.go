// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/board-elections/models"
)

const electionColumns = `id, title, slug, description, membership_eligibility_deadline,
	nominations_open, nominations_close, voting_opens, voting_closes,
	district_seat_min_voters, district_seat_min_votes, at_large_seats_count, created_at`

func scanElection(row interface{ Scan(...any) error }) (*models.Election, error) {
	var e models.Election
	if err := row.Scan(&e.ID, &e.Title, &e.Slug, &e.Description, &e.MembershipEligibilityDeadline,
		&e.NominationsOpen, &e.NominationsClose, &e.VotingOpens, &e.VotingCloses,
		&e.DistrictSeatMinVoters, &e.DistrictSeatMinVotes, &e.AtLargeSeatsCount, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateElection inserts e. The caller validates the schedule; a taken slug
// yields ErrAlreadyExists.
func (s *Store) CreateElection(ctx context.Context, e *models.Election) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Slug == "" {
		e.Slug = models.Slugify(e.Title)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO election (`+electionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, e.ID, e.Title, e.Slug, e.Description, e.MembershipEligibilityDeadline.UTC(),
		e.NominationsOpen.UTC(), e.NominationsClose.UTC(), e.VotingOpens.UTC(), e.VotingCloses.UTC(),
		e.DistrictSeatMinVoters, e.DistrictSeatMinVotes, e.AtLargeSeatsCount, e.CreatedAt.UTC())
	return wrap(err)
}

func (s *Store) GetElection(ctx context.Context, id string) (*models.Election, error) {
	e, err := scanElection(s.db.QueryRowContext(ctx, `SELECT `+electionColumns+` FROM election WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(err)
	}
	return e, nil
}

func (s *Store) GetElectionBySlug(ctx context.Context, slug string) (*models.Election, error) {
	e, err := scanElection(s.db.QueryRowContext(ctx, `SELECT `+electionColumns+` FROM election WHERE slug = $1`, slug))
	if err != nil {
		return nil, wrap(err)
	}
	return e, nil
}

// ListElections returns elections newest first by voting close.
func (s *Store) ListElections(ctx context.Context) ([]*models.Election, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+electionColumns+` FROM election ORDER BY voting_closes DESC, id`)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []*models.Election
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, wrap(err)
		}
		out = append(out, e)
	}
	return out, wrap(rows.Err())
}

// UpcomingElection returns the election whose voting closes soonest after now.
func (s *Store) UpcomingElection(ctx context.Context, now time.Time) (*models.Election, error) {
	all, err := s.ListElections(ctx)
	if err != nil {
		return nil, err
	}
	var next *models.Election
	for _, e := range all {
		if !e.VotingCloses.After(now) {
			continue
		}
		if next == nil || e.VotingCloses.Before(next.VotingCloses) {
			next = e
		}
	}
	if next == nil {
		return nil, ErrNotFound
	}
	return next, nil
}

// AddQuestion appends a question. A zero Position places it after the
// existing ones.
func (s *Store) AddQuestion(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Position == 0 {
		var max int
		err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) FROM question WHERE election_id = $1`,
			q.ElectionID).Scan(&max)
		if err != nil {
			return wrap(err)
		}
		q.Position = max + 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO question (id, election_id, position, text) VALUES ($1, $2, $3, $4)
	`, q.ID, q.ElectionID, q.Position, q.Text)
	return wrap(err)
}

func (s *Store) ListQuestions(ctx context.Context, electionID string) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, election_id, position, text FROM question
		WHERE election_id = $1 ORDER BY position, id
	`, electionID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	out := []models.Question{}
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.ElectionID, &q.Position, &q.Text); err != nil {
			return nil, wrap(err)
		}
		out = append(out, q)
	}
	return out, wrap(rows.Err())
}
