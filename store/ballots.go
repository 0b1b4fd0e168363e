// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/seats"
)

// SaveBallot records b as the voter's ballot for the election. A voter who
// already voted keeps their ballot ID; its selections and answers are
// replaced. Call it inside WithTx so the replacement is atomic.
func (s *Store) SaveBallot(ctx context.Context, b *models.Ballot) (updated bool, err error) {
	var existingID string
	err = s.db.QueryRowContext(ctx, `
		SELECT id FROM ballot WHERE election_id = $1 AND voter_id = $2
	`, b.ElectionID, b.VoterID).Scan(&existingID)

	switch {
	case err == nil:
		updated = true
		b.ID = existingID
		if _, err := s.db.ExecContext(ctx, `UPDATE ballot SET submitted_at = $1 WHERE id = $2`,
			b.SubmittedAt.UTC(), b.ID); err != nil {
			return false, wrap(err)
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM candidate_vote WHERE ballot_id = $1`, b.ID); err != nil {
			return false, wrap(err)
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM question_vote WHERE ballot_id = $1`, b.ID); err != nil {
			return false, wrap(err)
		}
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO ballot (id, election_id, voter_id, submitted_at) VALUES ($1, $2, $3, $4)
		`, b.ID, b.ElectionID, b.VoterID, b.SubmittedAt.UTC()); err != nil {
			return false, wrap(err)
		}
	default:
		return false, wrap(err)
	}

	seen := map[string]bool{}
	for _, nomineeID := range b.NomineeIDs {
		if seen[nomineeID] {
			continue
		}
		seen[nomineeID] = true
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO candidate_vote (ballot_id, nominee_id) VALUES ($1, $2)
		`, b.ID, nomineeID); err != nil {
			return false, wrap(err)
		}
	}
	for questionID, answer := range b.Answers {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO question_vote (ballot_id, question_id, answer) VALUES ($1, $2, $3)
		`, b.ID, questionID, answer); err != nil {
			return false, wrap(err)
		}
	}
	return updated, nil
}

// GetBallot returns the voter's ballot for an election.
func (s *Store) GetBallot(ctx context.Context, electionID, voterID string) (*models.Ballot, error) {
	b := models.Ballot{ElectionID: electionID, VoterID: voterID, NomineeIDs: []string{}, Answers: map[string]string{}}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, submitted_at FROM ballot WHERE election_id = $1 AND voter_id = $2
	`, electionID, voterID).Scan(&b.ID, &b.SubmittedAt)
	if err != nil {
		return nil, wrap(err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT nominee_id FROM candidate_vote WHERE ballot_id = $1 ORDER BY nominee_id`, b.ID)
	if err != nil {
		return nil, wrap(err)
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, wrap(err)
		}
		b.NomineeIDs = append(b.NomineeIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT question_id, answer FROM question_vote WHERE ballot_id = $1`, b.ID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()
	for rows.Next() {
		var qid, answer string
		if err := rows.Scan(&qid, &answer); err != nil {
			return nil, wrap(err)
		}
		b.Answers[qid] = answer
	}
	return &b, wrap(rows.Err())
}

// CountBallots returns how many ballots were cast in an election.
func (s *Store) CountBallots(ctx context.Context, electionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ballot WHERE election_id = $1`, electionID).Scan(&n)
	return n, wrap(err)
}

// LoadBallots returns every ballot of an election in the form the seat
// engine consumes, tagged with the voter's current home district.
func (s *Store) LoadBallots(ctx context.Context, electionID string) ([]seats.Ballot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, m.district_number
		FROM ballot b
		JOIN member m ON m.id = b.voter_id
		WHERE b.election_id = $1
	`, electionID)
	if err != nil {
		return nil, wrap(err)
	}
	byID := map[string]*seats.Ballot{}
	var ids []string
	for rows.Next() {
		var id string
		var district sql.NullInt64
		if err := rows.Scan(&id, &district); err != nil {
			rows.Close()
			return nil, wrap(err)
		}
		byID[id] = &seats.Ballot{VoterDistrict: intPtr(district), Answers: map[string]string{}}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT cv.ballot_id, cv.nominee_id
		FROM candidate_vote cv
		JOIN ballot b ON b.id = cv.ballot_id
		WHERE b.election_id = $1
	`, electionID)
	if err != nil {
		return nil, wrap(err)
	}
	for rows.Next() {
		var ballotID, nomineeID string
		if err := rows.Scan(&ballotID, &nomineeID); err != nil {
			rows.Close()
			return nil, wrap(err)
		}
		if b, ok := byID[ballotID]; ok {
			b.NomineeIDs = append(b.NomineeIDs, nomineeID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT qv.ballot_id, qv.question_id, qv.answer
		FROM question_vote qv
		JOIN ballot b ON b.id = qv.ballot_id
		WHERE b.election_id = $1
	`, electionID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()
	for rows.Next() {
		var ballotID, questionID, answer string
		if err := rows.Scan(&ballotID, &questionID, &answer); err != nil {
			return nil, wrap(err)
		}
		if b, ok := byID[ballotID]; ok {
			b.Answers[questionID] = answer
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}

	sort.Strings(ids)
	out := make([]seats.Ballot, 0, len(ids))
	for _, id := range ids {
		out = append(out, *byID[id])
	}
	return out, nil
}
