// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/danielhkuo/board-elections/eligibility"
	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/seats"
)

// EligibleVoterDistricts returns the home district of every member who is
// eligible as of the election's membership deadline, nil for members
// without a district.
func (s *Store) EligibleVoterDistricts(ctx context.Context, e *models.Election, now time.Time) ([]*int, error) {
	members, err := s.ListMembers(ctx)
	if err != nil {
		return nil, err
	}

	out := []*int{}
	for _, m := range members {
		facts, err := s.Facts(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("facts for %s: %w", m.ID, err)
		}
		if eligibility.Evaluate(facts, e.MembershipEligibilityDeadline, now).Eligible {
			out = append(out, m.District)
		}
	}
	return out, nil
}

// LoadResultsInput gathers everything the seat engine needs for one
// election.
func (s *Store) LoadResultsInput(ctx context.Context, e *models.Election, now time.Time) (seats.Input, error) {
	in := seats.Input{
		DistrictSeatMinVoters: e.DistrictSeatMinVoters,
		DistrictSeatMinVotes:  e.DistrictSeatMinVotes,
		AtLargeSeats:          e.AtLargeSeatsCount,
	}

	districts, err := s.ListDistricts(ctx)
	if err != nil {
		return in, err
	}
	for _, d := range districts {
		in.Districts = append(in.Districts, d.Number)
	}

	candidates, err := s.ListCandidates(ctx, e.ID)
	if err != nil {
		return in, err
	}
	for _, c := range candidates {
		in.Candidates = append(in.Candidates, seats.Candidate{
			NomineeID:   c.Nominee.ID,
			DisplayName: c.DisplayName,
			District:    c.District,
		})
	}

	if in.Ballots, err = s.LoadBallots(ctx, e.ID); err != nil {
		return in, err
	}
	if in.Questions, err = s.ListQuestions(ctx, e.ID); err != nil {
		return in, err
	}
	if in.EligibleVoters, err = s.EligibleVoterDistricts(ctx, e, now); err != nil {
		return in, err
	}
	return in, nil
}
