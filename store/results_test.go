// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/seats"
)

func TestLoadResultsInput(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	closes := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	now := closes.Add(time.Hour)

	e := addElection(t, s, "Board", closes)
	require.NoError(t, s.UpsertDistrict(ctx, models.District{Number: 2, Name: "District 2"}))
	require.NoError(t, s.UpsertDistrict(ctx, models.District{Number: 1, Name: "District 1"}))

	grantStart := e.MembershipEligibilityDeadline.AddDate(-1, 0, 0)
	eligible := addMember(t, s, "eve", intp(1))
	require.NoError(t, s.AddGrant(ctx, &models.RecognitionGrant{
		MemberID: eligible.ID, Kind: models.GrantParticipation, StartDate: grantStart,
	}))
	floating := addMember(t, s, "finn", nil)
	require.NoError(t, s.AddGrant(ctx, &models.RecognitionGrant{
		MemberID: floating.ID, Kind: models.GrantFiscal, StartDate: grantStart,
	}))
	addMember(t, s, "ivan", intp(1))

	nominee, err := s.GetOrCreateNominee(ctx, e.ID, eligible.ID, "")
	require.NoError(t, err)
	require.NoError(t, s.CreateNomination(ctx, &models.Nomination{
		ID: "self", NomineeID: nominee.ID, NominatorID: eligible.ID, Statement: "me",
		AcceptanceStatus: models.AcceptanceAccepted, AcceptanceDate: &now, CreatedAt: now, UpdatedAt: now,
	}))

	q := &models.Question{ElectionID: e.ID, Text: "Raise dues?"}
	require.NoError(t, s.AddQuestion(ctx, q))
	_, err = s.SaveBallot(ctx, &models.Ballot{
		ID: "b1", ElectionID: e.ID, VoterID: eligible.ID, SubmittedAt: now,
		NomineeIDs: []string{nominee.ID}, Answers: map[string]string{q.ID: models.AnswerYes},
	})
	require.NoError(t, err)

	in, err := s.LoadResultsInput(ctx, e, now)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, in.Districts)
	assert.Equal(t, 2, in.AtLargeSeats)
	require.Len(t, in.Candidates, 1)
	assert.Equal(t, nominee.ID, in.Candidates[0].NomineeID)
	require.Len(t, in.Ballots, 1)
	require.Len(t, in.Questions, 1)
	require.Len(t, in.EligibleVoters, 2)
	var withDistrict int
	for _, d := range in.EligibleVoters {
		if d != nil {
			assert.Equal(t, 1, *d)
			withDistrict++
		}
	}
	assert.Equal(t, 1, withDistrict)

	report := seats.Calculate(in)
	assert.Equal(t, 1, report.TotalBallots)
	assert.Equal(t, 2, report.TotalEligible)
}
