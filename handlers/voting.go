// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/board-elections/auth"
	"github.com/danielhkuo/board-elections/cliparse"
	"github.com/danielhkuo/board-elections/middleware"
	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/nomination"
	"github.com/danielhkuo/board-elections/seats"
	"github.com/danielhkuo/board-elections/store"
)

type VotingHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg}
}

// SubmitBallot handles POST /elections/{slug}/ballot
// Creates the voter's ballot or replaces its selections.
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	memberID, ok := currentMember(w, r)
	if !ok {
		return
	}
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}

	now := time.Now()
	if now.Before(e.VotingOpens) {
		middleware.ErrorResponse(w, http.StatusConflict, "Voting has not yet opened for this election")
		return
	}
	if !e.VotingOpenAt(now) {
		middleware.ErrorResponse(w, http.StatusConflict, "Voting has closed for this election")
		return
	}

	ctx := r.Context()
	m, err := s.GetMember(ctx, memberID)
	if err != nil {
		storeError(w, err, "Member not found", "failed to query member")
		return
	}
	if !m.ProfileComplete() {
		middleware.CodedErrorResponse(w, http.StatusUnprocessableEntity, nomination.CodeProfileIncomplete,
			"Your profile must be complete to vote. Please add your address.")
		return
	}
	eligible, err := eligibleForElection(ctx, h.db, e, memberID)
	if err != nil {
		storeError(w, err, "Member not found", "failed to evaluate voter", "member_id", memberID)
		return
	}
	if !eligible {
		middleware.CodedErrorResponse(w, http.StatusForbidden, nomination.CodeNotEligible,
			"You must have been a member in good standing as of "+
				e.MembershipEligibilityDeadline.In(h.cfg.Location()).Format("January 2, 2006")+
				" to vote in this election.")
		return
	}

	var req models.BallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	candidates, err := s.ListCandidates(ctx, e.ID)
	if err != nil {
		storeError(w, err, "", "failed to list candidates", "election_id", e.ID)
		return
	}
	onBallot := map[string]bool{}
	for _, c := range candidates {
		onBallot[c.Nominee.ID] = true
	}
	for _, id := range req.NomineeIDs {
		if !onBallot[id] {
			middleware.ErrorResponse(w, http.StatusBadRequest, "nominee "+id+" is not on the ballot")
			return
		}
	}

	questions, err := s.ListQuestions(ctx, e.ID)
	if err != nil {
		storeError(w, err, "", "failed to list questions", "election_id", e.ID)
		return
	}
	asked := map[string]bool{}
	for _, q := range questions {
		asked[q.ID] = true
	}
	for qid, answer := range req.Answers {
		if !asked[qid] {
			middleware.ErrorResponse(w, http.StatusBadRequest, "question "+qid+" is not on the ballot")
			return
		}
		if answer != models.AnswerYes && answer != models.AnswerNo {
			middleware.ErrorResponse(w, http.StatusBadRequest, "answers must be yes or no")
			return
		}
	}

	ballotID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate ballot ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save ballot")
		return
	}
	b := &models.Ballot{
		ID:          ballotID,
		ElectionID:  e.ID,
		VoterID:     memberID,
		SubmittedAt: now,
		NomineeIDs:  req.NomineeIDs,
		Answers:     req.Answers,
	}

	var updated bool
	err = store.WithTx(ctx, h.db, nil, func(ctx context.Context, tx store.DBTX) error {
		var err error
		updated, err = store.New(tx).SaveBallot(ctx, b)
		return err
	})
	if err != nil {
		storeError(w, err, "", "failed to save ballot", "election_id", e.ID)
		return
	}

	slog.Info("ballot saved", "election", e.Slug, "ballot_id", b.ID, "updated", updated)

	status := http.StatusCreated
	message := "Your ballot has been saved. You can change your votes until voting closes."
	if updated {
		status = http.StatusOK
		message = "Your ballot has been updated."
	}
	middleware.JSONResponse(w, status, models.BallotResponse{
		BallotID: b.ID,
		Updated:  updated,
		Message:  message,
	})
}

// GetMyBallot handles GET /elections/{slug}/ballot
func (h *VotingHandler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	memberID, ok := currentMember(w, r)
	if !ok {
		return
	}
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}

	b, err := s.GetBallot(r.Context(), e.ID, memberID)
	if err != nil {
		storeError(w, err, "No ballot cast yet", "failed to query ballot", "election_id", e.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, b)
}

// GetSeats handles GET /elections/{slug}/seats
// Reports which district seats the eligible electorate activates.
func (h *VotingHandler) GetSeats(w http.ResponseWriter, r *http.Request) {
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}

	eligible, err := s.EligibleVoterDistricts(r.Context(), e, time.Now())
	if err != nil {
		storeError(w, err, "", "failed to count eligible voters", "election_id", e.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, seats.AvailableSeats(eligible, e.DistrictSeatMinVoters, e.AtLargeSeatsCount))
}
