// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/board-elections/auth"
	"github.com/danielhkuo/board-elections/cliparse"
	"github.com/danielhkuo/board-elections/middleware"
	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/store"
)

type ElectionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{db: db, cfg: cfg}
}

// Election phases
const (
	PhaseUpcoming    = "upcoming"
	PhaseNominations = "nominations"
	PhaseAcceptance  = "acceptance"
	PhaseScheduled   = "scheduled"
	PhaseVoting      = "voting"
	PhaseClosed      = "closed"
)

// ElectionView is an election with its questions and derived schedule.
type ElectionView struct {
	*models.Election
	Questions        []models.Question `json:"questions"`
	ResponseDeadline time.Time         `json:"response_deadline"`
	Phase            string            `json:"phase"`
}

// Phase names where an election is at now.
func Phase(e *models.Election, acceptancePeriod time.Duration, now time.Time) string {
	switch {
	case now.Before(e.NominationsOpen):
		return PhaseUpcoming
	case e.NominationsOpenAt(now):
		return PhaseNominations
	case now.Before(e.ResponseDeadline(acceptancePeriod)):
		return PhaseAcceptance
	case now.Before(e.VotingOpens):
		return PhaseScheduled
	case e.VotingOpenAt(now):
		return PhaseVoting
	default:
		return PhaseClosed
	}
}

func (h *ElectionHandler) view(r *http.Request, s *store.Store, e *models.Election) (ElectionView, error) {
	questions, err := s.ListQuestions(r.Context(), e.ID)
	if err != nil {
		return ElectionView{}, err
	}
	return ElectionView{
		Election:         e,
		Questions:        questions,
		ResponseDeadline: e.ResponseDeadline(h.cfg.AcceptancePeriod),
		Phase:            Phase(e, h.cfg.AcceptancePeriod, time.Now()),
	}, nil
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	if !requireSiteAdmin(w, r, h.cfg) {
		return
	}

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.VotingCloses.IsZero() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election dates are required")
		return
	}

	e := &models.Election{
		Title:                         req.Title,
		Slug:                          models.Slugify(req.Slug),
		Description:                   req.Description,
		MembershipEligibilityDeadline: req.MembershipEligibilityDeadline,
		NominationsOpen:               req.NominationsOpen,
		NominationsClose:              req.NominationsClose,
		VotingOpens:                   req.VotingOpens,
		VotingCloses:                  req.VotingCloses,
		DistrictSeatMinVoters:         req.DistrictSeatMinVoters,
		DistrictSeatMinVotes:          req.DistrictSeatMinVotes,
		AtLargeSeatsCount:             req.AtLargeSeatsCount,
	}
	if err := e.Validate(); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	s := store.New(h.db)
	if err := s.CreateElection(r.Context(), e); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			middleware.ErrorResponse(w, http.StatusConflict, "An election with this slug already exists")
			return
		}
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", e.ID, "slug", e.Slug)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: e.ID,
		Slug:       e.Slug,
		AdminKey:   auth.GenerateAdminKey(auth.ElectionScope(e.ID), h.cfg.AdminKeySalt),
	})
}

// ListElections handles GET /elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	elections, err := store.New(h.db).ListElections(r.Context())
	if err != nil {
		storeError(w, err, "", "failed to list elections")
		return
	}
	if elections == nil {
		elections = []*models.Election{}
	}
	middleware.JSONResponse(w, http.StatusOK, elections)
}

// GetUpcoming handles GET /elections/upcoming
// Returns the next election whose voting has not closed.
func (h *ElectionHandler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	s := store.New(h.db)
	e, err := s.UpcomingElection(r.Context(), time.Now())
	if err != nil {
		storeError(w, err, "No upcoming election", "failed to query upcoming election")
		return
	}
	v, err := h.view(r, s, e)
	if err != nil {
		storeError(w, err, "", "failed to query questions", "election_id", e.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, v)
}

// GetElection handles GET /elections/{slug}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}
	v, err := h.view(r, s, e)
	if err != nil {
		storeError(w, err, "", "failed to query questions", "election_id", e.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, v)
}

// AddQuestion handles POST /elections/{slug}/questions
func (h *ElectionHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}
	if !requireElectionAdmin(w, r, h.cfg, e) {
		return
	}

	var req models.AddQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Position < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "position must not be negative")
		return
	}

	// Questions are frozen once ballots can be cast
	if !time.Now().Before(e.VotingOpens) {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot add questions after voting opens")
		return
	}

	q := &models.Question{ElectionID: e.ID, Text: req.Text, Position: req.Position}
	if err := s.AddQuestion(r.Context(), q); err != nil {
		storeError(w, err, "", "failed to insert question", "election_id", e.ID)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.AddQuestionResponse{
		QuestionID: q.ID,
		Position:   q.Position,
	})
}
