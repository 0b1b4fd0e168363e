// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/danielhkuo/board-elections/cliparse"
	"github.com/danielhkuo/board-elections/eligibility"
	"github.com/danielhkuo/board-elections/middleware"
	"github.com/danielhkuo/board-elections/store"
)

type EligibilityHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewEligibilityHandler(db *sql.DB, cfg cliparse.Config) *EligibilityHandler {
	return &EligibilityHandler{db: db, cfg: cfg}
}

// EligibilityResponse is a member's standing as of an instant.
type EligibilityResponse struct {
	AsOf     time.Time          `json:"as_of"`
	Election string             `json:"election,omitempty"`
	Result   eligibility.Result `json:"result"`
}

// GetMine handles GET /me/eligibility
// as_of (YYYY-MM-DD or RFC 3339) defaults to the membership deadline of the
// upcoming election, or now when there is none.
func (h *EligibilityHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	memberID, ok := currentMember(w, r)
	if !ok {
		return
	}
	s := store.New(h.db)
	now := time.Now()

	resp := EligibilityResponse{AsOf: now}
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err := h.parseAsOf(raw)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "as_of must be YYYY-MM-DD or RFC 3339")
			return
		}
		resp.AsOf = asOf
	} else {
		e, err := s.UpcomingElection(r.Context(), now)
		switch {
		case err == nil:
			resp.AsOf = e.MembershipEligibilityDeadline
			resp.Election = e.Slug
		case !errors.Is(err, store.ErrNotFound):
			storeError(w, err, "", "failed to query upcoming election")
			return
		}
	}

	h.evaluate(w, r, s, memberID, resp)
}

// GetForElection handles GET /elections/{slug}/eligibility
func (h *EligibilityHandler) GetForElection(w http.ResponseWriter, r *http.Request) {
	memberID, ok := currentMember(w, r)
	if !ok {
		return
	}
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}
	h.evaluate(w, r, s, memberID, EligibilityResponse{AsOf: e.MembershipEligibilityDeadline, Election: e.Slug})
}

func (h *EligibilityHandler) evaluate(w http.ResponseWriter, r *http.Request, s *store.Store, memberID string, resp EligibilityResponse) {
	res, err := eligibility.NewEvaluator(s, time.Now).EligibleAsOf(r.Context(), memberID, resp.AsOf.In(h.cfg.Location()))
	if err != nil {
		storeError(w, err, "Member not found", "failed to evaluate eligibility", "member_id", memberID)
		return
	}
	resp.Result = res
	middleware.JSONResponse(w, http.StatusOK, resp)
}

func (h *EligibilityHandler) parseAsOf(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, raw, h.cfg.Location())
}

