// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/board-elections/auth"
	"github.com/danielhkuo/board-elections/cliparse"
	"github.com/danielhkuo/board-elections/eligibility"
	"github.com/danielhkuo/board-elections/middleware"
	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/store"
)

const dateLayout = "2006-01-02"

// loadElection resolves the {slug} path value. On failure the response has
// been written.
func loadElection(w http.ResponseWriter, r *http.Request, s *store.Store) (*models.Election, bool) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return nil, false
	}
	e, err := s.GetElectionBySlug(r.Context(), slug)
	if err != nil {
		storeError(w, err, "Election not found", "failed to query election")
		return nil, false
	}
	return e, true
}

// storeError writes 404 for ErrNotFound, 409 for ErrAlreadyExists and 500
// otherwise.
func storeError(w http.ResponseWriter, err error, notFound, logMsg string, args ...any) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrAlreadyExists):
		middleware.ErrorResponse(w, http.StatusConflict, "Already exists")
	default:
		slog.Error(logMsg, append([]any{"error", err}, args...)...)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}

// currentMember returns the member authenticated by RequireMember.
func currentMember(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.MemberID(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Member token required")
	}
	return id, ok
}

// requireElectionAdmin accepts the site key or the election's own key.
func requireElectionAdmin(w http.ResponseWriter, r *http.Request, cfg cliparse.Config, e *models.Election) bool {
	if !middleware.HasAdminKey(r, cfg.AdminKeySalt, auth.ElectionScope(e.ID)) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return false
	}
	return true
}

func requireSiteAdmin(w http.ResponseWriter, r *http.Request, cfg cliparse.Config) bool {
	if !middleware.HasAdminKey(r, cfg.AdminKeySalt) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return false
	}
	return true
}

// eligibleForElection evaluates a member as of the election's membership
// deadline.
func eligibleForElection(ctx context.Context, db *sql.DB, e *models.Election, memberID string) (bool, error) {
	ev := eligibility.NewEvaluator(store.New(db), time.Now)
	res, err := ev.EligibleAsOf(ctx, memberID, e.MembershipEligibilityDeadline)
	if err != nil {
		return false, err
	}
	return res.Eligible, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
