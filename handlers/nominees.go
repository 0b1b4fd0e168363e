// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/board-elections/cliparse"
	"github.com/danielhkuo/board-elections/middleware"
	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/nomination"
	"github.com/danielhkuo/board-elections/photos"
	"github.com/danielhkuo/board-elections/store"
)

type NomineeHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	photos *photos.Store
}

func NewNomineeHandler(db *sql.DB, cfg cliparse.Config) *NomineeHandler {
	return &NomineeHandler{
		db:     db,
		cfg:    cfg,
		photos: photos.New(photos.Config(cfg.S3)),
	}
}

// loadOwnNominee resolves the {id} nominee and checks it belongs to the
// calling member.
func (h *NomineeHandler) loadOwnNominee(w http.ResponseWriter, r *http.Request, s *store.Store, e *models.Election, memberID string) (*models.Nominee, bool) {
	n, err := s.GetNominee(r.Context(), r.PathValue("id"))
	if err == nil && n.ElectionID != e.ID {
		err = store.ErrNotFound
	}
	if err != nil {
		storeError(w, err, "Nominee not found", "failed to query nominee")
		return nil, false
	}
	if n.MemberID != memberID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the nominee can change this profile")
		return nil, false
	}
	return n, true
}

// UpdateProfile handles PUT /elections/{slug}/nominees/{id}/profile
// When self_nomination_id names a self-nomination held back for an
// incomplete profile, it is submitted once the profile is complete.
func (h *NomineeHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	memberID, ok := currentMember(w, r)
	if !ok {
		return
	}
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}
	n, ok := h.loadOwnNominee(w, r, s, e, memberID)
	if !ok {
		return
	}

	var req models.ProfileRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.PhotoKey != "" {
		if !photos.KeyBelongsTo(req.PhotoKey, e.ID, n.ID) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "photo_key was not issued for this nominee")
			return
		}
		n.PhotoKey = req.PhotoKey
	}
	if (req.StreetAddress == "") != (req.ZipCode == "") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "street_address and zip_code go together")
		return
	}
	n.PublicDisplayName = strings.TrimSpace(req.PublicDisplayName)
	n.ResponsibilitiesAcknowledged = req.ResponsibilitiesAcknowledged

	ctx := r.Context()

	// Run the resume transition before writing anything; a refusal leaves
	// the profile unchanged too.
	var resume *nomination.Outcome
	if req.SelfNominationID != "" {
		x, err := s.GetNomination(ctx, req.SelfNominationID)
		if err == nil && x.NomineeID != n.ID {
			err = store.ErrNotFound
		}
		if err != nil {
			storeError(w, err, "Nomination not found", "failed to query nomination")
			return
		}
		c, err := transitionContext(ctx, h.db, h.cfg, e, memberID, n)
		if err != nil {
			storeError(w, err, "Member not found", "failed to evaluate member", "member_id", memberID)
			return
		}
		out, err := nomination.ResumeAfterProfile(c, *x)
		if err != nil {
			transitionError(w, err, "failed to resume nomination")
			return
		}
		resume = &out
	}

	resp := models.ProfileResponse{ProfileComplete: n.IsProfileComplete()}
	err := store.WithTx(ctx, h.db, nil, func(ctx context.Context, tx store.DBTX) error {
		ts := store.New(tx)
		if err := ts.UpdateNomineeProfile(ctx, n); err != nil {
			return err
		}
		if req.StreetAddress != "" {
			if err := ts.UpdateMemberAddress(ctx, memberID, req.StreetAddress, req.ZipCode); err != nil {
				return err
			}
		}
		if resume == nil || resume.ProfileRequired {
			return nil
		}
		return ts.UpdateNomination(ctx, &resume.Nomination)
	})
	if err != nil {
		storeError(w, err, "Not found", "failed to update profile", "nominee_id", n.ID)
		return
	}

	resp.Nominee = *n
	if resume != nil {
		resp.Nomination = &resume.Nomination
	}
	slog.Info("nominee profile updated", "nominee_id", n.ID, "complete", resp.ProfileComplete)
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// PhotoUpload handles POST /elections/{slug}/nominees/{id}/photo-upload
// Returns a presigned PUT; the key goes into the next profile update.
func (h *NomineeHandler) PhotoUpload(w http.ResponseWriter, r *http.Request) {
	memberID, ok := currentMember(w, r)
	if !ok {
		return
	}
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}
	n, ok := h.loadOwnNominee(w, r, s, e, memberID)
	if !ok {
		return
	}

	var req models.PhotoUploadRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	upload, err := h.photos.PresignUpload(r.Context(), e.ID, n.ID, req.ContentType)
	switch {
	case errors.Is(err, photos.ErrNotConfigured):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Photo uploads are not configured")
		return
	case errors.Is(err, photos.ErrUnsupportedType):
		middleware.ErrorResponse(w, http.StatusBadRequest, "content_type must be image/jpeg, image/png or image/webp")
		return
	case err != nil:
		slog.Error("failed to presign upload", "error", err, "nominee_id", n.ID)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Failed to prepare upload")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, upload)
}

// CandidateView is a candidate as shown on the public nominee list and the
// ballot.
type CandidateView struct {
	store.Candidate
	PhotoURL string `json:"photo_url,omitempty"`
}

func (h *NomineeHandler) candidateViews(ctx context.Context, candidates []store.Candidate) []CandidateView {
	out := make([]CandidateView, 0, len(candidates))
	for _, c := range candidates {
		v := CandidateView{Candidate: c}
		if c.Nominee.PhotoKey != "" && h.photos.Enabled() {
			u, err := h.photos.PresignView(ctx, c.Nominee.PhotoKey)
			if err != nil {
				slog.Warn("failed to presign photo", "error", err, "nominee_id", c.Nominee.ID)
			}
			v.PhotoURL = u
		}
		out = append(out, v)
	}
	return out
}

// ListNominees handles GET /elections/{slug}/nominees
// Public once nominations close.
func (h *NomineeHandler) ListNominees(w http.ResponseWriter, r *http.Request) {
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}
	if time.Now().Before(e.NominationsClose) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Nominees are announced when nominations close")
		return
	}

	candidates, err := s.ListCandidates(r.Context(), e.ID)
	if err != nil {
		storeError(w, err, "", "failed to list candidates", "election_id", e.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, h.candidateViews(r.Context(), candidates))
}
