// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/danielhkuo/board-elections/cliparse"
	"github.com/danielhkuo/board-elections/middleware"
	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/nomination"
	"github.com/danielhkuo/board-elections/notify"
	"github.com/danielhkuo/board-elections/store"
)

type NominationHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	queue *notify.Queue
}

func NewNominationHandler(db *sql.DB, cfg cliparse.Config) *NominationHandler {
	return &NominationHandler{db: db, cfg: cfg, queue: notify.NewQueue(db)}
}

// transitionContext resolves everything a nomination transition checks.
func transitionContext(ctx context.Context, db *sql.DB, cfg cliparse.Config, e *models.Election, actorID string, nominee *models.Nominee) (nomination.Context, error) {
	eligible, err := eligibleForElection(ctx, db, e, actorID)
	if err != nil {
		return nomination.Context{}, err
	}
	c := nomination.Context{
		Now:           time.Now(),
		ActorID:       actorID,
		ActorEligible: eligible,
		Window:        nomination.WindowFor(*e, cfg.AcceptancePeriod),
	}
	if nominee != nil {
		c.ProfileComplete = nominee.IsProfileComplete()
	}
	return c, nil
}

// saveNomination writes x back and, when notifyNominee is set, queues the
// nominee notice in the same transaction.
func saveNomination(ctx context.Context, db *sql.DB, queue *notify.Queue, x *models.Nomination, notifyNominee bool) error {
	return store.WithTx(ctx, db, nil, func(ctx context.Context, tx store.DBTX) error {
		if err := store.New(tx).UpdateNomination(ctx, x); err != nil {
			return err
		}
		if !notifyNominee {
			return nil
		}
		_, err := queue.Enqueue(ctx, tx, notify.TypeNominationSubmitted, notify.NominationPayload{NominationID: x.ID})
		return err
	})
}

// profileURL is where a nominee completes their profile, optionally
// returning to a held-back self-nomination or a pending response.
func profileURL(e *models.Election, nomineeID string, query url.Values) string {
	u := fmt.Sprintf("/elections/%s/nominees/%s/profile", e.Slug, nomineeID)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (h *NominationHandler) respond(w http.ResponseWriter, status int, e *models.Election, out nomination.Outcome) {
	resp := models.NominationResponse{Nomination: out.Nomination, ProfileRequired: out.ProfileRequired}
	if out.ProfileRequired {
		resp.ProfileURL = profileURL(e, out.Nomination.NomineeID, url.Values{"self_nomination_id": {out.Nomination.ID}})
	}
	middleware.JSONResponse(w, status, resp)
}

// transitionError writes err as a refusal when it is one.
func transitionError(w http.ResponseWriter, err error, logMsg string, args ...any) {
	if ref, ok := nomination.AsRefusal(err); ok {
		middleware.RefusalResponse(w, ref)
		return
	}
	storeError(w, err, "Not found", logMsg, args...)
}

// loadNomination resolves the {id} path value within the election.
func loadNomination(w http.ResponseWriter, r *http.Request, s *store.Store, e *models.Election) (*models.Nomination, bool) {
	x, err := s.GetNomination(r.Context(), r.PathValue("id"))
	if err == nil && x.ElectionID != e.ID {
		err = store.ErrNotFound
	}
	if err != nil {
		storeError(w, err, "Nomination not found", "failed to query nomination")
		return nil, false
	}
	return x, true
}

// CreateNomination handles POST /elections/{slug}/nominations
// Saves a draft, or submits right away when submit is set.
func (h *NominationHandler) CreateNomination(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentMember(w, r)
	if !ok {
		return
	}
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}

	var req models.CreateNominationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.NomineeMemberID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "nominee_member_id is required")
		return
	}

	ctx := r.Context()
	nomineeMember, err := s.GetMember(ctx, req.NomineeMemberID)
	if err != nil {
		storeError(w, err, "Nominee not found", "failed to query nominee member")
		return
	}
	nomineeEligible, err := eligibleForElection(ctx, h.db, e, nomineeMember.ID)
	if err != nil {
		storeError(w, err, "Nominee not found", "failed to evaluate nominee", "member_id", nomineeMember.ID)
		return
	}
	c, err := transitionContext(ctx, h.db, h.cfg, e, actorID, nil)
	if err != nil {
		storeError(w, err, "Member not found", "failed to evaluate nominator", "member_id", actorID)
		return
	}
	c.NomineeEligible = nomineeEligible

	draft, err := nomination.CreateDraft(c, models.Nominee{ElectionID: e.ID, MemberID: nomineeMember.ID}, req.Statement)
	if err != nil {
		transitionError(w, err, "failed to create draft")
		return
	}

	// The nominee row is created lazily by the first nomination
	out := nomination.Outcome{Nomination: draft}
	err = store.WithTx(ctx, h.db, nil, func(ctx context.Context, tx store.DBTX) error {
		ts := store.New(tx)
		nominee, err := ts.GetOrCreateNominee(ctx, e.ID, nomineeMember.ID, "")
		if err != nil {
			return err
		}
		out.Nomination.NomineeID = nominee.ID

		if req.Submit {
			c.ProfileComplete = nominee.IsProfileComplete()
			if out, err = nomination.Submit(c, out.Nomination); err != nil {
				return err
			}
		}
		if err := ts.CreateNomination(ctx, &out.Nomination); err != nil {
			return err
		}
		if out.Notify {
			_, err = h.queue.Enqueue(ctx, tx, notify.TypeNominationSubmitted,
				notify.NominationPayload{NominationID: out.Nomination.ID})
		}
		return err
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		middleware.ErrorResponse(w, http.StatusConflict, "You have already nominated this member")
		return
	}
	if err != nil {
		transitionError(w, err, "failed to save nomination", "election_id", e.ID)
		return
	}

	slog.Info("nomination created",
		"nomination_id", out.Nomination.ID,
		"election", e.Slug,
		"draft", out.Nomination.Draft,
		"status", out.Nomination.AcceptanceStatus,
	)
	h.respond(w, http.StatusCreated, e, out)
}

// UpdateNomination handles PUT /elections/{slug}/nominations/{id}
// Edits the statement and/or submits a draft.
func (h *NominationHandler) UpdateNomination(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentMember(w, r)
	if !ok {
		return
	}
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}
	x, ok := loadNomination(w, r, s, e)
	if !ok {
		return
	}

	var req models.EditNominationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Statement == "" && !req.Submit {
		middleware.ErrorResponse(w, http.StatusBadRequest, "statement or submit is required")
		return
	}

	ctx := r.Context()
	nominee, err := s.GetNominee(ctx, x.NomineeID)
	if err != nil {
		storeError(w, err, "Nominee not found", "failed to query nominee")
		return
	}
	c, err := transitionContext(ctx, h.db, h.cfg, e, actorID, nominee)
	if err != nil {
		storeError(w, err, "Member not found", "failed to evaluate member", "member_id", actorID)
		return
	}

	out := nomination.Outcome{Nomination: *x}
	if req.Statement != "" {
		if out.Nomination, err = nomination.Edit(c, out.Nomination, req.Statement); err != nil {
			transitionError(w, err, "failed to edit nomination")
			return
		}
	}
	if req.Submit {
		if out, err = nomination.Submit(c, out.Nomination); err != nil {
			transitionError(w, err, "failed to submit nomination")
			return
		}
	}

	if err := saveNomination(ctx, h.db, h.queue, &out.Nomination, out.Notify); err != nil {
		storeError(w, err, "Nomination not found", "failed to update nomination", "nomination_id", x.ID)
		return
	}

	slog.Info("nomination updated", "nomination_id", x.ID, "submitted", req.Submit, "notify", out.Notify)
	h.respond(w, http.StatusOK, e, out)
}

// GetNomination handles GET /elections/{slug}/nominations/{id}
// Visible to the nominator and the nominee.
func (h *NominationHandler) GetNomination(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentMember(w, r)
	if !ok {
		return
	}
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}
	x, ok := loadNomination(w, r, s, e)
	if !ok {
		return
	}
	if actorID != x.NominatorID && actorID != x.NomineeMemberID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Not your nomination")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, x)
}

// profileRefusal is a profile_incomplete refusal with the way back.
type profileRefusal struct {
	models.ErrorResponse
	ProfileURL string `json:"profile_url"`
	ReturnTo   string `json:"return_to"`
}

// Respond handles POST /elections/{slug}/nominations/{id}/respond
func (h *NominationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentMember(w, r)
	if !ok {
		return
	}
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}
	x, ok := loadNomination(w, r, s, e)
	if !ok {
		return
	}

	var req models.RespondRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ctx := r.Context()
	nominee, err := s.GetNominee(ctx, x.NomineeID)
	if err != nil {
		storeError(w, err, "Nominee not found", "failed to query nominee")
		return
	}
	c, err := transitionContext(ctx, h.db, h.cfg, e, actorID, nominee)
	if err != nil {
		storeError(w, err, "Member not found", "failed to evaluate member", "member_id", actorID)
		return
	}

	updated, err := nomination.Respond(c, *x, req.Accept, req.Note)
	if ref, ok := nomination.AsRefusal(err); ok && ref.Code == nomination.CodeProfileIncomplete {
		returnTo := r.URL.Path
		middleware.JSONResponse(w, middleware.RefusalStatus(ref.Code), profileRefusal{
			ErrorResponse: models.ErrorResponse{
				Error:   http.StatusText(middleware.RefusalStatus(ref.Code)),
				Message: ref.Message,
				Code:    ref.Code,
			},
			ProfileURL: profileURL(e, nominee.ID, url.Values{"return_to": {returnTo}}),
			ReturnTo:   returnTo,
		})
		return
	}
	if err != nil {
		transitionError(w, err, "failed to respond")
		return
	}

	if err := saveNomination(ctx, h.db, h.queue, &updated, false); err != nil {
		storeError(w, err, "Nomination not found", "failed to update nomination", "nomination_id", x.ID)
		return
	}

	slog.Info("nomination answered", "nomination_id", x.ID, "status", updated.AcceptanceStatus)
	middleware.JSONResponse(w, http.StatusOK, models.NominationResponse{Nomination: updated})
}

// Withdraw handles POST /elections/{slug}/nominations/{id}/withdraw
func (h *NominationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentMember(w, r)
	if !ok {
		return
	}
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}
	x, ok := loadNomination(w, r, s, e)
	if !ok {
		return
	}

	ctx := r.Context()
	c, err := transitionContext(ctx, h.db, h.cfg, e, actorID, nil)
	if err != nil {
		storeError(w, err, "Member not found", "failed to evaluate member", "member_id", actorID)
		return
	}
	updated, err := nomination.Withdraw(c, *x)
	if err != nil {
		transitionError(w, err, "failed to withdraw")
		return
	}
	if err := saveNomination(ctx, h.db, h.queue, &updated, false); err != nil {
		storeError(w, err, "Nomination not found", "failed to update nomination", "nomination_id", x.ID)
		return
	}

	slog.Info("nomination withdrawn", "nomination_id", x.ID)
	middleware.JSONResponse(w, http.StatusOK, models.NominationResponse{Nomination: updated})
}

// ListMine handles GET /me/nominations?election={slug}
// Lists nominations the member made or received.
func (h *NominationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentMember(w, r)
	if !ok {
		return
	}
	slug := r.URL.Query().Get("election")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election is required")
		return
	}

	s := store.New(h.db)
	e, err := s.GetElectionBySlug(r.Context(), slug)
	if err != nil {
		storeError(w, err, "Election not found", "failed to query election")
		return
	}
	list, err := s.ListMemberNominations(r.Context(), e.ID, actorID)
	if err != nil {
		storeError(w, err, "", "failed to list nominations", "member_id", actorID)
		return
	}
	if list == nil {
		list = []*models.Nomination{}
	}
	middleware.JSONResponse(w, http.StatusOK, list)
}
