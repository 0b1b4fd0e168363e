// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/board-elections/auth"
	"github.com/danielhkuo/board-elections/cliparse"
	"github.com/danielhkuo/board-elections/middleware"
	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/store"
)

// MemberHandler ingests the member facts eligibility is decided from.
// Every endpoint except ListDistricts needs the site admin key.
type MemberHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewMemberHandler(db *sql.DB, cfg cliparse.Config) *MemberHandler {
	return &MemberHandler{db: db, cfg: cfg}
}

// CreateMember handles POST /members
// Returns a bearer token for the new member.
func (h *MemberHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	if !requireSiteAdmin(w, r, h.cfg) {
		return
	}

	var req models.CreateMemberRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	m := &models.Member{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Username:      req.Username,
		StreetAddress: req.StreetAddress,
		ZipCode:       req.ZipCode,
		District:      req.District,
	}
	if err := store.New(h.db).CreateMember(r.Context(), m); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			middleware.ErrorResponse(w, http.StatusConflict, "Email or username already registered")
			return
		}
		slog.Error("failed to insert member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create member")
		return
	}

	token, err := auth.GenerateMemberToken(m.ID, []byte(h.cfg.JWTSecret), h.cfg.TokenTTL)
	if err != nil {
		slog.Error("failed to sign member token", "error", err, "member_id", m.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create member")
		return
	}

	slog.Info("member created", "member_id", m.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateMemberResponse{
		MemberID: m.ID,
		Token:    token,
	})
}

// loadMember checks the admin key and resolves the {id} path value.
func (h *MemberHandler) loadMember(w http.ResponseWriter, r *http.Request, s *store.Store) (*models.Member, bool) {
	if !requireSiteAdmin(w, r, h.cfg) {
		return nil, false
	}
	m, err := s.GetMember(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, err, "Member not found", "failed to query member")
		return nil, false
	}
	return m, true
}

// AddSubscription handles POST /members/{id}/subscriptions
func (h *MemberHandler) AddSubscription(w http.ResponseWriter, r *http.Request) {
	s := store.New(h.db)
	m, ok := h.loadMember(w, r, s)
	if !ok {
		return
	}

	var req models.AddSubscriptionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	switch req.Status {
	case models.SubscriptionActive, models.SubscriptionTrialing, models.SubscriptionPastDue,
		models.SubscriptionCanceled, models.SubscriptionIncomplete, models.SubscriptionUnpaid:
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "unknown subscription status")
		return
	}
	if req.CurrentPeriodEnd.Before(req.CurrentPeriodStart) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "period end must not be before period start")
		return
	}

	sub := &models.Subscription{
		MemberID:           m.ID,
		Status:             req.Status,
		CurrentPeriodStart: req.CurrentPeriodStart,
		CurrentPeriodEnd:   req.CurrentPeriodEnd,
	}
	if err := s.AddSubscription(r.Context(), sub); err != nil {
		storeError(w, err, "", "failed to insert subscription", "member_id", m.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, sub)
}

// RecordActivity handles POST /members/{id}/activity
func (h *MemberHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	s := store.New(h.db)
	m, ok := h.loadMember(w, r, s)
	if !ok {
		return
	}

	var req models.RecordActivityRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	day, err := parseDate(req.Day)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}
	if req.Count < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "count must not be negative")
		return
	}

	a := models.ActivityDay{MemberID: m.ID, Day: day, Count: req.Count}
	if err := s.RecordActivity(r.Context(), a); err != nil {
		storeError(w, err, "", "failed to record activity", "member_id", m.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, a)
}

// LinkAccount handles POST /members/{id}/community-accounts
func (h *MemberHandler) LinkAccount(w http.ResponseWriter, r *http.Request) {
	s := store.New(h.db)
	m, ok := h.loadMember(w, r, s)
	if !ok {
		return
	}

	var req models.LinkAccountRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Provider == "" {
		req.Provider = models.ProviderDiscord
	}
	if strings.TrimSpace(req.Handle) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "handle is required")
		return
	}

	acct := models.CommunityAccount{MemberID: m.ID, Provider: req.Provider, Handle: req.Handle}
	if err := s.LinkCommunityAccount(r.Context(), acct); err != nil {
		storeError(w, err, "", "failed to link account", "member_id", m.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, acct)
}

// AddGrant handles POST /members/{id}/grants
func (h *MemberHandler) AddGrant(w http.ResponseWriter, r *http.Request) {
	s := store.New(h.db)
	m, ok := h.loadMember(w, r, s)
	if !ok {
		return
	}

	var req models.AddGrantRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Kind != models.GrantFiscal && req.Kind != models.GrantParticipation {
		middleware.ErrorResponse(w, http.StatusBadRequest, "kind must be fiscal or participation")
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}

	g := &models.RecognitionGrant{MemberID: m.ID, Kind: req.Kind, StartDate: start, Reason: req.Reason}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		if end.Before(start) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "end_date must not be before start_date")
			return
		}
		g.EndDate = &end
	}

	if err := s.AddGrant(r.Context(), g); err != nil {
		storeError(w, err, "", "failed to insert grant", "member_id", m.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, g)
}

// SetDistrict handles PUT /members/{id}/district
// A null district clears the assignment.
func (h *MemberHandler) SetDistrict(w http.ResponseWriter, r *http.Request) {
	s := store.New(h.db)
	m, ok := h.loadMember(w, r, s)
	if !ok {
		return
	}

	var req models.SetDistrictRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.District != nil {
		districts, err := s.ListDistricts(r.Context())
		if err != nil {
			storeError(w, err, "", "failed to list districts")
			return
		}
		known := false
		for _, d := range districts {
			known = known || d.Number == *req.District
		}
		if !known {
			middleware.ErrorResponse(w, http.StatusBadRequest, "unknown district")
			return
		}
	}

	if err := s.SetMemberDistrict(r.Context(), m.ID, req.District); err != nil {
		storeError(w, err, "Member not found", "failed to set district", "member_id", m.ID)
		return
	}
	m.District = req.District
	middleware.JSONResponse(w, http.StatusOK, m)
}

// CreateDistrict handles POST /districts
func (h *MemberHandler) CreateDistrict(w http.ResponseWriter, r *http.Request) {
	if !requireSiteAdmin(w, r, h.cfg) {
		return
	}

	var req models.CreateDistrictRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	d := models.District{Name: req.Name}
	if req.Number != nil {
		d.Number = *req.Number
	} else if n, ok := models.ParseDistrictNumber(req.Name); ok {
		d.Number = n
	} else {
		middleware.ErrorResponse(w, http.StatusBadRequest, "number is required when the name carries none")
		return
	}
	if d.Number <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "number must be positive")
		return
	}

	if err := store.New(h.db).UpsertDistrict(r.Context(), d); err != nil {
		storeError(w, err, "", "failed to upsert district")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, d)
}

// ListDistricts handles GET /districts
func (h *MemberHandler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	districts, err := store.New(h.db).ListDistricts(r.Context())
	if err != nil {
		storeError(w, err, "", "failed to list districts")
		return
	}
	if districts == nil {
		districts = []models.District{}
	}
	middleware.JSONResponse(w, http.StatusOK, districts)
}
