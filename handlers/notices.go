// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/danielhkuo/board-elections/cliparse"
	"github.com/danielhkuo/board-elections/middleware"
	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/notify"
	"github.com/danielhkuo/board-elections/store"
)

type NoticeHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	queue *notify.Queue
}

func NewNoticeHandler(db *sql.DB, cfg cliparse.Config) *NoticeHandler {
	return &NoticeHandler{db: db, cfg: cfg, queue: notify.NewQueue(db)}
}

// NotifyOpen handles POST /elections/{slug}/notify-open
// A dry run counts recipients synchronously; otherwise the run is queued and
// re-posting the same run_id only reaches members not yet notified.
func (h *NoticeHandler) NotifyOpen(w http.ResponseWriter, r *http.Request) {
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}
	if !requireElectionAdmin(w, r, h.cfg, e) {
		return
	}

	var req models.NotifyOpenRequest
	if r.ContentLength != 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	if req.DryRun {
		notifier := notify.NewNotifier(h.db, notify.LogMailer{Logger: slog.Default()}, notify.Settings{
			SiteURL:          h.cfg.SiteURL,
			AcceptancePeriod: h.cfg.AcceptancePeriod,
		}, nil)
		summary, err := notifier.NotifyElectionOpen(r.Context(), e.ID, req.RunID, true)
		if err != nil {
			slog.Error("failed to dry-run election notices", "error", err, "election", e.Slug)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to count recipients")
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.NotifyOpenResponse{
			RunID:   req.RunID,
			DryRun:  true,
			Summary: summary.String(),
		})
		return
	}

	jobID, err := h.queue.Enqueue(r.Context(), nil, notify.TypeElectionOpen, notify.ElectionOpenPayload{
		ElectionID: e.ID,
		RunID:      req.RunID,
	})
	if err != nil {
		slog.Error("failed to enqueue election notices", "error", err, "election", e.Slug)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to queue notices")
		return
	}

	slog.Info("election notices queued", "election", e.Slug, "job_id", jobID, "run_id", req.RunID)

	middleware.JSONResponse(w, http.StatusAccepted, models.NotifyOpenResponse{
		JobID: jobID,
		RunID: req.RunID,
	})
}

// GetJob handles GET /jobs/{id}
func (h *NoticeHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	if !requireSiteAdmin(w, r, h.cfg) {
		return
	}
	j, err := h.queue.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, err, "Job not found", "failed to query job")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, j)
}

// ListDeadLetters handles GET /jobs/dead-letters
func (h *NoticeHandler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	if !requireSiteAdmin(w, r, h.cfg) {
		return
	}
	dead, err := h.queue.DeadLetters(r.Context())
	if err != nil {
		slog.Error("failed to list dead letters", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if dead == nil {
		dead = []notify.DeadLetter{}
	}
	middleware.JSONResponse(w, http.StatusOK, dead)
}
