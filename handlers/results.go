// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/danielhkuo/board-elections/cliparse"
	"github.com/danielhkuo/board-elections/middleware"
	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/seats"
	"github.com/danielhkuo/board-elections/store"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// ResultsResponse is the tabulated outcome of a closed election.
type ResultsResponse struct {
	Election *models.Election `json:"election"`
	seats.Report
}

// candidateRow is one line of the results CSV export.
type candidateRow struct {
	NomineeID       string `csv:"nominee_id"`
	DisplayName     string `csv:"display_name"`
	District        string `csv:"district"`
	TotalVotes      int    `csv:"total_votes"`
	InDistrictVotes int    `csv:"in_district_votes"`
	SeatType        string `csv:"seat_type"`
}

// report tabulates a closed election. Results stay sealed until voting
// closes; on failure the response has been written.
func (h *ResultsHandler) report(w http.ResponseWriter, r *http.Request) (*models.Election, seats.Report, bool) {
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return nil, seats.Report{}, false
	}

	now := time.Now()
	if now.Before(e.VotingCloses) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until voting closes")
		return nil, seats.Report{}, false
	}

	in, err := s.LoadResultsInput(r.Context(), e, now)
	if err != nil {
		storeError(w, err, "Election not found", "failed to load results input", "election_id", e.ID)
		return nil, seats.Report{}, false
	}
	return e, seats.Calculate(in), true
}

// GetResults handles GET /elections/{slug}/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	e, report, ok := h.report(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, ResultsResponse{Election: e, Report: report})
}

// ExportResults handles GET /elections/{slug}/results.csv
func (h *ResultsHandler) ExportResults(w http.ResponseWriter, r *http.Request) {
	e, report, ok := h.report(w, r)
	if !ok {
		return
	}

	rows := make([]candidateRow, 0, len(report.Candidates))
	for _, c := range report.Candidates {
		row := candidateRow{
			NomineeID:       c.NomineeID,
			DisplayName:     c.DisplayName,
			TotalVotes:      c.TotalVotes,
			InDistrictVotes: c.InDistrictVotes,
			SeatType:        string(c.SeatType),
		}
		if c.District != nil {
			row.District = strconv.Itoa(*c.District)
		}
		rows = append(rows, row)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+e.Slug+`-results.csv"`)
	if err := gocsv.Marshal(rows, w); err != nil {
		slog.Error("failed to write results csv", "error", err, "election", e.Slug)
	}
}

// GetBallotCount handles GET /elections/{slug}/ballot-count
// Returns the number of ballots cast (public, no results)
func (h *ResultsHandler) GetBallotCount(w http.ResponseWriter, r *http.Request) {
	s := store.New(h.db)
	e, ok := loadElection(w, r, s)
	if !ok {
		return
	}

	count, err := s.CountBallots(r.Context(), e.ID)
	if err != nil {
		storeError(w, err, "", "failed to count ballots", "election_id", e.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, map[string]int{
		"ballot_count": count,
	})
}
