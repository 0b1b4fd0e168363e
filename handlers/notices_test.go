// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/notify"
	"github.com/danielhkuo/board-elections/testutil"
)

func TestNotifyOpen(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewNoticeHandler(db, cfg)

	e := testutil.CreateTestElection(t, db, testutil.PhaseVoting)
	testutil.CreateTestMember(t, db, cfg, "alice", true)
	testutil.CreateTestMember(t, db, cfg, "bob", true)
	testutil.CreateTestMember(t, db, cfg, "carol", false)

	call := func(headers map[string]string, body interface{}) *models.NotifyOpenResponse {
		t.Helper()
		req := testutil.MakeRequest("POST", "/elections/"+e.Slug+"/notify-open", body, headers)
		req.SetPathValue("slug", e.Slug)
		w := serve(handler.NotifyOpen, req)
		if w.Code != http.StatusOK && w.Code != http.StatusAccepted {
			testutil.AssertStatus(t, w, http.StatusAccepted)
			return nil
		}
		var resp models.NotifyOpenResponse
		testutil.AssertJSON(t, w, &resp)
		return &resp
	}

	// Admin only
	req := testutil.MakeRequest("POST", "/elections/"+e.Slug+"/notify-open", models.NotifyOpenRequest{}, nil)
	req.SetPathValue("slug", e.Slug)
	testutil.AssertStatus(t, serve(handler.NotifyOpen, req), http.StatusUnauthorized)

	// Dry run counts eligible members and sends nothing
	dry := call(testutil.ElectionAdminHeaders(cfg, e.ID), models.NotifyOpenRequest{DryRun: true, RunID: "dry"})
	if dry == nil {
		return
	}
	if !dry.DryRun || dry.JobID != "" {
		t.Errorf("Expected a synchronous dry run, got %+v", dry)
	}
	if !strings.Contains(dry.Summary, "would send 2 notices to 2 eligible members") {
		t.Errorf("Unexpected summary: %s", dry.Summary)
	}
	if n := countJobs(t, db, notify.TypeElectionOpen); n != 0 {
		t.Errorf("Expected no job for a dry run, got %d", n)
	}

	// A real run is queued with a generated run ID
	queued := call(testutil.SiteAdminHeaders(cfg), nil)
	if queued == nil {
		return
	}
	if queued.JobID == "" || queued.RunID == "" {
		t.Fatalf("Expected job and run IDs, got %+v", queued)
	}

	j, err := notify.NewQueue(db).Get(context.Background(), queued.JobID)
	if err != nil {
		t.Fatalf("Failed to load job: %v", err)
	}
	var payload notify.ElectionOpenPayload
	if err := json.Unmarshal(j.Payload, &payload); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if payload.ElectionID != e.ID || payload.RunID != queued.RunID {
		t.Errorf("Unexpected payload %+v", payload)
	}

	// Job lookup for site admins
	req = testutil.MakeRequest("GET", "/jobs/"+queued.JobID, nil, testutil.SiteAdminHeaders(cfg))
	req.SetPathValue("id", queued.JobID)
	w := serve(handler.GetJob, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	req = testutil.MakeRequest("GET", "/jobs/"+queued.JobID, nil, testutil.ElectionAdminHeaders(cfg, e.ID))
	req.SetPathValue("id", queued.JobID)
	testutil.AssertStatus(t, serve(handler.GetJob, req), http.StatusUnauthorized)

	req = testutil.MakeRequest("GET", "/jobs/missing", nil, testutil.SiteAdminHeaders(cfg))
	req.SetPathValue("id", "missing")
	testutil.AssertStatus(t, serve(handler.GetJob, req), http.StatusNotFound)

	req = testutil.MakeRequest("GET", "/jobs/dead-letters", nil, testutil.SiteAdminHeaders(cfg))
	w = serve(handler.ListDeadLetters, req)
	testutil.AssertStatus(t, w, http.StatusOK)
	if w.Body.String() != "[]\n" {
		t.Errorf("Expected no dead letters, got %s", w.Body.String())
	}
}
