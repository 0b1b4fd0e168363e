// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/danielhkuo/board-elections/auth"
	"github.com/danielhkuo/board-elections/cliparse"
	"github.com/danielhkuo/board-elections/db"
	"github.com/danielhkuo/board-elections/middleware"
	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/store"
)

// Election phases understood by CreateTestElection
const (
	PhaseUpcoming    = "upcoming"
	PhaseNominations = "nominations"
	PhaseAcceptance  = "acceptance"
	PhaseVoting      = "voting"
	PhaseClosed      = "closed"
)

const day = 24 * time.Hour

// SetupTestDB opens a fresh in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Open(ctx, db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(ctx, conn, db.TypeSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      ":memory:",
		DatabaseType:     db.TypeSQLite,
		AdminKeySalt:     "test-admin-salt",
		JWTSecret:        "test-jwt-secret",
		TokenTTL:         time.Hour,
		AcceptancePeriod: 72 * time.Hour,
		SiteURL:          "http://localhost:3000",
		Workers:          1,
		TimeZone:         "UTC",
	}
}

// SiteAdminHeaders returns headers carrying the site admin key
func SiteAdminHeaders(cfg cliparse.Config) map[string]string {
	return map[string]string{"X-Admin-Key": auth.GenerateAdminKey(auth.SiteScope, cfg.AdminKeySalt)}
}

// ElectionAdminHeaders returns headers carrying the election's own admin key
func ElectionAdminHeaders(cfg cliparse.Config, electionID string) map[string]string {
	return map[string]string{"X-Admin-Key": auth.GenerateAdminKey(auth.ElectionScope(electionID), cfg.AdminKeySalt)}
}

// BearerHeaders returns headers carrying a member token
func BearerHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// CreateTestElection creates an election whose schedule puts time.Now() in
// the given phase. The membership deadline is 30 days before nominations
// open.
func CreateTestElection(t *testing.T, conn *sql.DB, phase string) *models.Election {
	t.Helper()

	now := time.Now()
	var nomOpen, nomClose, votingOpens, votingCloses time.Time
	switch phase {
	case PhaseUpcoming:
		nomOpen, nomClose = now.Add(day), now.Add(7*day)
		votingOpens, votingCloses = now.Add(14*day), now.Add(21*day)
	case PhaseNominations:
		nomOpen, nomClose = now.Add(-day), now.Add(7*day)
		votingOpens, votingCloses = now.Add(14*day), now.Add(21*day)
	case PhaseAcceptance:
		nomOpen, nomClose = now.Add(-10*day), now.Add(-day)
		votingOpens, votingCloses = now.Add(10*day), now.Add(20*day)
	case PhaseVoting:
		nomOpen, nomClose = now.Add(-20*day), now.Add(-10*day)
		votingOpens, votingCloses = now.Add(-day), now.Add(7*day)
	case PhaseClosed:
		nomOpen, nomClose = now.Add(-30*day), now.Add(-20*day)
		votingOpens, votingCloses = now.Add(-10*day), now.Add(-day)
	default:
		t.Fatalf("unknown phase %q", phase)
	}

	suffix, _ := auth.GenerateID(4)
	e := &models.Election{
		Title:                         "Test Election " + phase,
		Slug:                          "test-" + phase + "-" + suffix,
		Description:                   "A test election",
		MembershipEligibilityDeadline: nomOpen.Add(-30 * day),
		NominationsOpen:               nomOpen,
		NominationsClose:              nomClose,
		VotingOpens:                   votingOpens,
		VotingCloses:                  votingCloses,
		DistrictSeatMinVoters:         2,
		DistrictSeatMinVotes:          1,
		AtLargeSeatsCount:             1,
	}
	if err := store.New(conn).CreateElection(context.Background(), e); err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	return e
}

// CreateTestMember creates a member with a complete address and returns it
// with a signed token. An eligible member holds an open-ended fiscal grant.
func CreateTestMember(t *testing.T, conn *sql.DB, cfg cliparse.Config, username string, eligible bool) (*models.Member, string) {
	t.Helper()

	ctx := context.Background()
	s := store.New(conn)
	m := &models.Member{
		FirstName:     username,
		LastName:      "Tester",
		Email:         username + "@example.com",
		Username:      username,
		StreetAddress: "1 Main St",
		ZipCode:       "12345",
	}
	if err := s.CreateMember(ctx, m); err != nil {
		t.Fatalf("Failed to create test member: %v", err)
	}

	if eligible {
		err := s.AddGrant(ctx, &models.RecognitionGrant{
			MemberID:  m.ID,
			Kind:      models.GrantFiscal,
			StartDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			Reason:    "test",
		})
		if err != nil {
			t.Fatalf("Failed to grant eligibility: %v", err)
		}
	}

	token, err := auth.GenerateMemberToken(m.ID, []byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		t.Fatalf("Failed to sign member token: %v", err)
	}
	return m, token
}

// CreateTestCandidate puts a member on the ballot: a complete nominee
// profile with an accepted self-nomination.
func CreateTestCandidate(t *testing.T, conn *sql.DB, e *models.Election, m *models.Member) *models.Nominee {
	t.Helper()

	ctx := context.Background()
	s := store.New(conn)
	n, err := s.GetOrCreateNominee(ctx, e.ID, m.ID, m.DisplayName())
	if err != nil {
		t.Fatalf("Failed to create nominee: %v", err)
	}
	n.PhotoKey = "nominees/" + e.ID + "/" + n.ID + "/photo.jpg"
	n.ResponsibilitiesAcknowledged = true
	if err := s.UpdateNomineeProfile(ctx, n); err != nil {
		t.Fatalf("Failed to complete nominee profile: %v", err)
	}

	now := time.Now()
	x := &models.Nomination{
		ID:               n.ID + "-self",
		NomineeID:        n.ID,
		NominatorID:      m.ID,
		Statement:        "I would like to serve.",
		AcceptanceStatus: models.AcceptanceAccepted,
		AcceptanceDate:   &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.CreateNomination(ctx, x); err != nil {
		t.Fatalf("Failed to create nomination: %v", err)
	}
	return n
}

// CreateTestDistrict adds a district to the reference data
func CreateTestDistrict(t *testing.T, conn *sql.DB, number int) {
	t.Helper()
	d := models.District{Number: number, Name: "District " + strconv.Itoa(number)}
	if err := store.New(conn).UpsertDistrict(context.Background(), d); err != nil {
		t.Fatalf("Failed to create district: %v", err)
	}
}

// Member wraps h so it requires a member token signed with the config's
// secret.
func Member(cfg cliparse.Config, h http.HandlerFunc) http.HandlerFunc {
	return middleware.RequireMember([]byte(cfg.JWTSecret), h)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
