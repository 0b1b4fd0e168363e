// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/board-elections/auth"
	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/nomination"
)

func TestWithLogging(t *testing.T) {
	handlerCalled := false
	testHandler := func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	}

	wrappedHandler := WithLogging(testHandler)

	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()

	wrappedHandler(w, req)

	if !handlerCalled {
		t.Error("Expected handler to be called")
	}
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "success" {
		t.Errorf("Expected body 'success', got '%s'", w.Body.String())
	}
}

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"id":"123"}`},
		{"Conflict", http.StatusConflict, `{"code":"window_closed"}`},
		{"NotFound", http.StatusNotFound, "not found"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/elections", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{
			name:       "created response",
			statusCode: http.StatusCreated,
			data:       models.CreateElectionResponse{ElectionID: "e1", Slug: "board-2025", AdminKey: "key"},
			expected:   `{"election_id":"e1","slug":"board-2025","admin_key":"key"}`,
		},
		{
			name:       "error response without code",
			statusCode: http.StatusBadRequest,
			data:       models.ErrorResponse{Error: "Bad Request", Message: "missing field"},
			expected:   `{"error":"Bad Request","message":"missing field"}`,
		},
		{
			name:       "array data",
			statusCode: http.StatusOK,
			data:       []int{1, 2, 3},
			expected:   `[1,2,3]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, got)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	ErrorResponse(w, http.StatusNotFound, "election not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error != "Not Found" || resp.Message != "election not found" || resp.Code != "" {
		t.Errorf("Unexpected error response %+v", resp)
	}
}

func TestRefusalResponse(t *testing.T) {
	testCases := []struct {
		code     string
		expected int
	}{
		{nomination.CodeWindowClosed, http.StatusConflict},
		{nomination.CodeWindowNotOpen, http.StatusConflict},
		{nomination.CodeResponseClosed, http.StatusConflict},
		{nomination.CodeNotEditable, http.StatusConflict},
		{nomination.CodeInvalidTransition, http.StatusConflict},
		{nomination.CodeWrongActor, http.StatusForbidden},
		{nomination.CodeNotEligible, http.StatusForbidden},
		{nomination.CodeNomineeNotEligible, http.StatusForbidden},
		{nomination.CodeProfileIncomplete, http.StatusUnprocessableEntity},
		{nomination.CodeInvalid, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			w := httptest.NewRecorder()

			RefusalResponse(w, &nomination.Refusal{Code: tc.code, Message: "nope"})

			if w.Code != tc.expected {
				t.Errorf("Expected status %d, got %d", tc.expected, w.Code)
			}
			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Code != tc.code {
				t.Errorf("Expected code '%s', got '%s'", tc.code, resp.Code)
			}
			if resp.Message != "nope" {
				t.Errorf("Expected message 'nope', got '%s'", resp.Message)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		body := `{"nominee_member_id":"m1","statement":"Great organizer","submit":true}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.CreateNominationRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.NomineeMemberID != "m1" || !parsed.Submit {
			t.Errorf("Unexpected parse result %+v", parsed)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{invalid json}`))

		var parsed models.CreateNominationRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))

		var parsed models.BallotRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for empty body")
		}
	})
}

func TestRequireMember(t *testing.T) {
	secret := []byte("test-jwt")
	valid, err := auth.GenerateMemberToken("member-1", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateMemberToken() error = %v", err)
	}
	other, _ := auth.GenerateMemberToken("member-1", []byte("other"), time.Hour)

	testCases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + other, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			handler := RequireMember(secret, func(w http.ResponseWriter, r *http.Request) {
				seen, _ = MemberID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/me/eligibility", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, w.Code)
			}
			if tc.wantStatus == http.StatusOK && seen != "member-1" {
				t.Errorf("Expected member-1 in context, got '%s'", seen)
			}
		})
	}
}

func TestMemberID_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := MemberID(req.Context()); ok {
		t.Error("Expected no member in a bare context")
	}
}

func TestHasAdminKey(t *testing.T) {
	salt := "test-admin-salt"
	site := auth.GenerateAdminKey(auth.SiteScope, salt)
	election := auth.GenerateAdminKey(auth.ElectionScope("e1"), salt)
	otherElection := auth.GenerateAdminKey(auth.ElectionScope("e2"), salt)

	testCases := []struct {
		name     string
		key      string
		scopes   []string
		expected bool
	}{
		{"site key, site operation", site, nil, true},
		{"site key, election operation", site, []string{auth.ElectionScope("e1")}, true},
		{"election key, its election", election, []string{auth.ElectionScope("e1")}, true},
		{"election key, site operation", election, nil, false},
		{"other election key", otherElection, []string{auth.ElectionScope("e1")}, false},
		{"missing key", "", []string{auth.ElectionScope("e1")}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", nil)
			if tc.key != "" {
				req.Header.Set("X-Admin-Key", tc.key)
			}
			if got := HasAdminKey(req, salt, tc.scopes...); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})

	corsHandler := CORS(nextHandler)

	t.Run("preflight OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/elections", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}
		allowed := w.Header().Get("Access-Control-Allow-Headers")
		for _, h := range []string{"Authorization", "X-Admin-Key", "Content-Type"} {
			if !strings.Contains(allowed, h) {
				t.Errorf("Expected %s in allowed headers", h)
			}
		}
	})

	t.Run("request without origin defaults to wildcard", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/elections", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected Access-Control-Allow-Origin to default to '*'")
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expectedIP string
	}{
		{"X-Forwarded-For single IP", map[string]string{"X-Forwarded-For": "192.168.1.100"}, "10.0.0.1:12345", "192.168.1.100"},
		{"X-Forwarded-For chained IPs", map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18"}, "127.0.0.1:12345", "203.0.113.195"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "203.0.113.50"}, "10.0.0.1:12345", "203.0.113.50"},
		{"RemoteAddr with port", map[string]string{}, "192.168.1.50:54321", "192.168.1.50"},
		{"RemoteAddr without port", map[string]string{}, "192.168.1.50", "192.168.1.50"},
		{"IPv6 RemoteAddr with port", map[string]string{}, "[::1]:12345", "[::1]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if result := GetClientIP(req); result != tc.expectedIP {
				t.Errorf("Expected IP '%s', got '%s'", tc.expectedIP, result)
			}
		})
	}
}
