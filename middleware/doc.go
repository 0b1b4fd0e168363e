// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, client IP) and completion (status,
duration_ms).

# Member Authentication

RequireMember validates the Authorization: Bearer token and puts the member
ID in the request context:

	mux.HandleFunc("GET /me/eligibility", middleware.RequireMember(secret, h.GetMine))

	memberID, _ := middleware.MemberID(r.Context())

# Admin Keys

HasAdminKey checks X-Admin-Key against the site key and any extra scopes:

	if !middleware.HasAdminKey(r, cfg.AdminKeySalt, auth.ElectionScope(e.ID)) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Refused nomination transitions carry their reason code:

	if ref, ok := nomination.AsRefusal(err); ok {
		middleware.RefusalResponse(w, ref)
		return
	}

wrong_actor and not_eligible map to 403, profile_incomplete to 422, invalid
to 400, and the window and transition codes to 409.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}
*/
package middleware
