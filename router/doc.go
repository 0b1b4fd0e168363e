// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the board elections API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Elections (writes require X-Admin-Key):

	POST /elections                         - Create election (site key)
	GET  /elections                         - List elections
	GET  /elections/upcoming                - Next election still open for voting
	GET  /elections/{slug}                  - Election, questions and phase
	POST /elections/{slug}/questions        - Add ballot question
	POST /elections/{slug}/notify-open      - Queue voting-open notices

Members and districts (site key):

	POST /members
	POST /members/{id}/subscriptions
	POST /members/{id}/activity
	POST /members/{id}/community-accounts
	POST /members/{id}/grants
	PUT  /members/{id}/district
	POST /districts
	GET  /districts

Member routes (Authorization: Bearer <token>):

	GET  /me/eligibility
	GET  /me/nominations
	GET  /elections/{slug}/eligibility
	POST /elections/{slug}/nominations
	GET  /elections/{slug}/nominations/{id}
	PUT  /elections/{slug}/nominations/{id}
	POST /elections/{slug}/nominations/{id}/respond
	POST /elections/{slug}/nominations/{id}/withdraw
	PUT  /elections/{slug}/nominees/{id}/profile
	POST /elections/{slug}/nominees/{id}/photo-upload
	POST /elections/{slug}/ballot
	GET  /elections/{slug}/ballot

Public:

	GET /elections/{slug}/nominees          - Candidates, after nominations close
	GET /elections/{slug}/seats             - Seats available
	GET /elections/{slug}/results           - After voting closes
	GET /elections/{slug}/results.csv
	GET /elections/{slug}/ballot-count

Jobs (site key):

	GET /jobs/dead-letters
	GET /jobs/{id}

# Middleware

Every route except /health and / is wrapped with WithLogging. CORS is
applied to the whole mux in main.
*/
package router
