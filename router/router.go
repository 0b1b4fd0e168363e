// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/board-elections/cliparse"
	"github.com/danielhkuo/board-elections/handlers"
	"github.com/danielhkuo/board-elections/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(db, cfg)
	memberHandler := handlers.NewMemberHandler(db, cfg)
	eligibilityHandler := handlers.NewEligibilityHandler(db, cfg)
	nominationHandler := handlers.NewNominationHandler(db, cfg)
	nomineeHandler := handlers.NewNomineeHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	noticeHandler := handlers.NewNoticeHandler(db, cfg)

	secret := []byte(cfg.JWTSecret)
	member := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireMember(secret, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Elections
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.CreateElection))
	mux.HandleFunc("GET /elections", middleware.WithLogging(electionHandler.ListElections))
	mux.HandleFunc("GET /elections/upcoming", middleware.WithLogging(electionHandler.GetUpcoming))
	mux.HandleFunc("GET /elections/{slug}", middleware.WithLogging(electionHandler.GetElection))
	mux.HandleFunc("POST /elections/{slug}/questions", middleware.WithLogging(electionHandler.AddQuestion))
	mux.HandleFunc("POST /elections/{slug}/notify-open", middleware.WithLogging(noticeHandler.NotifyOpen))

	// Member administration and reference data
	mux.HandleFunc("POST /members", middleware.WithLogging(memberHandler.CreateMember))
	mux.HandleFunc("POST /members/{id}/subscriptions", middleware.WithLogging(memberHandler.AddSubscription))
	mux.HandleFunc("POST /members/{id}/activity", middleware.WithLogging(memberHandler.RecordActivity))
	mux.HandleFunc("POST /members/{id}/community-accounts", middleware.WithLogging(memberHandler.LinkAccount))
	mux.HandleFunc("POST /members/{id}/grants", middleware.WithLogging(memberHandler.AddGrant))
	mux.HandleFunc("PUT /members/{id}/district", middleware.WithLogging(memberHandler.SetDistrict))
	mux.HandleFunc("POST /districts", middleware.WithLogging(memberHandler.CreateDistrict))
	mux.HandleFunc("GET /districts", middleware.WithLogging(memberHandler.ListDistricts))

	// Eligibility (member)
	mux.HandleFunc("GET /me/eligibility", member(eligibilityHandler.GetMine))
	mux.HandleFunc("GET /elections/{slug}/eligibility", member(eligibilityHandler.GetForElection))

	// Nominations (member)
	mux.HandleFunc("POST /elections/{slug}/nominations", member(nominationHandler.CreateNomination))
	mux.HandleFunc("GET /elections/{slug}/nominations/{id}", member(nominationHandler.GetNomination))
	mux.HandleFunc("PUT /elections/{slug}/nominations/{id}", member(nominationHandler.UpdateNomination))
	mux.HandleFunc("POST /elections/{slug}/nominations/{id}/respond", member(nominationHandler.Respond))
	mux.HandleFunc("POST /elections/{slug}/nominations/{id}/withdraw", member(nominationHandler.Withdraw))
	mux.HandleFunc("GET /me/nominations", member(nominationHandler.ListMine))

	// Nominee profiles
	mux.HandleFunc("PUT /elections/{slug}/nominees/{id}/profile", member(nomineeHandler.UpdateProfile))
	mux.HandleFunc("POST /elections/{slug}/nominees/{id}/photo-upload", member(nomineeHandler.PhotoUpload))
	mux.HandleFunc("GET /elections/{slug}/nominees", middleware.WithLogging(nomineeHandler.ListNominees))

	// Voting
	mux.HandleFunc("POST /elections/{slug}/ballot", member(votingHandler.SubmitBallot))
	mux.HandleFunc("GET /elections/{slug}/ballot", member(votingHandler.GetMyBallot))
	mux.HandleFunc("GET /elections/{slug}/seats", middleware.WithLogging(votingHandler.GetSeats))

	// Results (public, sealed until voting closes)
	mux.HandleFunc("GET /elections/{slug}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /elections/{slug}/results.csv", middleware.WithLogging(resultsHandler.ExportResults))
	mux.HandleFunc("GET /elections/{slug}/ballot-count", middleware.WithLogging(resultsHandler.GetBallotCount))

	// Notification jobs (site admin)
	mux.HandleFunc("GET /jobs/dead-letters", middleware.WithLogging(noticeHandler.ListDeadLetters))
	mux.HandleFunc("GET /jobs/{id}", middleware.WithLogging(noticeHandler.GetJob))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("board-elections API v1"))
	})

	return mux
}
