// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the board elections API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - ElectionHandler: election schedule, ballot questions, phase
  - MemberHandler: member records, eligibility facts, districts
  - EligibilityHandler: eligibility reports for the calling member
  - NominationHandler: nomination drafts, submission, responses
  - NomineeHandler: nominee profiles, photo uploads, candidate list
  - VotingHandler: ballots and available seats
  - ResultsHandler: results, CSV export, ballot count
  - NoticeHandler: election-open notices and job inspection

Handlers are created via constructor functions that accept *sql.DB and Config:

	nominationHandler := handlers.NewNominationHandler(db, cfg)

# Authentication

Members send a bearer token issued when the member was created; routes that
need one are wrapped in middleware.RequireMember. Administrative operations
take the X-Admin-Key header. The site key works everywhere, an election key
only for its own election.

# Nominations

Transitions are decided by package nomination; handlers resolve the
preconditions (time, eligibility, profile completeness) and persist the
outcome. A refusal is reported with a machine-readable code:

	{"error": "Conflict", "message": "Nominations are closed for this election.", "code": "window_closed"}

Notices to nominees are queued in the same transaction that saves the
nomination.

# Voting and Results

A ballot may be replaced until voting closes. Results stay sealed until
then and are computed by package seats from the stored ballots.
*/
package handlers
