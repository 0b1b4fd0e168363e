// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and manages its schema.

# Connecting

Open supports PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite):

	conn, err := db.Open(ctx, db.TypePostgres, cfg.DatabaseURL)

# Schema Creation

CreateSchema applies the embedded goose migrations:

	if err := db.CreateSchema(ctx, conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - goose records applied versions.

# Tables

  - district: council districts keyed by number
  - member: members with address and district
  - subscription, community_account, activity_day, recognition_grant: eligibility facts
  - election, question: election schedule, seat rules, ballot questions
  - nominee, nomination: candidates and who nominated them
  - ballot, candidate_vote, question_vote: one ballot per voter per election
  - jobs, dead_letter_jobs: notification queue
  - notice_delivery: recipients already notified per bulk run

# Relationships

	election 1──* question
	election 1──* nominee 1──* nomination
	election 1──* ballot 1──* candidate_vote
	ballot 1──* question_vote
	member 1──* subscription, activity_day, recognition_grant

# Constraints

IsUniqueViolation recognizes duplicate-key errors from both drivers. The
uniqueness rules that matter to callers are nominee (election_id, member_id),
nomination (nominee_id, nominator_id) and ballot (election_id, voter_id).
*/
package db
