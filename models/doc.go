// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest, AddQuestionRequest: election setup
  - CreateMemberRequest, AddSubscriptionRequest, RecordActivityRequest,
    LinkAccountRequest, AddGrantRequest: member facts
  - CreateNominationRequest, EditNominationRequest, RespondRequest
  - ProfileRequest, PhotoUploadRequest: nominee profile
  - BallotRequest: nominee_ids plus question answers
  - NotifyOpenRequest: dry_run, run_id

# Response Types

  - CreateElectionResponse: election_id, slug, admin_key
  - CreateMemberResponse: member_id, token
  - NominationResponse: nomination plus profile_required
  - BallotResponse: ballot_id, updated
  - ErrorResponse: error, message, code

# Domain Types

  - Member, Subscription, CommunityAccount, ActivityDay, RecognitionGrant
  - District: explicit number plus display name
  - Election: schedule and seat rules (Validate, ResponseDeadline)
  - Question, Nominee, Nomination, Ballot

# Constants

Subscription statuses count toward eligibility only when active or trialing:

	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"

Acceptance statuses:

	AcceptancePending  = "pending"
	AcceptanceAccepted = "accepted"
	AcceptanceDeclined = "declined"
*/
package models
