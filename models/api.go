package models

import "time"

// Request types

type CreateElectionRequest struct {
	Title                         string    `json:"title"`
	Slug                          string    `json:"slug"`
	Description                   string    `json:"description"`
	MembershipEligibilityDeadline time.Time `json:"membership_eligibility_deadline"`
	NominationsOpen               time.Time `json:"nominations_open"`
	NominationsClose              time.Time `json:"nominations_close"`
	VotingOpens                   time.Time `json:"voting_opens"`
	VotingCloses                  time.Time `json:"voting_closes"`
	DistrictSeatMinVoters         int       `json:"district_seat_min_voters"`
	DistrictSeatMinVotes          int       `json:"district_seat_min_votes"`
	AtLargeSeatsCount             int       `json:"at_large_seats_count"`
}

type AddQuestionRequest struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
}

type CreateMemberRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Username      string `json:"username"`
	StreetAddress string `json:"street_address"`
	ZipCode       string `json:"zip_code"`
	District      *int   `json:"district"`
}

type AddSubscriptionRequest struct {
	Status             string    `json:"status"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
}

// Day is YYYY-MM-DD.
type RecordActivityRequest struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type LinkAccountRequest struct {
	Provider string `json:"provider"`
	Handle   string `json:"handle"`
}

// Dates are YYYY-MM-DD; a missing end date means open-ended.
type AddGrantRequest struct {
	Kind      string  `json:"kind"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Reason    string  `json:"reason"`
}

type SetDistrictRequest struct {
	District *int `json:"district"`
}

// Number may be omitted for names that carry it ("District 7").
type CreateDistrictRequest struct {
	Number *int   `json:"number"`
	Name   string `json:"name"`
}

type CreateNominationRequest struct {
	NomineeMemberID string `json:"nominee_member_id"`
	Statement       string `json:"statement"`
	Submit          bool   `json:"submit"`
}

// An empty statement leaves the current one in place.
type EditNominationRequest struct {
	Statement string `json:"statement"`
	Submit    bool   `json:"submit"`
}

type RespondRequest struct {
	Accept bool   `json:"accept"`
	Note   string `json:"note"`
}

type ProfileRequest struct {
	PhotoKey                     string `json:"photo_key"`
	PublicDisplayName            string `json:"public_display_name"`
	ResponsibilitiesAcknowledged bool   `json:"responsibilities_acknowledged"`
	StreetAddress                string `json:"street_address"`
	ZipCode                      string `json:"zip_code"`

	// SelfNominationID names a held-back self-nomination to submit once
	// the profile is complete.
	SelfNominationID string `json:"self_nomination_id"`
}

type PhotoUploadRequest struct {
	ContentType string `json:"content_type"`
}

// question_id -> yes/no
type BallotRequest struct {
	NomineeIDs []string          `json:"nominee_ids"`
	Answers    map[string]string `json:"answers"`
}

type NotifyOpenRequest struct {
	DryRun bool   `json:"dry_run"`
	RunID  string `json:"run_id"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	Slug       string `json:"slug"`
	AdminKey   string `json:"admin_key"`
}

type AddQuestionResponse struct {
	QuestionID string `json:"question_id"`
	Position   int    `json:"position"`
}

type CreateMemberResponse struct {
	MemberID string `json:"member_id"`
	Token    string `json:"token"`
}

type NominationResponse struct {
	Nomination Nomination `json:"nomination"`

	// ProfileRequired is set when a self-nomination is held as a draft
	// until the nominee profile is complete. ProfileURL is where to
	// complete it.
	ProfileRequired bool   `json:"profile_required,omitempty"`
	ProfileURL      string `json:"profile_url,omitempty"`
}

type ProfileResponse struct {
	Nominee         Nominee     `json:"nominee"`
	ProfileComplete bool        `json:"profile_complete"`
	Nomination      *Nomination `json:"nomination,omitempty"`
}

type BallotResponse struct {
	BallotID string `json:"ballot_id"`
	Updated  bool   `json:"updated"`
	Message  string `json:"message"`
}

type NotifyOpenResponse struct {
	JobID   string `json:"job_id,omitempty"`
	RunID   string `json:"run_id"`
	DryRun  bool   `json:"dry_run"`
	Summary string `json:"summary,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
