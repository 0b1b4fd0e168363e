package models

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Subscription status constants
const (
	SubscriptionActive     = "active"
	SubscriptionTrialing   = "trialing"
	SubscriptionPastDue    = "past_due"
	SubscriptionCanceled   = "canceled"
	SubscriptionIncomplete = "incomplete"
	SubscriptionUnpaid     = "unpaid"
)

// Recognition grant kinds
const (
	GrantFiscal        = "fiscal"
	GrantParticipation = "participation"
)

// Nomination acceptance status constants
const (
	AcceptancePending  = "pending"
	AcceptanceAccepted = "accepted"
	AcceptanceDeclined = "declined"
)

// Question answers
const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

// ProviderDiscord is the only community provider counted for activity.
const ProviderDiscord = "discord"

var (
	ErrScheduleOrder    = errors.New("election dates must be ordered: eligibility deadline, nominations open, nominations close, voting opens, voting closes")
	ErrNegativeSeatRule = errors.New("seat parameters must not be negative")
)

// Domain types

type Member struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"-"`
	Username      string    `json:"username"`
	StreetAddress string    `json:"-"`
	ZipCode       string    `json:"-"`
	District      *int      `json:"district,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DisplayName is the public form of a member's name: first name plus last
// initial, or the username when no first name is on file.
func (m Member) DisplayName() string {
	first := strings.TrimSpace(m.FirstName)
	if first == "" {
		return m.Username
	}
	last := strings.TrimSpace(m.LastName)
	if last == "" {
		return first
	}
	initial, _ := firstRune(last)
	return first + " " + string(unicode.ToUpper(initial)) + "."
}

// ProfileComplete reports whether the member has an address on file.
func (m Member) ProfileComplete() bool {
	return strings.TrimSpace(m.StreetAddress) != "" && strings.TrimSpace(m.ZipCode) != ""
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

type Subscription struct {
	ID                 string    `json:"id"`
	MemberID           string    `json:"member_id"`
	Status             string    `json:"status"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
}

// Qualifying reports whether the subscription status counts toward eligibility.
func (s Subscription) Qualifying() bool {
	return s.Status == SubscriptionActive || s.Status == SubscriptionTrialing
}

type CommunityAccount struct {
	MemberID string `json:"member_id"`
	Provider string `json:"provider"`
	Handle   string `json:"handle"`
}

// ActivityDay is the message count for one member on one calendar day.
type ActivityDay struct {
	MemberID string    `json:"member_id"`
	Day      time.Time `json:"day"`
	Count    int       `json:"count"`
}

type RecognitionGrant struct {
	ID        string     `json:"id"`
	MemberID  string     `json:"member_id"`
	Kind      string     `json:"kind"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Reason    string     `json:"reason"`
}

type District struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

var districtDigits = regexp.MustCompile(`\d+`)

// ParseDistrictNumber extracts the first run of digits from a district name
// ("District 7" -> 7). Only used for names imported without a number.
func ParseDistrictNumber(name string) (int, bool) {
	m := districtDigits.FindString(name)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

type Election struct {
	ID                            string    `json:"id"`
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
	CreatedAt                     time.Time `json:"created_at"`
}

// Validate checks the timestamp ordering and seat parameters.
func (e Election) Validate() error {
	ordered := []time.Time{
		e.MembershipEligibilityDeadline,
		e.NominationsOpen,
		e.NominationsClose,
		e.VotingOpens,
		e.VotingCloses,
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Before(ordered[i-1]) {
			return ErrScheduleOrder
		}
	}
	if e.DistrictSeatMinVoters < 0 || e.DistrictSeatMinVotes < 0 || e.AtLargeSeatsCount < 0 {
		return ErrNegativeSeatRule
	}
	return nil
}

// NominationsOpenAt reports whether t falls in [nominations_open, nominations_close).
func (e Election) NominationsOpenAt(t time.Time) bool {
	return !t.Before(e.NominationsOpen) && t.Before(e.NominationsClose)
}

// VotingOpenAt reports whether t falls in [voting_opens, voting_closes).
func (e Election) VotingOpenAt(t time.Time) bool {
	return !t.Before(e.VotingOpens) && t.Before(e.VotingCloses)
}

// ResponseDeadline is when nominees stop being able to accept, decline or
// withdraw: nominations close plus the acceptance period, never later than
// voting opens.
func (e Election) ResponseDeadline(acceptancePeriod time.Duration) time.Time {
	deadline := e.NominationsClose.Add(acceptancePeriod)
	if deadline.After(e.VotingOpens) {
		return e.VotingOpens
	}
	return deadline
}

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}

type Question struct {
	ID         string `json:"id"`
	ElectionID string `json:"election_id"`
	Position   int    `json:"position"`
	Text       string `json:"text"`
}

type Nominee struct {
	ID                           string    `json:"id"`
	ElectionID                   string    `json:"election_id"`
	MemberID                     string    `json:"member_id"`
	PhotoKey                     string    `json:"photo_key,omitempty"`
	PublicDisplayName            string    `json:"public_display_name"`
	ResponsibilitiesAcknowledged bool      `json:"responsibilities_acknowledged"`
	CreatedAt                    time.Time `json:"created_at"`
	UpdatedAt                    time.Time `json:"updated_at"`
}

// IsProfileComplete reports whether the nominee has a photo and has
// acknowledged board responsibilities.
func (n Nominee) IsProfileComplete() bool {
	return n.PhotoKey != "" && n.ResponsibilitiesAcknowledged
}

type Nomination struct {
	ID               string     `json:"id"`
	NomineeID        string     `json:"nominee_id"`
	NominatorID      string     `json:"nominator_id"`
	Statement        string     `json:"statement"`
	Draft            bool       `json:"draft"`
	AcceptanceStatus string     `json:"acceptance_status"`
	AcceptanceDate   *time.Time `json:"acceptance_date,omitempty"`
	AcceptanceNote   *string    `json:"acceptance_note,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Loaded alongside the nomination from its nominee.
	NomineeMemberID string `json:"nominee_member_id"`
	ElectionID      string `json:"election_id"`
}

// IsSelfNomination reports whether the nominator nominated themself.
func (n Nomination) IsSelfNomination() bool {
	return n.NominatorID == n.NomineeMemberID
}

type Ballot struct {
	ID          string            `json:"id"`
	ElectionID  string            `json:"election_id"`
	VoterID     string            `json:"-"`
	SubmittedAt time.Time         `json:"submitted_at"`
	NomineeIDs  []string          `json:"nominee_ids"`
	Answers     map[string]string `json:"answers"`
}
