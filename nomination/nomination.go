// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package nomination

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/board-elections/models"
)

// Window holds the election instants that gate nomination transitions.
type Window struct {
	NominationsOpen  time.Time
	NominationsClose time.Time
	ResponseDeadline time.Time
}

// WindowFor derives the transition window for an election.
func WindowFor(e models.Election, acceptancePeriod time.Duration) Window {
	return Window{
		NominationsOpen:  e.NominationsOpen,
		NominationsClose: e.NominationsClose,
		ResponseDeadline: e.ResponseDeadline(acceptancePeriod),
	}
}

// Context carries every precondition a transition depends on. Callers resolve
// these before calling; the transitions never look anything up.
type Context struct {
	Now     time.Time
	ActorID string

	// ActorEligible is the acting member's eligibility as of the election's
	// membership deadline.
	ActorEligible bool

	// NomineeEligible is only consulted by CreateDraft.
	NomineeEligible bool

	// ProfileComplete is the nominee profile's completeness.
	ProfileComplete bool

	Window Window
}

func (c Context) nominationsOpen() bool {
	return !c.Now.Before(c.Window.NominationsOpen) && c.Now.Before(c.Window.NominationsClose)
}

func (c Context) checkNominationWindow() error {
	if c.Now.Before(c.Window.NominationsOpen) {
		return refuse(CodeWindowNotOpen, "Nominations are not open yet.")
	}
	if !c.nominationsOpen() {
		return refuse(CodeWindowClosed, "Nominations are closed for this election.")
	}
	return nil
}

// Outcome is the result of a submission.
type Outcome struct {
	Nomination models.Nomination

	// Notify is set when the nominee must be told about a new nomination.
	Notify bool

	// ProfileRequired is set when a self-nomination was kept as a draft
	// until the nominee profile is completed.
	ProfileRequired bool
}

// CreateDraft starts a new draft nomination of nominee by the actor.
func CreateDraft(c Context, nominee models.Nominee, statement string) (models.Nomination, error) {
	if err := c.checkNominationWindow(); err != nil {
		return models.Nomination{}, err
	}
	if !c.ActorEligible {
		return models.Nomination{}, refuse(CodeNotEligible, "You must be an eligible member to make nominations.")
	}
	if !c.NomineeEligible {
		return models.Nomination{}, refuse(CodeNomineeNotEligible, "The nominee is not an eligible member.")
	}
	if strings.TrimSpace(statement) == "" {
		return models.Nomination{}, refuse(CodeInvalid, "A nomination statement is required.")
	}

	return models.Nomination{
		ID:               uuid.NewString(),
		NomineeID:        nominee.ID,
		NominatorID:      c.ActorID,
		NomineeMemberID:  nominee.MemberID,
		ElectionID:       nominee.ElectionID,
		Statement:        statement,
		Draft:            true,
		AcceptanceStatus: models.AcceptancePending,
		CreatedAt:        c.Now,
		UpdatedAt:        c.Now,
	}, nil
}

// Submit moves a draft out of draft. A complete self-nomination is accepted
// on the spot, an incomplete one stays a draft until the profile is done, and
// anyone else's nomination waits for the nominee to respond.
func Submit(c Context, n models.Nomination) (Outcome, error) {
	if c.ActorID != n.NominatorID {
		return Outcome{}, refuse(CodeWrongActor, "Only the nominator can submit this nomination.")
	}
	if !n.Draft {
		return Outcome{}, refuse(CodeInvalidTransition, "This nomination has already been submitted.")
	}
	if err := c.checkNominationWindow(); err != nil {
		return Outcome{}, err
	}
	if !c.ActorEligible {
		return Outcome{}, refuse(CodeNotEligible, "You must be an eligible member to make nominations.")
	}

	if n.IsSelfNomination() {
		if !c.ProfileComplete {
			return Outcome{Nomination: n, ProfileRequired: true}, nil
		}
		return Outcome{Nomination: acceptSelf(n, c.Now)}, nil
	}

	n.Draft = false
	n.AcceptanceStatus = models.AcceptancePending
	n.UpdatedAt = c.Now
	return Outcome{Nomination: n, Notify: true}, nil
}

func acceptSelf(n models.Nomination, now time.Time) models.Nomination {
	n.Draft = false
	n.AcceptanceStatus = models.AcceptanceAccepted
	n.AcceptanceDate = &now
	n.AcceptanceNote = nil
	n.UpdatedAt = now
	return n
}

// ResumeAfterProfile submits a self-nomination that was held back for an
// incomplete profile, once the profile is complete.
func ResumeAfterProfile(c Context, n models.Nomination) (Outcome, error) {
	if !n.IsSelfNomination() || !n.Draft {
		return Outcome{Nomination: n}, refuse(CodeInvalidTransition, "There is no pending self-nomination to submit.")
	}
	if !c.ProfileComplete {
		return Outcome{Nomination: n, ProfileRequired: true}, nil
	}
	return Submit(c, n)
}

// CanEdit reports whether the nominator may still change the nomination.
func CanEdit(n models.Nomination) bool {
	if n.Draft {
		return true
	}
	return n.IsSelfNomination() && n.AcceptanceStatus != models.AcceptanceDeclined
}

// Edit replaces the statement of an editable nomination.
func Edit(c Context, n models.Nomination, statement string) (models.Nomination, error) {
	if c.ActorID != n.NominatorID {
		return n, refuse(CodeWrongActor, "Only the nominator can edit this nomination.")
	}
	if !CanEdit(n) {
		return n, refuse(CodeNotEditable, "This nomination can no longer be edited.")
	}
	if err := c.checkNominationWindow(); err != nil {
		return n, err
	}
	if strings.TrimSpace(statement) == "" {
		return n, refuse(CodeInvalid, "A nomination statement is required.")
	}
	n.Statement = statement
	n.UpdatedAt = c.Now
	return n, nil
}

// Respond records the nominee's answer to someone else's nomination. The
// answer may be changed until the response deadline.
func Respond(c Context, n models.Nomination, accept bool, note string) (models.Nomination, error) {
	if c.ActorID != n.NomineeMemberID {
		return n, refuse(CodeWrongActor, "Only the nominee can respond to this nomination.")
	}
	if n.IsSelfNomination() {
		return n, refuse(CodeInvalidTransition, "Self-nominations are accepted automatically; withdraw instead.")
	}
	if n.Draft {
		return n, refuse(CodeInvalidTransition, "This nomination has not been submitted.")
	}
	if !c.Now.Before(c.Window.ResponseDeadline) {
		return n, refuse(CodeResponseClosed, "The acceptance period has closed. You can no longer change your response.")
	}
	if accept && !c.ProfileComplete {
		return n, refuse(CodeProfileIncomplete, "Please complete your nominee profile before accepting.")
	}

	now := c.Now
	n.AcceptanceStatus = models.AcceptanceDeclined
	if accept {
		n.AcceptanceStatus = models.AcceptanceAccepted
	}
	n.AcceptanceDate = &now
	n.AcceptanceNote = nil
	if note = strings.TrimSpace(note); note != "" {
		n.AcceptanceNote = &note
	}
	n.UpdatedAt = now
	return n, nil
}

// Withdraw declines the actor's own accepted self-nomination. It cannot be
// undone.
func Withdraw(c Context, n models.Nomination) (models.Nomination, error) {
	if c.ActorID != n.NomineeMemberID {
		return n, refuse(CodeWrongActor, "Only the nominee can withdraw.")
	}
	if !n.IsSelfNomination() {
		return n, refuse(CodeInvalidTransition, "Only self-nominations can be withdrawn; decline instead.")
	}
	if n.Draft || n.AcceptanceStatus != models.AcceptanceAccepted {
		return n, refuse(CodeInvalidTransition, "Only an accepted self-nomination can be withdrawn.")
	}
	if !c.Now.Before(c.Window.ResponseDeadline) {
		return n, refuse(CodeResponseClosed, "The acceptance period has closed. You can no longer withdraw.")
	}

	now := c.Now
	n.AcceptanceStatus = models.AcceptanceDeclined
	n.AcceptanceDate = &now
	n.AcceptanceNote = nil
	n.UpdatedAt = now
	return n, nil
}
