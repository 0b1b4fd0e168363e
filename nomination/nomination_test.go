// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package nomination

import (
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/board-elections/models"
)

var (
	opens  = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	closes = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	window = Window{
		NominationsOpen:  opens,
		NominationsClose: closes,
		ResponseDeadline: closes.AddDate(0, 0, 7),
	}
	duringNominations = opens.AddDate(0, 0, 3)
	duringResponse    = closes.AddDate(0, 0, 2)
)

func ctxFor(actor string, now time.Time) Context {
	return Context{
		Now:             now,
		ActorID:         actor,
		ActorEligible:   true,
		NomineeEligible: true,
		ProfileComplete: true,
		Window:          window,
	}
}

func draftOf(nominator, nomineeMember string) models.Nomination {
	return models.Nomination{
		ID:               "nom-1",
		NomineeID:        "nominee-1",
		NominatorID:      nominator,
		NomineeMemberID:  nomineeMember,
		Statement:        "Great neighbor",
		Draft:            true,
		AcceptanceStatus: models.AcceptancePending,
	}
}

func submitted(nominator, nomineeMember, status string) models.Nomination {
	n := draftOf(nominator, nomineeMember)
	n.Draft = false
	n.AcceptanceStatus = status
	return n
}

func expectRefusal(t *testing.T, err error, code string) {
	t.Helper()
	r, ok := AsRefusal(err)
	if !ok {
		t.Fatalf("Expected refusal %q, got %v", code, err)
	}
	if r.Code != code {
		t.Errorf("Expected refusal code %q, got %q", code, r.Code)
	}
}

func TestCreateDraft(t *testing.T) {
	nominee := models.Nominee{ID: "nominee-1", MemberID: "bob"}

	tests := []struct {
		name     string
		ctx      Context
		stmt     string
		wantCode string
	}{
		{"valid", ctxFor("alice", duringNominations), "Great neighbor", ""},
		{"before window", ctxFor("alice", opens.Add(-time.Hour)), "x", CodeWindowNotOpen},
		{"after window", ctxFor("alice", closes), "x", CodeWindowClosed},
		{"ineligible actor", func() Context { c := ctxFor("alice", duringNominations); c.ActorEligible = false; return c }(), "x", CodeNotEligible},
		{"ineligible nominee", func() Context { c := ctxFor("alice", duringNominations); c.NomineeEligible = false; return c }(), "x", CodeNomineeNotEligible},
		{"empty statement", ctxFor("alice", duringNominations), "   ", CodeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := CreateDraft(tt.ctx, nominee, tt.stmt)
			if tt.wantCode != "" {
				expectRefusal(t, err, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("CreateDraft() error = %v", err)
			}
			if n.ID == "" {
				t.Error("Expected generated ID")
			}
			if !n.Draft {
				t.Error("Expected draft nomination")
			}
			if n.AcceptanceStatus != models.AcceptancePending {
				t.Errorf("Expected pending, got %s", n.AcceptanceStatus)
			}
			if n.NomineeMemberID != "bob" || n.NominatorID != "alice" {
				t.Errorf("Unexpected parties: %+v", n)
			}
		})
	}
}

func TestSubmit_NonSelfNotifiesOnce(t *testing.T) {
	out, err := Submit(ctxFor("alice", duringNominations), draftOf("alice", "bob"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !out.Notify {
		t.Error("Expected notification on first submission")
	}
	if out.Nomination.Draft {
		t.Error("Expected nomination to leave draft")
	}
	if out.Nomination.AcceptanceStatus != models.AcceptancePending {
		t.Errorf("Expected pending, got %s", out.Nomination.AcceptanceStatus)
	}

	// A second submit must not notify again.
	_, err = Submit(ctxFor("alice", duringNominations), out.Nomination)
	expectRefusal(t, err, CodeInvalidTransition)

	// Nor does editing, which non-self submitted nominations refuse anyway.
	_, err = Edit(ctxFor("alice", duringNominations), out.Nomination, "changed")
	expectRefusal(t, err, CodeNotEditable)
}

func TestSubmit_SelfComplete(t *testing.T) {
	ctx := ctxFor("alice", duringNominations)
	out, err := Submit(ctx, draftOf("alice", "alice"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Notify {
		t.Error("Self-nomination must not notify")
	}
	if out.Nomination.AcceptanceStatus != models.AcceptanceAccepted {
		t.Errorf("Expected accepted, got %s", out.Nomination.AcceptanceStatus)
	}
	if out.Nomination.AcceptanceDate == nil || !out.Nomination.AcceptanceDate.Equal(ctx.Now) {
		t.Errorf("Expected acceptance date %v, got %v", ctx.Now, out.Nomination.AcceptanceDate)
	}
}

func TestSubmit_SelfIncompleteDefers(t *testing.T) {
	ctx := ctxFor("alice", duringNominations)
	ctx.ProfileComplete = false

	out, err := Submit(ctx, draftOf("alice", "alice"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !out.ProfileRequired {
		t.Error("Expected profile to be required")
	}
	if !out.Nomination.Draft {
		t.Error("Expected nomination to remain a draft")
	}
	if out.Notify {
		t.Error("Deferred submission must not notify")
	}

	// Still incomplete: stays deferred.
	again, err := ResumeAfterProfile(ctx, out.Nomination)
	if err != nil || !again.ProfileRequired {
		t.Fatalf("Expected deferral to persist, got %+v, %v", again, err)
	}

	ctx.ProfileComplete = true
	resumed, err := ResumeAfterProfile(ctx, out.Nomination)
	if err != nil {
		t.Fatalf("ResumeAfterProfile() error = %v", err)
	}
	if resumed.Nomination.AcceptanceStatus != models.AcceptanceAccepted || resumed.Nomination.Draft {
		t.Errorf("Expected accepted submission, got %+v", resumed.Nomination)
	}
}

func TestSubmit_Refusals(t *testing.T) {
	tests := []struct {
		name     string
		ctx      Context
		n        models.Nomination
		wantCode string
	}{
		{"not nominator", ctxFor("carol", duringNominations), draftOf("alice", "bob"), CodeWrongActor},
		{"window closed", ctxFor("alice", closes.Add(time.Minute)), draftOf("alice", "bob"), CodeWindowClosed},
		{"already submitted", ctxFor("alice", duringNominations), submitted("alice", "bob", models.AcceptancePending), CodeInvalidTransition},
		{"declined self", ctxFor("alice", duringNominations), submitted("alice", "alice", models.AcceptanceDeclined), CodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Submit(tt.ctx, tt.n)
			expectRefusal(t, err, tt.wantCode)
		})
	}
}

func TestEdit(t *testing.T) {
	tests := []struct {
		name     string
		ctx      Context
		n        models.Nomination
		wantCode string
	}{
		{"draft", ctxFor("alice", duringNominations), draftOf("alice", "bob"), ""},
		{"accepted self", ctxFor("alice", duringNominations), submitted("alice", "alice", models.AcceptanceAccepted), ""},
		{"declined self", ctxFor("alice", duringNominations), submitted("alice", "alice", models.AcceptanceDeclined), CodeNotEditable},
		{"submitted non-self", ctxFor("alice", duringNominations), submitted("alice", "bob", models.AcceptancePending), CodeNotEditable},
		{"not nominator", ctxFor("bob", duringNominations), draftOf("alice", "bob"), CodeWrongActor},
		{"window closed", ctxFor("alice", duringResponse), draftOf("alice", "bob"), CodeWindowClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Edit(tt.ctx, tt.n, "Updated statement")
			if tt.wantCode != "" {
				expectRefusal(t, err, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("Edit() error = %v", err)
			}
			if n.Statement != "Updated statement" {
				t.Errorf("Expected statement to change, got %q", n.Statement)
			}
			if n.Draft != tt.n.Draft || n.AcceptanceStatus != tt.n.AcceptanceStatus {
				t.Error("Edit must not change state")
			}
		})
	}
}

func TestRespond(t *testing.T) {
	pending := submitted("alice", "bob", models.AcceptancePending)

	t.Run("accept", func(t *testing.T) {
		ctx := ctxFor("bob", duringResponse)
		n, err := Respond(ctx, pending, true, "  Happy to serve  ")
		if err != nil {
			t.Fatalf("Respond() error = %v", err)
		}
		if n.AcceptanceStatus != models.AcceptanceAccepted {
			t.Errorf("Expected accepted, got %s", n.AcceptanceStatus)
		}
		if n.AcceptanceDate == nil || !n.AcceptanceDate.Equal(ctx.Now) {
			t.Error("Expected acceptance date to be set")
		}
		if n.AcceptanceNote == nil || *n.AcceptanceNote != "Happy to serve" {
			t.Errorf("Expected trimmed note, got %v", n.AcceptanceNote)
		}
	})

	t.Run("decline without profile", func(t *testing.T) {
		ctx := ctxFor("bob", duringNominations)
		ctx.ProfileComplete = false
		n, err := Respond(ctx, pending, false, "")
		if err != nil {
			t.Fatalf("Respond() error = %v", err)
		}
		if n.AcceptanceStatus != models.AcceptanceDeclined {
			t.Errorf("Expected declined, got %s", n.AcceptanceStatus)
		}
		if n.AcceptanceNote != nil {
			t.Error("Expected no note")
		}
	})

	t.Run("change of mind before deadline", func(t *testing.T) {
		declined := submitted("alice", "bob", models.AcceptanceDeclined)
		n, err := Respond(ctxFor("bob", duringResponse), declined, true, "")
		if err != nil {
			t.Fatalf("Respond() error = %v", err)
		}
		if n.AcceptanceStatus != models.AcceptanceAccepted {
			t.Errorf("Expected accepted, got %s", n.AcceptanceStatus)
		}
	})

	incomplete := ctxFor("bob", duringResponse)
	incomplete.ProfileComplete = false

	tests := []struct {
		name     string
		ctx      Context
		n        models.Nomination
		accept   bool
		wantCode string
	}{
		{"wrong actor", ctxFor("alice", duringResponse), pending, true, CodeWrongActor},
		{"self nomination", ctxFor("alice", duringResponse), submitted("alice", "alice", models.AcceptanceAccepted), false, CodeInvalidTransition},
		{"draft", ctxFor("bob", duringResponse), draftOf("alice", "bob"), true, CodeInvalidTransition},
		{"deadline passed", ctxFor("bob", window.ResponseDeadline), pending, true, CodeResponseClosed},
		{"accept incomplete profile", incomplete, pending, true, CodeProfileIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Respond(tt.ctx, tt.n, tt.accept, "")
			expectRefusal(t, err, tt.wantCode)
		})
	}
}

func TestWithdraw(t *testing.T) {
	accepted := submitted("alice", "alice", models.AcceptanceAccepted)
	note := "old note"
	accepted.AcceptanceNote = &note

	n, err := Withdraw(ctxFor("alice", duringResponse), accepted)
	if err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}
	if n.AcceptanceStatus != models.AcceptanceDeclined {
		t.Errorf("Expected declined, got %s", n.AcceptanceStatus)
	}
	if n.AcceptanceDate == nil {
		t.Error("Expected withdrawal timestamp")
	}
	if n.AcceptanceNote != nil {
		t.Error("Withdrawal must clear the note")
	}

	// Declined self-nominations are final.
	if CanEdit(n) {
		t.Error("Declined self-nomination must not be editable")
	}
	_, err = Withdraw(ctxFor("alice", duringResponse), n)
	expectRefusal(t, err, CodeInvalidTransition)

	tests := []struct {
		name     string
		ctx      Context
		n        models.Nomination
		wantCode string
	}{
		{"non-self", ctxFor("bob", duringResponse), submitted("alice", "bob", models.AcceptanceAccepted), CodeInvalidTransition},
		{"wrong actor", ctxFor("bob", duringResponse), accepted, CodeWrongActor},
		{"deadline passed", ctxFor("alice", window.ResponseDeadline.Add(time.Second)), accepted, CodeResponseClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Withdraw(tt.ctx, tt.n)
			expectRefusal(t, err, tt.wantCode)
		})
	}
}

func TestWindowFor_CapsAtVotingOpens(t *testing.T) {
	e := models.Election{
		NominationsOpen:  opens,
		NominationsClose: closes,
		VotingOpens:      closes.AddDate(0, 0, 3),
	}
	w := WindowFor(e, 7*24*time.Hour)
	if !w.ResponseDeadline.Equal(e.VotingOpens) {
		t.Errorf("Expected deadline capped at %v, got %v", e.VotingOpens, w.ResponseDeadline)
	}

	e.VotingOpens = closes.AddDate(0, 1, 0)
	w = WindowFor(e, 7*24*time.Hour)
	if want := closes.Add(7 * 24 * time.Hour); !w.ResponseDeadline.Equal(want) {
		t.Errorf("Expected deadline %v, got %v", want, w.ResponseDeadline)
	}
}

func TestRefusalIsError(t *testing.T) {
	var err error = refuse(CodeWrongActor, "nope")
	wrapped := errors.Join(errors.New("context"), err)
	if _, ok := AsRefusal(wrapped); !ok {
		t.Error("Expected AsRefusal to unwrap joined errors")
	}
	if _, ok := AsRefusal(errors.New("plain")); ok {
		t.Error("Plain error must not be a refusal")
	}
}
