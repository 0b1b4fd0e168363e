// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package eligibility

import (
	"context"
	"fmt"
	"time"

	"github.com/danielhkuo/board-elections/models"
)

// ActivityWindowDays is how far back community activity counts.
const ActivityWindowDays = 30

// Donor status values
const (
	DonorInactive        = "inactive"
	DonorActiveStable    = "active_stable"
	DonorRenewalRequired = "active_renewal_required"
	DonorExpiring        = "expiring"
)

// Facts are the membership records the evaluator needs for one member.
type Facts struct {
	Subscriptions       []models.Subscription
	HasCommunityAccount bool
	Activity            []models.ActivityDay
	Grants              []models.RecognitionGrant
}

// Result is the outcome of an eligibility check.
type Result struct {
	Eligible                  bool       `json:"eligible"`
	DonorSufficientAlone      bool       `json:"donor_sufficient_alone"`
	DiscordSufficientAlone    bool       `json:"discord_sufficient_alone"`
	MembershipSufficientAlone bool       `json:"membership_sufficient_alone"`
	DonorStatus               string     `json:"donor_status"`
	DonorNextRenewal          *time.Time `json:"donor_next_renewal,omitempty"`
	DiscordActive             bool       `json:"discord_active"`
	DiscordLastActivity       *time.Time `json:"discord_last_activity,omitempty"`
	HasCommunityAccount       bool       `json:"has_community_account"`
	ActivityCount             int        `json:"activity_count"`
	Warnings                  []string   `json:"warnings"`
	AtRisk                    bool       `json:"at_risk"`
}

// FactsProvider loads the membership facts for a member.
type FactsProvider interface {
	Facts(ctx context.Context, memberID string) (Facts, error)
}

// Evaluator answers eligibility questions against a FactsProvider.
type Evaluator struct {
	facts FactsProvider
	now   func() time.Time
}

func NewEvaluator(facts FactsProvider, now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{facts: facts, now: now}
}

// EligibleAsOf evaluates memberID as of target.
func (e *Evaluator) EligibleAsOf(ctx context.Context, memberID string, target time.Time) (Result, error) {
	facts, err := e.facts.Facts(ctx, memberID)
	if err != nil {
		return Result{}, fmt.Errorf("load eligibility facts: %w", err)
	}
	now := e.now().In(target.Location())
	return Evaluate(facts, target, now), nil
}

// Evaluate decides eligibility as of target. now is only used to classify the
// donor status and to decide which warnings apply; it never changes Eligible.
//
// Warnings are produced for eligible members and also for members who are
// not yet eligible but have a donation renewing before target or Discord
// activity as of now, so they learn what keeps them covered.
func Evaluate(f Facts, target, now time.Time) Result {
	targetDay := dayOf(target)
	today := dayOf(now)

	r := Result{
		DonorStatus:         DonorInactive,
		HasCommunityAccount: f.HasCommunityAccount,
		Warnings:            []string{},
	}

	// Donor path
	if sub, ok := latestQualifying(f.Subscriptions); ok {
		endDay := dayOf(sub.CurrentPeriodEnd)
		r.DonorSufficientAlone = !endDay.Before(targetDay)
		switch {
		case endDay.Equal(today):
			r.DonorStatus = DonorExpiring
		case endDay.Before(today):
			// A lapsed period only counts as expiring while it still
			// covers the target.
			if r.DonorSufficientAlone {
				r.DonorStatus = DonorExpiring
			}
		case endDay.Before(targetDay):
			r.DonorStatus = DonorRenewalRequired
			end := sub.CurrentPeriodEnd
			r.DonorNextRenewal = &end
		default:
			r.DonorStatus = DonorActiveStable
		}
	}

	// Community activity path
	var activeNow bool
	var lastNow time.Time
	if f.HasCommunityAccount {
		total, last := activityBetween(f.Activity, targetDay.AddDate(0, 0, -ActivityWindowDays), targetDay)
		r.ActivityCount = total
		if total > 0 {
			r.DiscordActive = true
			r.DiscordSufficientAlone = true
			r.DiscordLastActivity = &last
		}
		var nowTotal int
		nowTotal, lastNow = activityBetween(f.Activity, today.AddDate(0, 0, -ActivityWindowDays), today)
		activeNow = nowTotal > 0
	}

	// Special-recognition path
	for _, g := range f.Grants {
		if dayOf(g.StartDate).After(targetDay) {
			continue
		}
		if g.EndDate != nil && dayOf(*g.EndDate).Before(targetDay) {
			continue
		}
		r.MembershipSufficientAlone = true
		break
	}

	r.Eligible = r.DonorSufficientAlone || r.DiscordSufficientAlone || r.MembershipSufficientAlone

	if r.MembershipSufficientAlone {
		return r
	}
	renewalPending := r.DonorStatus == DonorRenewalRequired
	if !r.Eligible && !renewalPending && !activeNow {
		return r
	}

	if renewalPending {
		renews := r.DonorNextRenewal.Format(dateLayout)
		if r.DiscordSufficientAlone {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"Your donation renews on %s before the deadline - you're also eligible via Discord activity as backup", renews))
		} else {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"Your donation renews on %s before the deadline - please ensure your payment method is current", renews))
			r.AtRisk = true
		}
	}

	agingWarned := false
	if activeNow && targetDay.After(today) && lastNow.AddDate(0, 0, ActivityWindowDays).Before(targetDay) {
		cutoff := targetDay.AddDate(0, 0, -ActivityWindowDays).Format(dateLayout)
		if r.DonorSufficientAlone {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"Your Discord activity will age out before the deadline - post after %s to maintain backup eligibility, or you're covered by your active donation", cutoff))
		} else {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"You'll need to post on Discord at least once after %s to maintain eligibility", cutoff))
			r.AtRisk = true
		}
		agingWarned = true
	}

	switch {
	case r.DonorSufficientAlone && !r.DiscordSufficientAlone && !agingWarned:
		if f.HasCommunityAccount {
			r.Warnings = append(r.Warnings, "You're eligible via donation only - consider posting on Discord")
		} else {
			r.Warnings = append(r.Warnings, "You're eligible via donation only - consider connecting Discord")
		}
	case r.DiscordSufficientAlone && !r.DonorSufficientAlone && !renewalPending:
		r.Warnings = append(r.Warnings, "You're eligible via Discord activity only - consider becoming a recurring donor")
	}

	return r
}

const dateLayout = "Jan 02, 2006"

// dayOf returns the calendar date of t, as a UTC midnight.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func latestQualifying(subs []models.Subscription) (models.Subscription, bool) {
	var best models.Subscription
	found := false
	for _, s := range subs {
		if !s.Qualifying() {
			continue
		}
		if !found || s.CurrentPeriodEnd.After(best.CurrentPeriodEnd) {
			best = s
			found = true
		}
	}
	return best, found
}

// activityBetween sums counts on days in [from, to] and returns the latest
// day with a positive count.
func activityBetween(days []models.ActivityDay, from, to time.Time) (int, time.Time) {
	var total int
	var last time.Time
	for _, a := range days {
		d := dayOf(a.Day)
		if d.Before(from) || d.After(to) || a.Count <= 0 {
			continue
		}
		total += a.Count
		if d.After(last) {
			last = d
		}
	}
	return total, last
}
