// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package eligibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/board-elections/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func sub(status string, end time.Time) models.Subscription {
	return models.Subscription{Status: status, CurrentPeriodStart: end.AddDate(0, -1, 0), CurrentPeriodEnd: end}
}

func activity(day time.Time, count int) models.ActivityDay {
	return models.ActivityDay{Day: day, Count: count}
}

func TestEvaluate_NoFacts(t *testing.T) {
	for _, target := range []time.Time{date(2020, 1, 1), date(2026, 3, 1), date(2030, 12, 31)} {
		r := Evaluate(Facts{}, target, date(2026, 1, 1))
		assert.False(t, r.Eligible)
		assert.Equal(t, DonorInactive, r.DonorStatus)
		assert.Empty(t, r.Warnings)
		assert.False(t, r.AtRisk)
	}
}

func TestEvaluate_DonorBoundary(t *testing.T) {
	target := date(2026, 3, 1)
	now := date(2026, 1, 1)

	tests := []struct {
		name       string
		sub        models.Subscription
		sufficient bool
		status     string
		target     time.Time
	}{
		{"ends on target", sub(models.SubscriptionActive, target), true, DonorActiveStable, time.Time{}},
		{"ends after target", sub(models.SubscriptionTrialing, target.AddDate(0, 2, 0)), true, DonorActiveStable, time.Time{}},
		{"ends day before target", sub(models.SubscriptionActive, target.AddDate(0, 0, -1)), false, DonorRenewalRequired, time.Time{}},
		{"canceled with future end", sub(models.SubscriptionCanceled, target.AddDate(1, 0, 0)), false, DonorInactive, time.Time{}},
		{"past due with future end", sub(models.SubscriptionPastDue, target.AddDate(1, 0, 0)), false, DonorInactive, time.Time{}},
		{"incomplete with future end", sub(models.SubscriptionIncomplete, target.AddDate(1, 0, 0)), false, DonorInactive, time.Time{}},
		{"ends today", sub(models.SubscriptionActive, now), false, DonorExpiring, time.Time{}},
		{"lapsed months ago", sub(models.SubscriptionActive, now.AddDate(0, -3, 0)), false, DonorInactive, time.Time{}},
		{"lapsed before past target", sub(models.SubscriptionActive, now.AddDate(0, -3, 0)), false, DonorInactive, now.AddDate(0, -1, 0)},
		{"lapsed but covers past target", sub(models.SubscriptionActive, now.AddDate(0, -1, 0)), true, DonorExpiring, now.AddDate(0, -2, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := target
			if !tt.target.IsZero() {
				at = tt.target
			}
			r := Evaluate(Facts{Subscriptions: []models.Subscription{tt.sub}}, at, now)
			assert.Equal(t, tt.sufficient, r.DonorSufficientAlone)
			assert.Equal(t, tt.sufficient, r.Eligible)
			assert.Equal(t, tt.status, r.DonorStatus)
		})
	}
}

func TestEvaluate_LatestSubscriptionWins(t *testing.T) {
	target := date(2026, 3, 1)
	facts := Facts{Subscriptions: []models.Subscription{
		sub(models.SubscriptionActive, date(2026, 2, 1)),
		sub(models.SubscriptionActive, date(2026, 6, 1)),
		sub(models.SubscriptionCanceled, date(2027, 1, 1)),
	}}

	r := Evaluate(facts, target, date(2026, 1, 1))
	assert.True(t, r.DonorSufficientAlone)
	assert.Equal(t, DonorActiveStable, r.DonorStatus)
}

func TestEvaluate_ActivityWindowBoundary(t *testing.T) {
	target := date(2026, 3, 1)
	targetDay := dayOf(target)

	tests := []struct {
		name       string
		day        time.Time
		sufficient bool
	}{
		{"on target", targetDay, true},
		{"exactly 30 days before", targetDay.AddDate(0, 0, -30), true},
		{"exactly 31 days before", targetDay.AddDate(0, 0, -31), false},
		{"after target", targetDay.AddDate(0, 0, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := Facts{
				HasCommunityAccount: true,
				Activity:            []models.ActivityDay{activity(tt.day, 3)},
			}
			r := Evaluate(facts, target, target)
			assert.Equal(t, tt.sufficient, r.DiscordSufficientAlone)
			assert.Equal(t, tt.sufficient, r.Eligible)
			if tt.sufficient {
				require.NotNil(t, r.DiscordLastActivity)
				assert.True(t, r.DiscordLastActivity.Equal(dayOf(tt.day)))
			}
		})
	}
}

func TestEvaluate_ActivityRequiresLinkedAccount(t *testing.T) {
	target := date(2026, 3, 1)
	facts := Facts{Activity: []models.ActivityDay{activity(target, 10)}}

	r := Evaluate(facts, target, target)
	assert.False(t, r.DiscordSufficientAlone)
	assert.False(t, r.Eligible)
}

func TestEvaluate_Grant(t *testing.T) {
	target := date(2026, 3, 1)
	before := target.AddDate(0, 0, -1)
	after := target.AddDate(0, 0, 1)

	tests := []struct {
		name       string
		grant      models.RecognitionGrant
		sufficient bool
	}{
		{"open ended", models.RecognitionGrant{Kind: models.GrantParticipation, StartDate: before}, true},
		{"starts on target", models.RecognitionGrant{Kind: models.GrantFiscal, StartDate: target}, true},
		{"ends on target", models.RecognitionGrant{Kind: models.GrantFiscal, StartDate: before, EndDate: &target}, true},
		{"ended before target", models.RecognitionGrant{Kind: models.GrantFiscal, StartDate: before.AddDate(0, -1, 0), EndDate: &before}, false},
		{"starts after target", models.RecognitionGrant{Kind: models.GrantFiscal, StartDate: after}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Evaluate(Facts{Grants: []models.RecognitionGrant{tt.grant}}, target, date(2026, 1, 1))
			assert.Equal(t, tt.sufficient, r.MembershipSufficientAlone)
			assert.Equal(t, tt.sufficient, r.Eligible)
			assert.Empty(t, r.Warnings)
		})
	}
}

func TestEvaluate_GrantSuppressesWarnings(t *testing.T) {
	now := date(2026, 1, 1)
	target := date(2026, 1, 25)
	facts := Facts{
		Subscriptions:       []models.Subscription{sub(models.SubscriptionActive, date(2026, 1, 20))},
		HasCommunityAccount: true,
		Activity:            []models.ActivityDay{activity(date(2025, 12, 30), 2)},
		Grants:              []models.RecognitionGrant{{Kind: models.GrantParticipation, StartDate: date(2025, 1, 1)}},
	}

	r := Evaluate(facts, target, now)
	assert.True(t, r.Eligible)
	assert.Empty(t, r.Warnings)
	assert.False(t, r.AtRisk)
}

func TestEvaluate_TwoPathsNoWarnings(t *testing.T) {
	target := date(2026, 3, 1)
	facts := Facts{
		Subscriptions:       []models.Subscription{sub(models.SubscriptionActive, date(2026, 6, 1))},
		HasCommunityAccount: true,
		Activity:            []models.ActivityDay{activity(target.AddDate(0, 0, -5), 1)},
	}

	r := Evaluate(facts, target, target)
	assert.True(t, r.Eligible)
	assert.Empty(t, r.Warnings)
	assert.False(t, r.AtRisk)
}

func TestEvaluate_SinglePathSuggestions(t *testing.T) {
	target := date(2026, 3, 1)
	stable := sub(models.SubscriptionActive, date(2026, 6, 1))

	tests := []struct {
		name  string
		facts Facts
		want  string
	}{
		{
			name:  "donor without community account",
			facts: Facts{Subscriptions: []models.Subscription{stable}},
			want:  "You're eligible via donation only - consider connecting Discord",
		},
		{
			name:  "donor with quiet community account",
			facts: Facts{Subscriptions: []models.Subscription{stable}, HasCommunityAccount: true},
			want:  "You're eligible via donation only - consider posting on Discord",
		},
		{
			name: "activity only",
			facts: Facts{
				HasCommunityAccount: true,
				Activity:            []models.ActivityDay{activity(target, 4)},
			},
			want: "You're eligible via Discord activity only - consider becoming a recurring donor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Evaluate(tt.facts, target, target)
			assert.True(t, r.Eligible)
			assert.Equal(t, []string{tt.want}, r.Warnings)
			assert.False(t, r.AtRisk)
		})
	}
}

func TestEvaluate_RenewalRisk(t *testing.T) {
	now := date(2026, 1, 1)
	renewing := sub(models.SubscriptionActive, date(2026, 1, 20))

	t.Run("no backup path", func(t *testing.T) {
		r := Evaluate(Facts{Subscriptions: []models.Subscription{renewing}}, date(2026, 2, 15), now)
		assert.False(t, r.Eligible)
		assert.Equal(t, DonorRenewalRequired, r.DonorStatus)
		require.NotNil(t, r.DonorNextRenewal)
		assert.Equal(t, []string{
			"Your donation renews on Jan 20, 2026 before the deadline - please ensure your payment method is current",
		}, r.Warnings)
		assert.True(t, r.AtRisk)
	})

	t.Run("activity backup", func(t *testing.T) {
		facts := Facts{
			Subscriptions:       []models.Subscription{renewing},
			HasCommunityAccount: true,
			Activity:            []models.ActivityDay{activity(date(2025, 12, 30), 2)},
		}
		r := Evaluate(facts, date(2026, 1, 25), now)
		assert.True(t, r.Eligible)
		assert.True(t, r.DiscordSufficientAlone)
		assert.Equal(t, []string{
			"Your donation renews on Jan 20, 2026 before the deadline - you're also eligible via Discord activity as backup",
		}, r.Warnings)
		assert.False(t, r.AtRisk)
	})
}

func TestEvaluate_ActivityAgesOut(t *testing.T) {
	now := date(2026, 1, 1)
	target := date(2026, 2, 15)
	recent := []models.ActivityDay{activity(date(2025, 12, 25), 5)}

	t.Run("no donor", func(t *testing.T) {
		facts := Facts{HasCommunityAccount: true, Activity: recent}
		r := Evaluate(facts, target, now)
		assert.False(t, r.Eligible)
		assert.Equal(t, []string{
			"You'll need to post on Discord at least once after Jan 16, 2026 to maintain eligibility",
		}, r.Warnings)
		assert.True(t, r.AtRisk)
	})

	t.Run("covered by donation", func(t *testing.T) {
		facts := Facts{
			Subscriptions:       []models.Subscription{sub(models.SubscriptionActive, date(2026, 6, 1))},
			HasCommunityAccount: true,
			Activity:            recent,
		}
		r := Evaluate(facts, target, now)
		assert.True(t, r.Eligible)
		assert.Equal(t, []string{
			"Your Discord activity will age out before the deadline - post after Jan 16, 2026 to maintain backup eligibility, or you're covered by your active donation",
		}, r.Warnings)
		assert.False(t, r.AtRisk)
	})
}

type stubFacts struct {
	facts Facts
	err   error
}

func (s stubFacts) Facts(ctx context.Context, memberID string) (Facts, error) {
	return s.facts, s.err
}

func TestEvaluator_EligibleAsOf(t *testing.T) {
	target := date(2026, 3, 1)
	now := func() time.Time { return target }

	ev := NewEvaluator(stubFacts{facts: Facts{Grants: []models.RecognitionGrant{{StartDate: target}}}}, now)
	r, err := ev.EligibleAsOf(context.Background(), "m1", target)
	require.NoError(t, err)
	assert.True(t, r.Eligible)

	boom := errors.New("boom")
	ev = NewEvaluator(stubFacts{err: boom}, now)
	_, err = ev.EligibleAsOf(context.Background(), "m1", target)
	assert.ErrorIs(t, err, boom)
}
