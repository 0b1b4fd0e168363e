// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package eligibility decides whether a member may nominate and vote.

A member qualifies as of a target instant through any of three paths:

  - donor: the latest active or trialing subscription runs through the target date
  - community activity: at least one message in the 30 days up to and including the target date
  - special recognition: a fiscal or participation grant covering the target date

# Usage

Evaluate is pure and takes the facts directly:

	r := eligibility.Evaluate(facts, election.MembershipEligibilityDeadline, time.Now())

Evaluator loads facts through a FactsProvider:

	ev := eligibility.NewEvaluator(store, nil)
	r, err := ev.EligibleAsOf(ctx, memberID, deadline)

# Warnings

Warnings are human-facing and ordered: renewal risk, activity aging, then
single-path suggestions. AtRisk is set only by the renewal and aging
warnings. A special-recognition grant silences all of them.
*/
package eligibility
