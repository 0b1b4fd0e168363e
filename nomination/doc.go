// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package nomination implements the nomination lifecycle as pure transitions.

# States

	draft ──submit──> pending ──respond──> accepted | declined
	draft ──submit (self, profile complete)──> accepted ──withdraw──> declined

A self-nomination whose nominee profile is incomplete stays a draft on
submit; ResumeAfterProfile finishes the submission once the profile is done.

# Preconditions

Every transition takes a Context with the current time, the acting member,
their eligibility, the nominee profile's completeness and the election
Window. Failed preconditions come back as a *Refusal carrying a stable Code:

	out, err := nomination.Submit(ctx, n)
	if r, ok := nomination.AsRefusal(err); ok {
		// r.Code, r.Message
	}

Outcome.Notify is true exactly once per non-self nomination, on the
transition out of draft.
*/
package nomination
