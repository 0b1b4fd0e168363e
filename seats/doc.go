// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package seats computes election results under the district-reserved plus
at-large seat model.

# District Seats

A district seat is in play when at least DistrictSeatMinVoters ballots were
cast by residents of the district. Candidates living in the district qualify
with at least DistrictSeatMinVotes votes from residents; the qualifier with
the most total votes wins. Ties go to more in-district votes, then display
name (case-insensitive), then nominee ID. An unfilled seat is not carried
over.

# At-Large Seats

The AtLargeSeats candidates with the most total votes among those who did not
win a district seat. Ties go to display name, then nominee ID. Candidates
without votes never win.

# Report

	report := seats.Calculate(input)

Candidates are listed district winners first by district, then at-large
winners, then everyone else, each group alphabetical. Turnout covers
districts 1 through 10 and a final row for voters without a district; a
turnout rate is nil when nobody in the row is eligible.
*/
package seats
