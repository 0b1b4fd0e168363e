// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package seats

import (
	"encoding/json"
	"math"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/danielhkuo/board-elections/models"
)

// TurnoutDistricts is the number of council districts reported in turnout.
const TurnoutDistricts = 10

// SeatType marks how a candidate won. The zero value means no seat and
// encodes as JSON null.
type SeatType string

const (
	SeatNone     SeatType = ""
	SeatDistrict SeatType = "district"
	SeatAtLarge  SeatType = "at_large"
)

func (s SeatType) MarshalJSON() ([]byte, error) {
	if s == SeatNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// Candidate is a nominee on the ballot.
type Candidate struct {
	NomineeID   string
	DisplayName string
	District    *int // home district
}

// Ballot is one voter's submission.
type Ballot struct {
	VoterDistrict *int
	NomineeIDs    []string
	Answers       map[string]string // question ID -> yes/no
}

// Input is everything Calculate needs for one election.
type Input struct {
	DistrictSeatMinVoters int
	DistrictSeatMinVotes  int
	AtLargeSeats          int

	// Districts are the district numbers from the reference data.
	Districts  []int
	Candidates []Candidate
	Ballots    []Ballot
	Questions  []models.Question

	// EligibleVoters holds the home district of every eligible voter, nil
	// for voters without one.
	EligibleVoters []*int
}

type CandidateResult struct {
	NomineeID       string   `json:"nominee_id" csv:"nominee_id"`
	DisplayName     string   `json:"display_name" csv:"display_name"`
	District        *int     `json:"district" csv:"district"`
	TotalVotes      int      `json:"total_votes" csv:"total_votes"`
	InDistrictVotes int      `json:"in_district_votes" csv:"in_district_votes"`
	SeatType        SeatType `json:"seat_type" csv:"seat_type"`
}

type DistrictSeat struct {
	District         int    `json:"district"`
	VotersInDistrict int    `json:"voters_in_district"`
	Activated        bool   `json:"activated"`
	WinnerID         string `json:"winner_id,omitempty"`
	TotalVotes       int    `json:"total_votes,omitempty"`
	InDistrictVotes  int    `json:"in_district_votes,omitempty"`
}

type QuestionResult struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	Yes        int    `json:"yes"`
	No         int    `json:"no"`
}

type TurnoutRow struct {
	District    *int     `json:"district"`
	Eligible    int      `json:"eligible_voters"`
	BallotsCast int      `json:"ballots_cast"`
	Rate        *float64 `json:"turnout_rate"`
}

type Report struct {
	Candidates       []CandidateResult `json:"candidates"`
	DistrictSeats    []DistrictSeat    `json:"district_seats"`
	AtLargeWinners   []string          `json:"at_large_winners"`
	Questions        []QuestionResult  `json:"questions"`
	Turnout          []TurnoutRow      `json:"turnout"`
	TotalBallots     int               `json:"total_ballots"`
	TotalEligible    int               `json:"total_eligible"`
	TotalTurnoutRate *float64          `json:"total_turnout_rate"`
}

type tally struct {
	candidate  Candidate
	total      int
	byDistrict map[int]int
}

func (t *tally) inDistrict() int {
	if t.candidate.District == nil {
		return 0
	}
	return t.byDistrict[*t.candidate.District]
}

// Calculate allocates district and at-large seats and reports question
// results and turnout. It has no side effects and may be called repeatedly.
func Calculate(in Input) Report {
	coll := collate.New(language.English, collate.IgnoreCase)

	tallies := make(map[string]*tally, len(in.Candidates))
	order := make([]*tally, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		if _, dup := tallies[c.NomineeID]; dup {
			continue
		}
		t := &tally{candidate: c, byDistrict: map[int]int{}}
		tallies[c.NomineeID] = t
		order = append(order, t)
	}

	votersByDistrict := map[int]int{}
	ballotsNoDistrict := 0
	for _, b := range in.Ballots {
		if b.VoterDistrict != nil {
			votersByDistrict[*b.VoterDistrict]++
		} else {
			ballotsNoDistrict++
		}
		seen := map[string]bool{}
		for _, id := range b.NomineeIDs {
			t, ok := tallies[id]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			t.total++
			if b.VoterDistrict != nil {
				t.byDistrict[*b.VoterDistrict]++
			}
		}
	}

	// District seats
	districts := dedupeSorted(in.Districts)
	seatOf := map[string]SeatType{}
	report := Report{
		DistrictSeats:  make([]DistrictSeat, 0, len(districts)),
		AtLargeWinners: []string{},
		TotalBallots:   len(in.Ballots),
	}
	for _, d := range districts {
		seat := DistrictSeat{District: d, VotersInDistrict: votersByDistrict[d]}
		if seat.VotersInDistrict >= in.DistrictSeatMinVoters {
			seat.Activated = true
			var best *tally
			for _, t := range order {
				if t.candidate.District == nil || *t.candidate.District != d {
					continue
				}
				if t.total == 0 || t.byDistrict[d] < in.DistrictSeatMinVotes {
					continue
				}
				if best == nil || districtBetter(coll, t, best) {
					best = t
				}
			}
			if best != nil {
				seat.WinnerID = best.candidate.NomineeID
				seat.TotalVotes = best.total
				seat.InDistrictVotes = best.byDistrict[d]
				seatOf[best.candidate.NomineeID] = SeatDistrict
			}
		}
		report.DistrictSeats = append(report.DistrictSeats, seat)
	}

	// At-large seats
	remaining := make([]*tally, 0, len(order))
	for _, t := range order {
		if seatOf[t.candidate.NomineeID] == SeatNone && t.total > 0 {
			remaining = append(remaining, t)
		}
	}
	sort.SliceStable(remaining, func(i, j int) bool {
		a, b := remaining[i], remaining[j]
		if a.total != b.total {
			return a.total > b.total
		}
		return nameLess(coll, a.candidate, b.candidate)
	})
	for i := 0; i < len(remaining) && i < in.AtLargeSeats; i++ {
		id := remaining[i].candidate.NomineeID
		seatOf[id] = SeatAtLarge
		report.AtLargeWinners = append(report.AtLargeWinners, id)
	}

	// Full table
	report.Candidates = make([]CandidateResult, 0, len(order))
	for _, t := range order {
		report.Candidates = append(report.Candidates, CandidateResult{
			NomineeID:       t.candidate.NomineeID,
			DisplayName:     t.candidate.DisplayName,
			District:        t.candidate.District,
			TotalVotes:      t.total,
			InDistrictVotes: t.inDistrict(),
			SeatType:        seatOf[t.candidate.NomineeID],
		})
	}
	sort.SliceStable(report.Candidates, func(i, j int) bool {
		a, b := report.Candidates[i], report.Candidates[j]
		if ra, rb := seatRank(a.SeatType), seatRank(b.SeatType); ra != rb {
			return ra < rb
		}
		if a.SeatType == SeatDistrict && *a.District != *b.District {
			return *a.District < *b.District
		}
		return nameLess(coll,
			Candidate{NomineeID: a.NomineeID, DisplayName: a.DisplayName},
			Candidate{NomineeID: b.NomineeID, DisplayName: b.DisplayName})
	})

	report.Questions = questionResults(in.Questions, in.Ballots)
	report.Turnout, report.TotalEligible = turnout(in.EligibleVoters, votersByDistrict, ballotsNoDistrict)
	report.TotalTurnoutRate = rate(report.TotalBallots, report.TotalEligible)

	return report
}

// districtBetter orders contenders for one district seat: more total votes,
// then more votes from the district, then display name, then ID.
func districtBetter(coll *collate.Collator, a, b *tally) bool {
	if a.total != b.total {
		return a.total > b.total
	}
	if ai, bi := a.inDistrict(), b.inDistrict(); ai != bi {
		return ai > bi
	}
	return nameLess(coll, a.candidate, b.candidate)
}

func nameLess(coll *collate.Collator, a, b Candidate) bool {
	if c := coll.CompareString(a.DisplayName, b.DisplayName); c != 0 {
		return c < 0
	}
	return a.NomineeID < b.NomineeID
}

func seatRank(s SeatType) int {
	switch s {
	case SeatDistrict:
		return 0
	case SeatAtLarge:
		return 1
	default:
		return 2
	}
}

func dedupeSorted(in []int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(in))
	for _, d := range in {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}

func questionResults(questions []models.Question, ballots []Ballot) []QuestionResult {
	qs := append([]models.Question(nil), questions...)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Position < qs[j].Position })

	results := make([]QuestionResult, 0, len(qs))
	for _, q := range qs {
		r := QuestionResult{QuestionID: q.ID, Text: q.Text}
		for _, b := range ballots {
			switch b.Answers[q.ID] {
			case models.AnswerYes:
				r.Yes++
			case models.AnswerNo:
				r.No++
			}
		}
		results = append(results, r)
	}
	return results
}

func turnout(eligible []*int, ballotsByDistrict map[int]int, ballotsNoDistrict int) ([]TurnoutRow, int) {
	eligibleByDistrict := map[int]int{}
	eligibleNoDistrict := 0
	for _, d := range eligible {
		if d == nil {
			eligibleNoDistrict++
			continue
		}
		eligibleByDistrict[*d]++
	}

	rows := make([]TurnoutRow, 0, TurnoutDistricts+1)
	for d := 1; d <= TurnoutDistricts; d++ {
		num := d
		rows = append(rows, TurnoutRow{
			District:    &num,
			Eligible:    eligibleByDistrict[d],
			BallotsCast: ballotsByDistrict[d],
			Rate:        rate(ballotsByDistrict[d], eligibleByDistrict[d]),
		})
	}
	rows = append(rows, TurnoutRow{
		Eligible:    eligibleNoDistrict,
		BallotsCast: ballotsNoDistrict,
		Rate:        rate(ballotsNoDistrict, eligibleNoDistrict),
	})
	return rows, len(eligible)
}

// rate is cast/eligible as a percentage rounded to one decimal, nil when
// nobody is eligible.
func rate(cast, eligible int) *float64 {
	if eligible == 0 {
		return nil
	}
	r := math.Round(float64(cast)/float64(eligible)*1000) / 10
	return &r
}

// ActivatedDistricts returns, in ascending order, the districts whose
// eligible voter count reaches minVoters.
func ActivatedDistricts(eligible []*int, minVoters int) []int {
	counts := map[int]int{}
	for _, d := range eligible {
		if d != nil {
			counts[*d]++
		}
	}
	out := []int{}
	for d, n := range counts {
		if n >= minVoters {
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}

// Seats describes what is up for election before any votes are counted.
type Seats struct {
	ActivatedDistricts []int `json:"activated_districts"`
	DistrictSeats      int   `json:"activated_district_seats"`
	AtLargeSeats       int   `json:"at_large_seats"`
	Total              int   `json:"total_available_seats"`
}

// AvailableSeats counts the district seats that can be filled given the
// eligible electorate, plus the at-large seats.
func AvailableSeats(eligible []*int, minVoters, atLarge int) Seats {
	activated := ActivatedDistricts(eligible, minVoters)
	return Seats{
		ActivatedDistricts: activated,
		DistrictSeats:      len(activated),
		AtLargeSeats:       atLarge,
		Total:              len(activated) + atLarge,
	}
}
