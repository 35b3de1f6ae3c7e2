package scoring

import "fmt"

// SetScore is the final score of a single set, team 1 first.
type SetScore struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// SetError describes why a submitted set score is not a valid padel set.
// It is tagged with the 1-based set number so callers can surface it next
// to the offending input.
type SetError struct {
	Set    int    `json:"set"`
	Team1  int    `json:"team1"`
	Team2  int    `json:"team2"`
	Reason string `json:"reason"`
}

func (e SetError) Error() string {
	return fmt.Sprintf("set %d (%d-%d): %s", e.Set, e.Team1, e.Team2, e.Reason)
}

// Aggregate is the folded result of up to three sets.
type Aggregate struct {
	Team1Sets     int        `json:"team1_sets"`
	Team2Sets     int        `json:"team2_sets"`
	Winner        int        `json:"winner"` // 1 or 2, 0 while undecided
	NeedsThirdSet bool       `json:"needs_third_set"`
	IsValid       bool       `json:"is_valid"`
	Errors        []SetError `json:"errors,omitempty"`
}

// MaxSets is the most sets a padel match can have.
const MaxSets = 3

// ValidateSet reports whether a score pair is a completed padel set.
//
// Rules: both scores in [0,7]; a set can never end in a tie (6-6 included,
// only 7 represents a tiebreak win); a winner on 6 allows any losing score
// from 0 to 5; a winner on 7 requires a tiebreak-range finish (loser on 5
// or 6); below 6 any unequal pair counts as a recorded finish.
func ValidateSet(team1, team2 int) bool {
	if team1 < 0 || team1 > 7 || team2 < 0 || team2 > 7 {
		return false
	}
	if team1 == team2 {
		return false
	}

	hi, lo := team1, team2
	if team2 > team1 {
		hi, lo = team2, team1
	}

	switch hi {
	case 7:
		return lo == 5 || lo == 6
	case 6:
		return lo <= 5
	default:
		return true
	}
}

// AggregateSets folds an ordered sequence of sets into a sets-won tally and
// a provisional winner. Invalid sets are reported in Errors and excluded
// from the tally; callers decide whether that blocks submission. A 1-1
// split after exactly two sets raises NeedsThirdSet, which drives the
// caller to request a deciding set before accepting the result.
func AggregateSets(sets []SetScore) Aggregate {
	agg := Aggregate{IsValid: true}

	if len(sets) > MaxSets {
		agg.IsValid = false
		agg.Errors = append(agg.Errors, SetError{
			Set:    len(sets),
			Reason: fmt.Sprintf("a match has at most %d sets", MaxSets),
		})
		sets = sets[:MaxSets]
	}

	for i, set := range sets {
		if !ValidateSet(set.Team1, set.Team2) {
			agg.IsValid = false
			agg.Errors = append(agg.Errors, SetError{
				Set:    i + 1,
				Team1:  set.Team1,
				Team2:  set.Team2,
				Reason: invalidReason(set.Team1, set.Team2),
			})
			continue
		}
		if set.Team1 > set.Team2 {
			agg.Team1Sets++
		} else {
			agg.Team2Sets++
		}
	}

	// A third set is only legal as the decider of a 1-1 split.
	if len(sets) == MaxSets {
		first2 := AggregateSets(sets[:2])
		if first2.IsValid && (first2.Team1Sets != 1 || first2.Team2Sets != 1) {
			agg.IsValid = false
			agg.Errors = append(agg.Errors, SetError{
				Set:    3,
				Team1:  sets[2].Team1,
				Team2:  sets[2].Team2,
				Reason: "third set requires the first two sets to be split 1-1",
			})
		}
	}

	switch {
	case agg.Team1Sets > agg.Team2Sets:
		agg.Winner = 1
	case agg.Team2Sets > agg.Team1Sets:
		agg.Winner = 2
	}

	if len(sets) == 2 && agg.Team1Sets == 1 && agg.Team2Sets == 1 {
		agg.NeedsThirdSet = true
	}

	return agg
}

// invalidReason explains the specific rule an invalid score pair violates.
func invalidReason(team1, team2 int) string {
	hi, lo := team1, team2
	if team2 > team1 {
		hi, lo = team2, team1
	}
	switch {
	case team1 < 0 || team2 < 0 || hi > 7:
		return "scores must be between 0 and 7"
	case team1 == team2:
		return "a set cannot end in a tie"
	case hi == 7 && lo < 5:
		return "7 games requires a tiebreak-range finish (7-5 or 7-6)"
	default:
		return "not a completed set"
	}
}
