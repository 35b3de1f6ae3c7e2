// Package rating computes the bounded skill adjustment applied after a
// confirmed match result.
//
// This is deliberately not Glicko: the delta is a bounded, deterministic
// function of the team rating gap and the set margin, and the deviation and
// volatility scalars are carried through unchanged. Deployed data depends
// on this exact numeric behavior, so the formula must not be "fixed".
package rating

import "math"

const (
	// BaseChange is the flat component of every rating delta.
	BaseChange = 15
	// MaxDiffBonus caps the bonus earned from a rating gap.
	MaxDiffBonus = 10
	// MinRating and MaxRating bound every stored rating.
	MinRating = 100
	MaxRating = 3000
)

// PlayerRating is the rating snapshot of a single player. Deviation and
// volatility are stored but never meaningfully updated; they pass through
// Adjust untouched.
type PlayerRating struct {
	PlayerID   string  `json:"player_id"`
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

// PlayerDelta records one player's rating movement for history bookkeeping.
type PlayerDelta struct {
	PlayerID string  `json:"player_id"`
	Before   float64 `json:"before"`
	After    float64 `json:"after"`
	Change   float64 `json:"change"`
	Won      bool    `json:"won"`
}

// Adjustment is the full outcome of a rating run: the same delta magnitude
// applied positively to the winners and negatively to the losers.
type Adjustment struct {
	Winner  int            `json:"winner"` // 1 or 2, 0 when no adjustment applies
	Delta   float64        `json:"delta"`
	Players []PlayerDelta  `json:"players"`
	Updated []PlayerRating `json:"updated"`
}

// Adjust computes the post-match ratings for all four players from the
// final sets-won tally. A tied tally yields a zero adjustment; confirmed
// matches can never be tied, so that case only guards bad input.
func Adjust(team1, team2 [2]PlayerRating, team1Sets, team2Sets int) Adjustment {
	if team1Sets == team2Sets {
		return Adjustment{
			Updated: []PlayerRating{team1[0], team1[1], team2[0], team2[1]},
		}
	}

	team1Avg := (team1[0].Rating + team1[1].Rating) / 2
	team2Avg := (team2[0].Rating + team2[1].Rating) / 2
	ratingDiff := math.Abs(team1Avg - team2Avg)

	diffMultiplier := math.Min(ratingDiff*0.1, MaxDiffBonus)

	marginMultiplier := 0.8
	if math.Abs(float64(team1Sets-team2Sets)) >= 2 {
		marginMultiplier = 1.2
	}

	delta := math.Round(BaseChange + diffMultiplier*marginMultiplier)

	winner := 1
	if team2Sets > team1Sets {
		winner = 2
	}

	adj := Adjustment{Winner: winner, Delta: delta}
	for i, p := range []PlayerRating{team1[0], team1[1], team2[0], team2[1]} {
		won := (i < 2) == (winner == 1)
		change := delta
		if !won {
			change = -delta
		}
		after := clamp(p.Rating+change, MinRating, MaxRating)

		adj.Players = append(adj.Players, PlayerDelta{
			PlayerID: p.PlayerID,
			Before:   p.Rating,
			After:    after,
			Change:   after - p.Rating,
			Won:      won,
		})
		p.Rating = after
		adj.Updated = append(adj.Updated, p)
	}
	return adj
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
