package confirmation

import "time"

// State is the validation state of a match result.
type State string

const (
	StateNone      State = "NONE"
	StatePending   State = "PENDING"
	StateConfirmed State = "CONFIRMED"
	StateDisputed  State = "DISPUTED"
)

// Vote is a single participant's verdict on a submitted result.
type Vote struct {
	PlayerID string    `json:"player_id"`
	Approved bool      `json:"approved"`
	VotedAt  time.Time `json:"voted_at"`
}

// Ballot holds the participants entitled to vote on a result and the votes
// cast so far.
type Ballot struct {
	Participants []string
	Votes        []Vote
}

// Arbiter is the administrative collaborator that resolves disputed
// results. A dispute never re-enters the pending state on its own; only an
// arbiter decision moves it.
type Arbiter interface {
	ResolveDispute(matchID string, outcome State) error
}
