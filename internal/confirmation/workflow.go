// Package confirmation implements the post-match acknowledgement workflow.
//
// A result enters PENDING when complete scores are submitted. Each of the
// four participants may approve or reject it exactly once. A single reject
// is terminal and moves the result to DISPUTED immediately, regardless of
// how many approvals were already cast. Unanimous approval moves it to
// CONFIRMED, which is the only transition that releases rating updates.
package confirmation

import "errors"

var (
	// ErrNotPending is returned when a vote is cast outside the pending state.
	ErrNotPending = errors.New("confirmation: result is not pending")
	// ErrNotParticipant is returned when the voter is not one of the match participants.
	ErrNotParticipant = errors.New("confirmation: voter is not a participant")
	// ErrAlreadyVoted is returned when a participant votes a second time.
	ErrAlreadyVoted = errors.New("confirmation: participant already voted")
)

// CanVote reports whether the player is an eligible participant who has not
// voted yet.
func (b Ballot) CanVote(playerID string) bool {
	if !b.isParticipant(playerID) {
		return false
	}
	for _, v := range b.Votes {
		if v.PlayerID == playerID {
			return false
		}
	}
	return true
}

// Approvals counts the approve votes cast so far.
func (b Ballot) Approvals() int {
	n := 0
	for _, v := range b.Votes {
		if v.Approved {
			n++
		}
	}
	return n
}

// Rejected reports whether any participant rejected the result.
func (b Ballot) Rejected() bool {
	for _, v := range b.Votes {
		if !v.Approved {
			return true
		}
	}
	return false
}

func (b Ballot) isParticipant(playerID string) bool {
	for _, p := range b.Participants {
		if p == playerID {
			return true
		}
	}
	return false
}

// Cast validates a vote against the current state and ballot and returns
// the ballot with the vote appended. The ballot is not mutated on error.
func Cast(state State, ballot Ballot, vote Vote) (Ballot, error) {
	if state != StatePending {
		return ballot, ErrNotPending
	}
	if !ballot.isParticipant(vote.PlayerID) {
		return ballot, ErrNotParticipant
	}
	if !ballot.CanVote(vote.PlayerID) {
		return ballot, ErrAlreadyVoted
	}
	ballot.Votes = append(ballot.Votes, vote)
	return ballot, nil
}

// Advance derives the next state from the ballot. It is pure: persistence
// of the transition, and its atomicity, belong to the store.
func Advance(state State, ballot Ballot) State {
	if state != StatePending {
		return state
	}
	// Reject is an overriding, terminal vote.
	if ballot.Rejected() {
		return StateDisputed
	}
	if len(ballot.Participants) > 0 && ballot.Approvals() == len(ballot.Participants) {
		return StateConfirmed
	}
	return StatePending
}

// ParseState converts a stored validation state to the typed enum. Unknown
// values collapse to NONE so a bad row can still be rendered.
func ParseState(raw string) State {
	switch State(raw) {
	case StatePending, StateConfirmed, StateDisputed:
		return State(raw)
	default:
		return StateNone
	}
}
