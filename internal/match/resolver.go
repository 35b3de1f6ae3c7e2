// Package match holds the match record and the phase resolver that derives
// every lifecycle and permission flag the rest of the system consumes.
// Screens used to recompute "is team 1", "has scores" and "winner" inline
// per call site; the Resolver is the single source of truth for all of it.
package match

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/qwerty-development/padel-scoring/internal/scoring"
)

// DefaultCancelWindow is how long after completion the creator can still
// cancel a match. It is policy, not physics, so it stays configurable.
const DefaultCancelWindow = 24 * time.Hour

// Resolver derives MatchState snapshots. It is pure and safe for
// concurrent use: it reads the match record and the supplied instant and
// writes nothing.
type Resolver struct {
	cancelWindow time.Duration
}

// NewResolver creates a Resolver with the given post-completion cancel
// window. A zero or negative window falls back to the default.
func NewResolver(cancelWindow time.Duration) *Resolver {
	if cancelWindow <= 0 {
		cancelWindow = DefaultCancelWindow
	}
	return &Resolver{cancelWindow: cancelWindow}
}

// Resolve classifies the match at the supplied instant and derives the
// permission set for the viewer. It never fails: contradictory records are
// resolved in favor of the stored winner and flagged, so callers can always
// render a state.
func (r *Resolver) Resolve(m *Match, now time.Time, viewerID string) MatchState {
	state := MatchState{
		IsFuture:  m.Start.After(now),
		HasScores: m.HasScores(),
	}

	if m.End != nil {
		state.IsPast = m.End.Before(now)
	} else {
		state.IsPast = m.Start.Before(now)
	}

	state.NeedsScores = state.IsPast && !state.HasScores && m.Status != StatusCancelled

	switch {
	case m.Status == StatusCancelled:
		state.Phase = PhaseCancelled
	case state.HasScores:
		state.Phase = PhaseCompleted
	case state.IsPast:
		state.Phase = PhaseActive
	default:
		state.Phase = PhaseUpcoming
	}

	state.UserTeam = m.TeamOf(viewerID)
	state.UserParticipating = state.UserTeam != 0
	state.IsCreator = viewerID != "" && viewerID == m.CreatorID()

	state.CanJoin = state.IsFuture && !state.UserParticipating && m.OpenSlots() > 0
	state.CanEnterScores = state.IsCreator && state.NeedsScores
	state.CanCancel = state.IsCreator && m.Status != StatusCancelled &&
		(state.IsFuture || now.Sub(r.completionTime(m)) < r.cancelWindow)

	agg := scoring.AggregateSets(m.Sets)
	state.Team1Sets = agg.Team1Sets
	state.Team2Sets = agg.Team2Sets
	state.Winner = agg.Winner

	// The stored winner is authoritative when it disagrees with the tally.
	// The discrepancy is a data-integrity warning, not a failure: reads
	// keep working, writes block until the record is reconciled.
	if m.WinnerTeam != 0 {
		if agg.Winner != 0 && agg.Winner != m.WinnerTeam {
			log.Warn("stored winner contradicts computed set tally",
				"matchID", m.ID, "stored", m.WinnerTeam, "computed", agg.Winner,
				"team1_sets", agg.Team1Sets, "team2_sets", agg.Team2Sets)
			state.IntegrityWarning = true
		}
		state.Winner = m.WinnerTeam
	}

	// UserWon is derived whenever a winner is decided, regardless of phase,
	// so a match cancelled after the result was recorded still reports it.
	if state.UserParticipating && state.Winner != 0 {
		won := state.UserTeam == state.Winner
		state.UserWon = &won
	}

	return state
}

// completionTime is the reference instant for the cancel window: the end
// time when recorded, otherwise the start.
func (r *Resolver) completionTime(m *Match) time.Time {
	if m.End != nil {
		return *m.End
	}
	return m.Start
}
