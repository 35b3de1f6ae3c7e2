package match

import (
	"time"

	"github.com/qwerty-development/padel-scoring/internal/confirmation"
	"github.com/qwerty-development/padel-scoring/internal/scoring"
)

// NumSlots is the number of player slots in a doubles match. Slot 0 is the
// creator; slots 0 and 1 form team 1, slots 2 and 3 form team 2.
const NumSlots = 4

// Visibility controls who can discover and join a match.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// Match is a scheduled contest between two teams of two. Everything here is
// stored state; derived values (tallies, winner, permissions, phase) are
// recomputed by the Resolver on every read and never cached.
type Match struct {
	ID            string             `json:"id"`
	Players       [NumSlots]string   `json:"players"` // empty string marks an open slot
	Start         time.Time          `json:"start"`
	End           *time.Time         `json:"end,omitempty"`
	Sets          []scoring.SetScore `json:"sets"` // only complete score pairs, at most 3
	Status        Status             `json:"status"`
	Visibility    Visibility         `json:"visibility"`
	WinnerTeam    int                `json:"winner_team"` // stored winner, 0 when not recorded
	Validation    confirmation.State `json:"validation"`
	AllConfirmed  bool               `json:"all_confirmed"`
	RatingApplied bool               `json:"rating_applied"`
	CreatedAt     time.Time          `json:"created_at"`
}

// CreatorID returns the player occupying slot 0.
func (m *Match) CreatorID() string {
	return m.Players[0]
}

// SlotOf returns the slot index occupied by the player, or -1.
func (m *Match) SlotOf(playerID string) int {
	if playerID == "" {
		return -1
	}
	for i, p := range m.Players {
		if p == playerID {
			return i
		}
	}
	return -1
}

// TeamOf returns 1 or 2 for a participating player, 0 otherwise.
func (m *Match) TeamOf(playerID string) int {
	switch slot := m.SlotOf(playerID); {
	case slot < 0:
		return 0
	case slot < 2:
		return 1
	default:
		return 2
	}
}

// OpenSlots counts the unfilled player slots.
func (m *Match) OpenSlots() int {
	n := 0
	for _, p := range m.Players {
		if p == "" {
			n++
		}
	}
	return n
}

// Participants returns the filled player slots in slot order.
func (m *Match) Participants() []string {
	out := make([]string, 0, NumSlots)
	for _, p := range m.Players {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasScores reports whether set 1 is present. The store only materializes
// complete score pairs and keeps them in order, so set 1 present means
// scores exist at all.
func (m *Match) HasScores() bool {
	return len(m.Sets) > 0
}

// Phase is the coarse lifecycle bucket of a match.
type Phase string

const (
	PhaseUpcoming  Phase = "upcoming"
	PhaseActive    Phase = "active"
	PhaseCompleted Phase = "completed"
	PhaseCancelled Phase = "cancelled"
)

// MatchState is the full derived view of a match for one viewer at one
// instant. It is recomputed on every call and consumed read-only by
// presentation code; nothing in it is ever persisted.
type MatchState struct {
	Phase       Phase `json:"phase"`
	IsFuture    bool  `json:"is_future"`
	IsPast      bool  `json:"is_past"`
	HasScores   bool  `json:"has_scores"`
	NeedsScores bool  `json:"needs_scores"`

	UserParticipating bool  `json:"user_participating"`
	UserTeam          int   `json:"user_team"` // 1 or 2, 0 when not participating
	IsCreator         bool  `json:"is_creator"`
	CanJoin           bool  `json:"can_join"`
	CanEnterScores    bool  `json:"can_enter_scores"`
	CanCancel         bool  `json:"can_cancel"`
	UserWon           *bool `json:"user_won"` // nil unless participating and decided

	Team1Sets int `json:"team1_sets"`
	Team2Sets int `json:"team2_sets"`
	Winner    int `json:"winner"` // 1 or 2, 0 while undecided

	// IntegrityWarning is set when the stored winner contradicts the
	// recomputed tally. Reads stay usable; writers must block until the
	// record is reconciled.
	IntegrityWarning bool `json:"integrity_warning,omitempty"`
}
