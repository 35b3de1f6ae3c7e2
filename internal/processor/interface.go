package processor

import (
	"time"

	"github.com/qwerty-development/padel-scoring/internal/club"
	"github.com/qwerty-development/padel-scoring/internal/confirmation"
	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/notifier"
	"github.com/qwerty-development/padel-scoring/internal/rating"
	"github.com/qwerty-development/padel-scoring/internal/scoring"
)

// Store defines the database operations required by the processor.
type Store interface {
	GetMatchesForProcessing() ([]*match.Match, error)
	GetMatch(matchID string) (*match.Match, error)
	GetPlayers(playerIDs []string) ([]club.PlayerInfo, error)
	GetVotes(matchID string) ([]confirmation.Vote, error)
	SubmitScores(matchID string, sets []scoring.SetScore) error
	SetValidationState(matchID string, from, to confirmation.State) error
	RecordVote(matchID, playerID string, approved bool, votedAt time.Time) error
	ApplyRatings(matchID string, adj rating.Adjustment) error
}

// Notifier defines the notification operations required by the processor.
// This is now an alias for the main notifier interface for decoupling.
type Notifier interface {
	notifier.Notifier
}
