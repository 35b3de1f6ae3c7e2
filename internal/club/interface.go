package club

import (
	"time"

	"github.com/qwerty-development/padel-scoring/internal/confirmation"
	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/rating"
	"github.com/qwerty-development/padel-scoring/internal/scoring"
)

// ClubStore defines the interface for interacting with the club's data.
//
// The lifecycle mutations are atomic conditional updates: each one only
// applies when the record is still in the expected prior state and returns
// ErrStateConflict otherwise. That is the whole concurrency story: the
// engine packages are pure and delegate atomicity here.
type ClubStore interface {
	// Players
	AddPlayer(playerID, name string, rating float64)
	UpsertPlayers(players []PlayerInfo) error
	IsKnownPlayer(playerID string) bool
	GetPlayers(playerIDs []string) ([]PlayerInfo, error)
	GetAllPlayers() ([]PlayerInfo, error)
	GetLeaderboard() ([]PlayerInfo, error)

	// Matches
	CreateMatch(m *match.Match) error
	UpsertMatch(m *match.Match) error
	GetMatch(matchID string) (*match.Match, error)
	GetAllMatches() ([]*match.Match, error)
	GetMatchesForProcessing() ([]*match.Match, error)

	// Lifecycle transitions (atomic, conditional on prior state)
	JoinMatch(matchID, playerID string) error
	SubmitScores(matchID string, sets []scoring.SetScore) error
	CancelMatch(matchID string) error
	SetValidationState(matchID string, from, to confirmation.State) error

	// Confirmation votes
	RecordVote(matchID, playerID string, approved bool, votedAt time.Time) error
	GetVotes(matchID string) ([]confirmation.Vote, error)

	// Ratings
	ApplyRatings(matchID string, adj rating.Adjustment) error
	GetRatingHistory(playerID string) ([]RatingHistoryEntry, error)

	// Maintenance
	Clear()
	ClearMatch(matchID string)
}
