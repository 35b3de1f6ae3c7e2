package club

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

// store handles all database operations for the club.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	// ErrNotFound is returned when a match or player does not exist.
	ErrNotFound = errors.New("club: not found")
	// ErrStateConflict is returned when an atomic conditional update finds
	// the record no longer in the expected prior state. Callers re-read and
	// retry or surface the conflict; the store never guesses.
	ErrStateConflict = errors.New("club: state conflict")
	// ErrInvalidScores is returned when a score submission fails set
	// validation. The wrapped message carries the first offending set.
	ErrInvalidScores = errors.New("club: invalid scores")
)

// PlayerInfo represents a player in the store.
type PlayerInfo struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

// RatingHistoryEntry records one player's rating movement from one match.
type RatingHistoryEntry struct {
	MatchID   string    `json:"match_id"`
	PlayerID  string    `json:"player_id"`
	Before    float64   `json:"rating_before"`
	After     float64   `json:"rating_after"`
	Change    float64   `json:"rating_change"`
	CreatedAt time.Time `json:"created_at"`
}

// dbSet mirrors the persisted set shape. Legacy rows can carry half-entered
// scores; a set only materializes into the domain when both values are
// present.
type dbSet struct {
	Team1 *int `json:"team1"`
	Team2 *int `json:"team2"`
}
