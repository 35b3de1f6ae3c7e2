package notifier

import (
	"github.com/qwerty-development/padel-scoring/internal/club"
	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/rating"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For newly scheduled matches
	SendMatchCreated(m *match.Match, players []club.PlayerInfo, dryRun bool) error
	// For confirmed results; adj is nil when ratings were not adjusted
	SendResultNotification(m *match.Match, state match.MatchState, players []club.PlayerInfo, adj *rating.Adjustment, dryRun bool) error
	// For results rejected by a participant
	SendDisputeNotification(m *match.Match, rejectedBy string, dryRun bool) error
	// For the rating leaderboard
	SendLeaderboard(players []club.PlayerInfo, dryRun bool) error

	// For formatting responses served directly over HTTP
	FormatLeaderboardResponse(players []club.PlayerInfo) (any, error)
}
