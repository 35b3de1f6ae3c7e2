package notifier

import (
	"sync"

	"github.com/qwerty-development/padel-scoring/internal/club"
	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/rating"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	SendMatchCreatedCalls       []struct{ Match *match.Match }
	SendResultNotificationCalls []struct {
		Match      *match.Match
		State      match.MatchState
		Adjustment *rating.Adjustment
	}
	SendDisputeNotificationCalls []struct {
		Match      *match.Match
		RejectedBy string
	}
	SendLeaderboardCalls [][]club.PlayerInfo

	// Spies
	FormatLeaderboardResponseFunc func(players []club.PlayerInfo) (any, error)

	LastLeaderboardResponse any
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchCreatedCalls = nil
	m.SendResultNotificationCalls = nil
	m.SendDisputeNotificationCalls = nil
	m.SendLeaderboardCalls = nil
	m.LastLeaderboardResponse = nil
}

func (m *Mock) SendMatchCreated(mt *match.Match, players []club.PlayerInfo, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchCreatedCalls = append(m.SendMatchCreatedCalls, struct{ Match *match.Match }{mt})
	return nil
}

func (m *Mock) SendResultNotification(mt *match.Match, state match.MatchState, players []club.PlayerInfo, adj *rating.Adjustment, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendResultNotificationCalls = append(m.SendResultNotificationCalls, struct {
		Match      *match.Match
		State      match.MatchState
		Adjustment *rating.Adjustment
	}{mt, state, adj})
	return nil
}

func (m *Mock) SendDisputeNotification(mt *match.Match, rejectedBy string, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendDisputeNotificationCalls = append(m.SendDisputeNotificationCalls, struct {
		Match      *match.Match
		RejectedBy string
	}{mt, rejectedBy})
	return nil
}

func (m *Mock) SendLeaderboard(players []club.PlayerInfo, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, players)
	return nil
}

func (m *Mock) FormatLeaderboardResponse(players []club.PlayerInfo) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatLeaderboardResponseFunc != nil {
		resp, err := m.FormatLeaderboardResponseFunc(players)
		m.LastLeaderboardResponse = resp
		return resp, err
	}
	m.LastLeaderboardResponse = players
	return players, nil
}
