package club

import (
	"sync"
	"time"

	"github.com/qwerty-development/padel-scoring/internal/confirmation"
	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/rating"
	"github.com/qwerty-development/padel-scoring/internal/scoring"
)

// MockStore is a mock implementation of the ClubStore interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	AddPlayerFunc               func(playerID, name string, rating float64)
	UpsertPlayersFunc           func(players []PlayerInfo) error
	IsKnownPlayerFunc           func(playerID string) bool
	GetPlayersFunc              func(playerIDs []string) ([]PlayerInfo, error)
	GetAllPlayersFunc           func() ([]PlayerInfo, error)
	GetLeaderboardFunc          func() ([]PlayerInfo, error)
	CreateMatchFunc             func(m *match.Match) error
	UpsertMatchFunc             func(m *match.Match) error
	GetMatchFunc                func(matchID string) (*match.Match, error)
	GetAllMatchesFunc           func() ([]*match.Match, error)
	GetMatchesForProcessingFunc func() ([]*match.Match, error)
	JoinMatchFunc               func(matchID, playerID string) error
	SubmitScoresFunc            func(matchID string, sets []scoring.SetScore) error
	CancelMatchFunc             func(matchID string) error
	SetValidationStateFunc      func(matchID string, from, to confirmation.State) error
	RecordVoteFunc              func(matchID, playerID string, approved bool, votedAt time.Time) error
	GetVotesFunc                func(matchID string) ([]confirmation.Vote, error)
	ApplyRatingsFunc            func(matchID string, adj rating.Adjustment) error
	GetRatingHistoryFunc        func(playerID string) ([]RatingHistoryEntry, error)

	// Call records
	CreateMatchCalls  []*match.Match
	UpsertMatchCalls  []*match.Match
	JoinMatchCalls    []struct{ MatchID, PlayerID string }
	SubmitScoresCalls []struct {
		MatchID string
		Sets    []scoring.SetScore
	}
	CancelMatchCalls        []string
	SetValidationStateCalls []struct {
		MatchID  string
		From, To confirmation.State
	}
	RecordVoteCalls []struct {
		MatchID  string
		PlayerID string
		Approved bool
	}
	ApplyRatingsCalls []struct {
		MatchID    string
		Adjustment rating.Adjustment
	}
	UpsertPlayersCalls [][]PlayerInfo
	ClearCalls         int
	ClearMatchCalls    []string
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateMatchCalls = nil
	m.UpsertMatchCalls = nil
	m.JoinMatchCalls = nil
	m.SubmitScoresCalls = nil
	m.CancelMatchCalls = nil
	m.SetValidationStateCalls = nil
	m.RecordVoteCalls = nil
	m.ApplyRatingsCalls = nil
	m.UpsertPlayersCalls = nil
	m.ClearCalls = 0
	m.ClearMatchCalls = nil
}

func (m *MockStore) AddPlayer(playerID, name string, rating float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddPlayerFunc != nil {
		m.AddPlayerFunc(playerID, name, rating)
	}
}

func (m *MockStore) UpsertPlayers(players []PlayerInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertPlayersCalls = append(m.UpsertPlayersCalls, players)
	if m.UpsertPlayersFunc != nil {
		return m.UpsertPlayersFunc(players)
	}
	return nil
}

func (m *MockStore) IsKnownPlayer(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IsKnownPlayerFunc != nil {
		return m.IsKnownPlayerFunc(playerID)
	}
	return false
}

func (m *MockStore) GetPlayers(playerIDs []string) ([]PlayerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetPlayersFunc != nil {
		return m.GetPlayersFunc(playerIDs)
	}
	return nil, nil
}

func (m *MockStore) GetAllPlayers() ([]PlayerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetAllPlayersFunc != nil {
		return m.GetAllPlayersFunc()
	}
	return nil, nil
}

func (m *MockStore) GetLeaderboard() ([]PlayerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetLeaderboardFunc != nil {
		return m.GetLeaderboardFunc()
	}
	return nil, nil
}

func (m *MockStore) CreateMatch(mt *match.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateMatchCalls = append(m.CreateMatchCalls, mt)
	if m.CreateMatchFunc != nil {
		return m.CreateMatchFunc(mt)
	}
	return nil
}

func (m *MockStore) UpsertMatch(mt *match.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertMatchCalls = append(m.UpsertMatchCalls, mt)
	if m.UpsertMatchFunc != nil {
		return m.UpsertMatchFunc(mt)
	}
	return nil
}

func (m *MockStore) GetMatch(matchID string) (*match.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(matchID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetAllMatches() ([]*match.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetAllMatchesFunc != nil {
		return m.GetAllMatchesFunc()
	}
	return nil, nil
}

func (m *MockStore) GetMatchesForProcessing() ([]*match.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetMatchesForProcessingFunc != nil {
		return m.GetMatchesForProcessingFunc()
	}
	return nil, nil
}

func (m *MockStore) JoinMatch(matchID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.JoinMatchCalls = append(m.JoinMatchCalls, struct{ MatchID, PlayerID string }{matchID, playerID})
	if m.JoinMatchFunc != nil {
		return m.JoinMatchFunc(matchID, playerID)
	}
	return nil
}

func (m *MockStore) SubmitScores(matchID string, sets []scoring.SetScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitScoresCalls = append(m.SubmitScoresCalls, struct {
		MatchID string
		Sets    []scoring.SetScore
	}{matchID, sets})
	if m.SubmitScoresFunc != nil {
		return m.SubmitScoresFunc(matchID, sets)
	}
	return nil
}

func (m *MockStore) CancelMatch(matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelMatchCalls = append(m.CancelMatchCalls, matchID)
	if m.CancelMatchFunc != nil {
		return m.CancelMatchFunc(matchID)
	}
	return nil
}

func (m *MockStore) SetValidationState(matchID string, from, to confirmation.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetValidationStateCalls = append(m.SetValidationStateCalls, struct {
		MatchID  string
		From, To confirmation.State
	}{matchID, from, to})
	if m.SetValidationStateFunc != nil {
		return m.SetValidationStateFunc(matchID, from, to)
	}
	return nil
}

func (m *MockStore) RecordVote(matchID, playerID string, approved bool, votedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordVoteCalls = append(m.RecordVoteCalls, struct {
		MatchID  string
		PlayerID string
		Approved bool
	}{matchID, playerID, approved})
	if m.RecordVoteFunc != nil {
		return m.RecordVoteFunc(matchID, playerID, approved, votedAt)
	}
	return nil
}

func (m *MockStore) GetVotes(matchID string) ([]confirmation.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetVotesFunc != nil {
		return m.GetVotesFunc(matchID)
	}
	return nil, nil
}

func (m *MockStore) ApplyRatings(matchID string, adj rating.Adjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyRatingsCalls = append(m.ApplyRatingsCalls, struct {
		MatchID    string
		Adjustment rating.Adjustment
	}{matchID, adj})
	if m.ApplyRatingsFunc != nil {
		return m.ApplyRatingsFunc(matchID, adj)
	}
	return nil
}

func (m *MockStore) GetRatingHistory(playerID string) ([]RatingHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetRatingHistoryFunc != nil {
		return m.GetRatingHistoryFunc(playerID)
	}
	return nil, nil
}

func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls++
}

func (m *MockStore) ClearMatch(matchID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearMatchCalls = append(m.ClearMatchCalls, matchID)
}
