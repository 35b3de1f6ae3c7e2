package match_test

import (
	"testing"
	"time"

	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func upcomingMatch() *match.Match {
	return &match.Match{
		ID:      "m1",
		Players: [4]string{"creator", "p2", "p3", ""},
		Start:   now.Add(2 * time.Hour),
		Status:  match.StatusPending,
	}
}

func TestResolve_Upcoming(t *testing.T) {
	r := match.NewResolver(0)
	m := upcomingMatch()

	t.Run("outsider can join while a slot is open", func(t *testing.T) {
		state := r.Resolve(m, now, "outsider")

		assert.Equal(t, match.PhaseUpcoming, state.Phase)
		assert.True(t, state.IsFuture)
		assert.False(t, state.IsPast)
		assert.True(t, state.CanJoin)
		assert.False(t, state.UserParticipating)
		assert.Nil(t, state.UserWon)
	})

	t.Run("participant cannot join again", func(t *testing.T) {
		state := r.Resolve(m, now, "p2")

		assert.False(t, state.CanJoin)
		assert.True(t, state.UserParticipating)
		assert.Equal(t, 1, state.UserTeam)
	})

	t.Run("full match is not joinable", func(t *testing.T) {
		full := upcomingMatch()
		full.Players[3] = "p4"

		state := r.Resolve(full, now, "outsider")
		assert.False(t, state.CanJoin)
	})

	t.Run("creator can cancel before start", func(t *testing.T) {
		state := r.Resolve(m, now, "creator")

		assert.True(t, state.IsCreator)
		assert.True(t, state.CanCancel)
		assert.False(t, state.CanEnterScores)
	})
}

func TestResolve_PastWithoutScores(t *testing.T) {
	r := match.NewResolver(24 * time.Hour)

	t.Run("recently finished match needs scores and stays cancellable", func(t *testing.T) {
		m := upcomingMatch()
		m.Start = now.Add(-2 * time.Hour)

		state := r.Resolve(m, now, "creator")

		assert.Equal(t, match.PhaseActive, state.Phase)
		assert.True(t, state.NeedsScores)
		assert.True(t, state.CanEnterScores)
		assert.True(t, state.CanCancel)
	})

	t.Run("48 hours past the cancel window is closed", func(t *testing.T) {
		m := upcomingMatch()
		m.Start = now.Add(-48 * time.Hour)

		state := r.Resolve(m, now, "creator")

		assert.True(t, state.NeedsScores)
		assert.True(t, state.CanEnterScores)
		assert.False(t, state.CanCancel, "cancel window is 24h from start when no end is recorded")
	})

	t.Run("window counts from end time when recorded", func(t *testing.T) {
		m := upcomingMatch()
		m.Start = now.Add(-48 * time.Hour)
		end := now.Add(-3 * time.Hour)
		m.End = &end

		state := r.Resolve(m, now, "creator")
		assert.True(t, state.CanCancel)
	})

	t.Run("only the creator may enter scores", func(t *testing.T) {
		m := upcomingMatch()
		m.Start = now.Add(-2 * time.Hour)

		state := r.Resolve(m, now, "p2")
		assert.False(t, state.CanEnterScores)
	})
}

func TestResolve_Completed(t *testing.T) {
	r := match.NewResolver(0)

	completed := func() *match.Match {
		m := upcomingMatch()
		m.Players[3] = "p4"
		m.Start = now.Add(-3 * time.Hour)
		end := now.Add(-90 * time.Minute)
		m.End = &end
		m.Status = match.StatusCompleted
		m.Sets = []scoring.SetScore{{Team1: 6, Team2: 4}, {Team1: 6, Team2: 2}}
		return m
	}

	t.Run("scores imply completed phase and a winner", func(t *testing.T) {
		state := r.Resolve(completed(), now, "p3")

		assert.Equal(t, match.PhaseCompleted, state.Phase)
		assert.False(t, state.NeedsScores)
		assert.Equal(t, 2, state.Team1Sets)
		assert.Equal(t, 0, state.Team2Sets)
		assert.Equal(t, 1, state.Winner)
		require.NotNil(t, state.UserWon)
		assert.False(t, *state.UserWon, "slot 3 is on the losing team 2")
	})

	t.Run("winning viewer", func(t *testing.T) {
		state := r.Resolve(completed(), now, "creator")

		require.NotNil(t, state.UserWon)
		assert.True(t, *state.UserWon)
	})

	t.Run("spectator has no result", func(t *testing.T) {
		state := r.Resolve(completed(), now, "outsider")
		assert.Nil(t, state.UserWon)
	})

	t.Run("stored winner overrides a contradicting tally", func(t *testing.T) {
		m := completed()
		m.WinnerTeam = 2

		state := r.Resolve(m, now, "p3")

		assert.Equal(t, 2, state.Winner)
		assert.True(t, state.IntegrityWarning)
		require.NotNil(t, state.UserWon)
		assert.True(t, *state.UserWon)
	})

	t.Run("cancellation keeps a decided result visible", func(t *testing.T) {
		m := completed()
		m.Status = match.StatusCancelled

		state := r.Resolve(m, now, "creator")

		assert.Equal(t, match.PhaseCancelled, state.Phase)
		assert.Equal(t, 1, state.Winner)
		require.NotNil(t, state.UserWon)
		assert.True(t, *state.UserWon)
	})

	t.Run("stored winner agreeing with the tally is clean", func(t *testing.T) {
		m := completed()
		m.WinnerTeam = 1

		state := r.Resolve(m, now, "creator")
		assert.False(t, state.IntegrityWarning)
	})
}

func TestResolve_Cancelled(t *testing.T) {
	r := match.NewResolver(0)
	m := upcomingMatch()
	m.Status = match.StatusCancelled

	state := r.Resolve(m, now, "creator")

	assert.Equal(t, match.PhaseCancelled, state.Phase)
	assert.False(t, state.NeedsScores)
	assert.False(t, state.CanCancel)
}

func TestMatch_Slots(t *testing.T) {
	m := upcomingMatch()

	assert.Equal(t, "creator", m.CreatorID())
	assert.Equal(t, 1, m.OpenSlots())
	assert.Equal(t, 1, m.TeamOf("creator"))
	assert.Equal(t, 2, m.TeamOf("p3"))
	assert.Equal(t, 0, m.TeamOf("outsider"))
	assert.Equal(t, 0, m.TeamOf(""))
	assert.Equal(t, []string{"creator", "p2", "p3"}, m.Participants())
}
