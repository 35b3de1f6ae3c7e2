package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qwerty-development/padel-scoring/internal/club"
	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/metrics"
	"github.com/qwerty-development/padel-scoring/internal/rating"
	"github.com/qwerty-development/padel-scoring/internal/scoring"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func testMatch() *match.Match {
	return &match.Match{
		ID:      "m1",
		Players: [match.NumSlots]string{"p1", "p2", "p3", "p4"},
		Start:   time.Date(2025, 7, 9, 18, 0, 0, 0, time.UTC),
		Sets: []scoring.SetScore{
			{Team1: 6, Team2: 2},
			{Team1: 7, Team2: 5},
		},
	}
}

func testPlayers() []club.PlayerInfo {
	return []club.PlayerInfo{
		{ID: "p1", Name: "Player A", Rating: 1000},
		{ID: "p2", Name: "Player B", Rating: 1050},
		{ID: "p3", Name: "Player C", Rating: 990},
		{ID: "p4", Name: "Player D", Rating: 1010},
	}
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(message, true)
	require.NoError(t, err)
}

func TestSendMessage_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	message := slackapi.NewBlockMessage(slackapi.NewSectionBlock(slackapi.NewTextBlockObject("plain_text", "hello", false, false), nil, nil))
	_, _, err := notifier.sendMessage(message, false)

	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.NotifSent())
	assert.Equal(t, 0, metrics.NotifFailed())
}

func TestSendMessage_Failure(t *testing.T) {
	postMessageCalled := false
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(message, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 0, metrics.NotifSent())
	assert.Equal(t, 1, metrics.NotifFailed())
}

// Test one of the public methods to ensure it calls the private sender.
func TestSendMatchCreated_CallsSender(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	err := notifier.SendMatchCreated(testMatch(), testPlayers(), false)
	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called via SendMatchCreated")
}

func TestFormatMatchCreated(t *testing.T) {
	client := &Notifier{channelID: "C123"}

	t.Run("full match lists all players", func(t *testing.T) {
		msg := client.formatMatchCreated(testMatch(), testPlayers())
		require.Len(t, msg.Blocks.BlockSet, 3, "Expected 3 blocks (header, details, players)")

		header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
		require.True(t, ok, "First block should be a HeaderBlock")
		assert.Equal(t, "🎾 New match scheduled! 🎾", header.Text.Text)

		players, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
		require.True(t, ok, "Third block should be a SectionBlock")
		assert.Contains(t, players.Text.Text, "• Player A")
		assert.Contains(t, players.Text.Text, "• Player D")
	})

	t.Run("open slots get a context block", func(t *testing.T) {
		m := testMatch()
		m.Players[2] = ""
		m.Players[3] = ""

		msg := client.formatMatchCreated(m, testPlayers())
		require.Len(t, msg.Blocks.BlockSet, 4)

		contextBlock, ok := msg.Blocks.BlockSet[3].(*slackapi.ContextBlock)
		require.True(t, ok, "Fourth block should be a ContextBlock")
		require.Len(t, contextBlock.ContextElements.Elements, 1)

		element, ok := contextBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject)
		require.True(t, ok)
		assert.Equal(t, "🙋 2 spot(s) still open, join in!", element.Text)
	})

	t.Run("unknown players fall back to IDs", func(t *testing.T) {
		msg := client.formatMatchCreated(testMatch(), nil)

		players, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Contains(t, players.Text.Text, "• p1")
	})
}

func TestFormatResultNotification(t *testing.T) {
	client := &Notifier{channelID: "C123"}

	state := match.MatchState{
		Team1Sets: 2,
		Team2Sets: 0,
		Winner:    1,
	}
	adj := &rating.Adjustment{
		Winner: 1,
		Delta:  15,
		Players: []rating.PlayerDelta{
			{PlayerID: "p1", Before: 1000, After: 1015, Change: 15, Won: true},
			{PlayerID: "p2", Before: 1050, After: 1065, Change: 15, Won: true},
			{PlayerID: "p3", Before: 990, After: 975, Change: -15},
			{PlayerID: "p4", Before: 1010, After: 995, Change: -15},
		},
	}

	msg := client.formatResultNotification(testMatch(), state, testPlayers(), adj)
	require.Len(t, msg.Blocks.BlockSet, 4, "Expected 4 blocks (header, details, result, ratings)")

	header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
	require.True(t, ok)
	assert.Equal(t, "🎾 Match finished! 🎾", header.Text.Text)

	resultsSection, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Result: Player A & Player B won! 🏆", resultsSection.Text.Text)
	require.Len(t, resultsSection.Fields, 2)

	expectedSet1 := "Set 1\n• Player A & Player B: 6\n• Player C & Player D: 2"
	expectedSet2 := "Set 2\n• Player A & Player B: 7\n• Player C & Player D: 5"
	assert.Equal(t, expectedSet1, resultsSection.Fields[0].Text)
	assert.Equal(t, expectedSet2, resultsSection.Fields[1].Text)

	ratingsSection, ok := msg.Blocks.BlockSet[3].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, ratingsSection.Text.Text, "• Player A: 1000 -> 1015 (+15)")
	assert.Contains(t, ratingsSection.Text.Text, "• Player C: 990 -> 975 (-15)")
}

func TestFormatResultNotification_NoAdjustment(t *testing.T) {
	client := &Notifier{channelID: "C123"}

	state := match.MatchState{Team1Sets: 2, Winner: 1}
	msg := client.formatResultNotification(testMatch(), state, testPlayers(), nil)
	require.Len(t, msg.Blocks.BlockSet, 3, "Expected 3 blocks without rating changes")
}

func TestFormatDisputeNotification(t *testing.T) {
	client := &Notifier{channelID: "C123"}

	msg := client.formatDisputeNotification(testMatch(), "Player C")
	require.Len(t, msg.Blocks.BlockSet, 3)

	header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
	require.True(t, ok)
	assert.Equal(t, "⚠️ Match result disputed", header.Text.Text)

	contextBlock, ok := msg.Blocks.BlockSet[2].(*slackapi.ContextBlock)
	require.True(t, ok)
	require.Len(t, contextBlock.ContextElements.Elements, 1)

	element, ok := contextBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject)
	require.True(t, ok)
	assert.Contains(t, element.Text, "Rejected by Player C")
	assert.Contains(t, element.Text, "Match ID: m1")
}

func TestFormatLeaderboard(t *testing.T) {
	client := &Notifier{channelID: "C123"}

	t.Run("formats leaderboard with players", func(t *testing.T) {
		players := []club.PlayerInfo{
			{Name: "Player A", Rating: 1200},
			{Name: "Player B", Rating: 1100},
			{Name: "Player C", Rating: 1000},
			{Name: "Player D", Rating: 900},
		}

		msg := client.formatLeaderboard(players)
		require.Len(t, msg.Blocks.BlockSet, 5) // Header + 4 players

		header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
		require.True(t, ok)
		assert.Equal(t, "🏆 Rating Leaderboard 🏆", header.Text.Text)

		// Check first player
		player1, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Contains(t, player1.Text.Text, "1. 🥇 Player A")
		assert.Contains(t, player1.Text.Text, "> *Rating*: 1200")

		// Check second player
		player2, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Contains(t, player2.Text.Text, "2. 🥈 Player B")
	})

	t.Run("formats message for no players", func(t *testing.T) {
		msg := client.formatLeaderboard([]club.PlayerInfo{})
		require.Len(t, msg.Blocks.BlockSet, 2) // Header + message

		message, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Equal(t, "No players found. Go play some matches!", message.Text.Text)
	})
}
