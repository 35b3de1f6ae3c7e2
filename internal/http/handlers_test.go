package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qwerty-development/padel-scoring/internal/club"
	"github.com/qwerty-development/padel-scoring/internal/config"
	"github.com/qwerty-development/padel-scoring/internal/confirmation"
	"github.com/qwerty-development/padel-scoring/internal/database"
	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/metrics"
	"github.com/qwerty-development/padel-scoring/internal/notifier"
	"github.com/qwerty-development/padel-scoring/internal/processor"
	"github.com/qwerty-development/padel-scoring/internal/pubsub"
	"github.com/qwerty-development/padel-scoring/internal/scoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// setupTestServer initializes a new server with a test database and mock clients.
func setupTestServer(t *testing.T, noti notifier.Notifier) (*Server, *pubsub.MockPubSubClient, func()) {
	t.Helper()

	// For handlers that use the store, we need a real db connection for now.
	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	clubStore := club.New(db)
	cfg := config.Config{CancelWindowHours: 24, ConfirmationTimeoutHours: 72}

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)
	ps := pubsub.NewMock("TEST")
	resolver := match.NewResolver(time.Duration(cfg.CancelWindowHours) * time.Hour)
	proc := processor.New(clubStore, noti, metricsSvc, ps, resolver, time.Duration(cfg.ConfirmationTimeoutHours)*time.Hour)
	server := NewServer(clubStore, metricsSvc, metricsHandler, cfg, noti, proc, resolver, ps)

	teardown := func() {
		if dbTeardown != nil {
			dbTeardown()
		}
		db.Close()
	}
	return server, ps, teardown
}

func seedPlayers(t *testing.T, server *Server) {
	t.Helper()
	server.Store.AddPlayer("p1", "Player A", 1000)
	server.Store.AddPlayer("p2", "Player B", 1000)
	server.Store.AddPlayer("p3", "Player C", 1000)
	server.Store.AddPlayer("p4", "Player D", 1000)
}

func seedMatch(t *testing.T, server *Server, id string, start time.Time, players [match.NumSlots]string) *match.Match {
	t.Helper()
	m := &match.Match{
		ID:         id,
		Players:    players,
		Start:      start,
		Status:     match.StatusPending,
		Visibility: match.VisibilityPublic,
		Validation: confirmation.StateNone,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, server.Store.CreateMatch(m))
	return m
}

func postJSON(t *testing.T, server *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	return rr
}

// pushRequest wraps a payload the way a Pub/Sub push delivery does: msgpack
// inside base64 inside the JSON envelope.
func pushRequest(t *testing.T, server *Server, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := msgpack.Marshal(payload)
	require.NoError(t, err)
	envelope := map[string]any{
		"subscription": "test-sub",
		"message":      map[string]any{"data": base64.StdEncoding.EncodeToString(raw)},
	}
	return postJSON(t, server, path, envelope)
}

func TestHealthCheckHandler(t *testing.T) {
	server, _, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestListMembersHandler(t *testing.T) {
	server, _, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()
	seedPlayers(t, server)

	req := httptest.NewRequest("GET", "/members", nil)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var players []club.PlayerInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &players))
	assert.Len(t, players, 4)
}

func TestCreateMatchHandler(t *testing.T) {
	noti := notifier.NewMock()
	server, _, teardown := setupTestServer(t, noti)
	defer teardown()
	seedPlayers(t, server)

	t.Run("creates a match and notifies", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/create", createMatchRequest{
			CreatorID: "p1",
			Start:     time.Now().Add(48 * time.Hour).Format(time.RFC3339),
			Players:   []string{"p2"},
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var m match.Match
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
		assert.NotEmpty(t, m.ID)
		assert.Equal(t, "p1", m.CreatorID())
		assert.Equal(t, match.StatusPending, m.Status)
		assert.Equal(t, 2, m.OpenSlots())

		require.Len(t, noti.SendMatchCreatedCalls, 1)

		stored, err := server.Store.GetMatch(m.ID)
		require.NoError(t, err)
		assert.Equal(t, "p2", stored.Players[1])
	})

	t.Run("rejects missing creator", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/create", createMatchRequest{
			Start: time.Now().Format(time.RFC3339),
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects malformed start", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/create", createMatchRequest{
			CreatorID: "p1",
			Start:     "tomorrow-ish",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestJoinMatchHandler(t *testing.T) {
	server, _, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()
	seedPlayers(t, server)
	seedMatch(t, server, "m1", time.Now().Add(24*time.Hour), [match.NumSlots]string{"p1", "", "", ""})

	t.Run("joins an open slot", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/join", joinMatchRequest{MatchID: "m1", PlayerID: "p2"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		m, err := server.Store.GetMatch("m1")
		require.NoError(t, err)
		assert.Equal(t, "p2", m.Players[1])
	})

	t.Run("double join conflicts", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/join", joinMatchRequest{MatchID: "m1", PlayerID: "p2"})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("unknown match is 404", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/join", joinMatchRequest{MatchID: "nope", PlayerID: "p3"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestSubmitScoresHandler(t *testing.T) {
	server, _, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()
	seedPlayers(t, server)
	seedMatch(t, server, "m1", time.Now().Add(-3*time.Hour), [match.NumSlots]string{"p1", "p2", "p3", "p4"})

	validSets := []scoring.SetScore{{Team1: 6, Team2: 2}, {Team1: 6, Team2: 3}}

	t.Run("missing submitter identity is rejected", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/scores", submitScoresRequest{
			MatchID: "m1",
			Sets:    validSets,
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("outsiders cannot submit", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/scores", submitScoresRequest{
			MatchID:  "m1",
			PlayerID: "stranger",
			Sets:     validSets,
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("participants other than the creator cannot submit", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/scores", submitScoresRequest{
			MatchID:  "m1",
			PlayerID: "p2",
			Sets:     validSets,
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("scores cannot be entered before the start", func(t *testing.T) {
		seedMatch(t, server, "m2", time.Now().Add(24*time.Hour), [match.NumSlots]string{"p1", "p2", "p3", "p4"})
		rr := postJSON(t, server, "/matches/scores", submitScoresRequest{
			MatchID:  "m2",
			PlayerID: "p1",
			Sets:     validSets,
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)

		m, err := server.Store.GetMatch("m2")
		require.NoError(t, err)
		assert.Equal(t, match.StatusPending, m.Status)
	})

	t.Run("invalid sets are 422 with details", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/scores", submitScoresRequest{
			MatchID:  "m1",
			PlayerID: "p1",
			Sets:     []scoring.SetScore{{Team1: 6, Team2: 6}},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.SetErrors, 1)
		assert.Equal(t, 1, resp.SetErrors[0].Set)
	})

	t.Run("valid sets move the match to confirmation", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/scores", submitScoresRequest{
			MatchID:  "m1",
			PlayerID: "p1",
			Sets:     validSets,
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		m, err := server.Store.GetMatch("m1")
		require.NoError(t, err)
		assert.Equal(t, match.StatusNeedsConfirmation, m.Status)
		assert.Equal(t, confirmation.StatePending, m.Validation)
	})

	t.Run("resubmission is forbidden once scores exist", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/scores", submitScoresRequest{
			MatchID:  "m1",
			PlayerID: "p1",
			Sets:     validSets,
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestVoteHandlers(t *testing.T) {
	submitted := func(t *testing.T, server *Server) {
		seedPlayers(t, server)
		seedMatch(t, server, "m1", time.Now().Add(-3*time.Hour), [match.NumSlots]string{"p1", "p2", "p3", "p4"})
		rr := postJSON(t, server, "/matches/scores", submitScoresRequest{
			MatchID:  "m1",
			PlayerID: "p1",
			Sets:     []scoring.SetScore{{Team1: 6, Team2: 2}, {Team1: 6, Team2: 3}},
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	t.Run("unanimous approval confirms and publishes apply-ratings", func(t *testing.T) {
		server, ps, teardown := setupTestServer(t, notifier.NewMock())
		defer teardown()
		submitted(t, server)

		for _, p := range []string{"p1", "p2", "p3", "p4"} {
			rr := postJSON(t, server, "/matches/confirm", voteRequest{MatchID: "m1", PlayerID: p})
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		}

		m, err := server.Store.GetMatch("m1")
		require.NoError(t, err)
		assert.Equal(t, confirmation.StateConfirmed, m.Validation)

		require.Len(t, ps.SendMessageCalls, 1)
		assert.Equal(t, string(pubsub.EventApplyRatings), ps.SendMessageCalls[0].Topic)
	})

	t.Run("a single reject disputes the result", func(t *testing.T) {
		noti := notifier.NewMock()
		server, ps, teardown := setupTestServer(t, noti)
		defer teardown()
		submitted(t, server)

		for _, p := range []string{"p1", "p2", "p3"} {
			rr := postJSON(t, server, "/matches/confirm", voteRequest{MatchID: "m1", PlayerID: p})
			require.Equal(t, http.StatusOK, rr.Code)
		}
		rr := postJSON(t, server, "/matches/reject", voteRequest{MatchID: "m1", PlayerID: "p4"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		m, err := server.Store.GetMatch("m1")
		require.NoError(t, err)
		assert.Equal(t, confirmation.StateDisputed, m.Validation)
		require.Len(t, noti.SendDisputeNotificationCalls, 1)
		assert.Empty(t, ps.SendMessageCalls)
	})

	t.Run("outsiders cannot vote", func(t *testing.T) {
		server, _, teardown := setupTestServer(t, notifier.NewMock())
		defer teardown()
		submitted(t, server)

		rr := postJSON(t, server, "/matches/confirm", voteRequest{MatchID: "m1", PlayerID: "stranger"})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("double votes conflict", func(t *testing.T) {
		server, _, teardown := setupTestServer(t, notifier.NewMock())
		defer teardown()
		submitted(t, server)

		rr := postJSON(t, server, "/matches/confirm", voteRequest{MatchID: "m1", PlayerID: "p1"})
		require.Equal(t, http.StatusOK, rr.Code)
		rr = postJSON(t, server, "/matches/reject", voteRequest{MatchID: "m1", PlayerID: "p1"})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestCancelMatchHandler(t *testing.T) {
	server, _, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()
	seedPlayers(t, server)
	seedMatch(t, server, "m1", time.Now().Add(24*time.Hour), [match.NumSlots]string{"p1", "p2", "", ""})

	t.Run("non-creator cannot cancel", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/cancel", cancelMatchRequest{MatchID: "m1", PlayerID: "p2"})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("creator cancels an upcoming match", func(t *testing.T) {
		rr := postJSON(t, server, "/matches/cancel", cancelMatchRequest{MatchID: "m1", PlayerID: "p1"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		m, err := server.Store.GetMatch("m1")
		require.NoError(t, err)
		assert.Equal(t, match.StatusCancelled, m.Status)
	})

	t.Run("cancel window closes long after the match", func(t *testing.T) {
		seedMatch(t, server, "m2", time.Now().Add(-72*time.Hour), [match.NumSlots]string{"p1", "p2", "p3", "p4"})
		rr := postJSON(t, server, "/matches/cancel", cancelMatchRequest{MatchID: "m2", PlayerID: "p1"})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestResolveMatchHandler(t *testing.T) {
	server, _, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()
	seedPlayers(t, server)
	seedMatch(t, server, "m1", time.Now().Add(24*time.Hour), [match.NumSlots]string{"p1", "p2", "", ""})

	req := httptest.NewRequest("GET", "/matches/resolve?match_id=m1&viewer=p3", nil)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var state match.MatchState
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Equal(t, match.PhaseUpcoming, state.Phase)
	assert.True(t, state.CanJoin)
	assert.False(t, state.UserParticipating)

	t.Run("missing match is 404", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/matches/resolve?match_id=nope", nil)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestApplyRatingsFlow(t *testing.T) {
	noti := notifier.NewMock()
	server, ps, teardown := setupTestServer(t, noti)
	defer teardown()
	seedPlayers(t, server)
	seedMatch(t, server, "m1", time.Now().Add(-3*time.Hour), [match.NumSlots]string{"p1", "p2", "p3", "p4"})

	rr := postJSON(t, server, "/matches/scores", submitScoresRequest{
		MatchID:  "m1",
		PlayerID: "p1",
		Sets:     []scoring.SetScore{{Team1: 6, Team2: 2}, {Team1: 6, Team2: 3}},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	for _, p := range []string{"p1", "p2", "p3", "p4"} {
		rr := postJSON(t, server, "/matches/confirm", voteRequest{MatchID: "m1", PlayerID: p})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	// Deliver the published apply-ratings event back through the push endpoint.
	rr = pushRequest(t, server, "/apply-ratings", processor.RatingsEvent{MatchID: "m1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	m, err := server.Store.GetMatch("m1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusCompleted, m.Status)
	assert.True(t, m.RatingApplied)

	players, err := server.Store.GetPlayers([]string{"p1", "p3"})
	require.NoError(t, err)
	byID := map[string]club.PlayerInfo{}
	for _, p := range players {
		byID[p.ID] = p
	}
	assert.Equal(t, float64(1015), byID["p1"].Rating)
	assert.Equal(t, float64(985), byID["p3"].Rating)

	// apply-ratings from the confirmation, then notify-result from the apply.
	require.Len(t, ps.SendMessageCalls, 2)
	assert.Equal(t, string(pubsub.EventNotifyResult), ps.SendMessageCalls[1].Topic)

	// A duplicate delivery is a no-op.
	rr = pushRequest(t, server, "/apply-ratings", processor.RatingsEvent{MatchID: "m1"})
	require.Equal(t, http.StatusOK, rr.Code)
	players, err = server.Store.GetPlayers([]string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, float64(1015), players[0].Rating)

	// Deliver the notify-result event and expect the notification.
	event, ok := ps.SendMessageCalls[1].Data.(processor.ResultEvent)
	require.True(t, ok)
	rr = pushRequest(t, server, "/notify-result", event)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, noti.SendResultNotificationCalls, 1)
	assert.Equal(t, "m1", noti.SendResultNotificationCalls[0].Match.ID)
}

func TestProcessMatchesHandler(t *testing.T) {
	server, _, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()

	req := httptest.NewRequest("POST", "/process", nil)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Match processing completed.\n", rr.Body.String())
}

func TestLeaderboardHandler(t *testing.T) {
	server, _, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()
	seedPlayers(t, server)

	req := httptest.NewRequest("GET", "/leaderboard", nil)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var players []club.PlayerInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &players))
	assert.Len(t, players, 4)
}

func TestAnnounceLeaderboardHandler(t *testing.T) {
	noti := notifier.NewMock()
	server, _, teardown := setupTestServer(t, noti)
	defer teardown()
	seedPlayers(t, server)

	req := httptest.NewRequest("POST", "/leaderboard/announce", nil)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, noti.SendLeaderboardCalls, 1)
	assert.Len(t, noti.SendLeaderboardCalls[0], 4)
}
