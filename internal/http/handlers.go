package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/qwerty-development/padel-scoring/internal/club"
	"github.com/qwerty-development/padel-scoring/internal/confirmation"
	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/processor"
	"github.com/qwerty-development/padel-scoring/internal/scoring"
	"github.com/slack-go/slack"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) ClearStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("matchID")
		if matchID != "" {
			log.Info("Received request to clear a specific match", "matchID", matchID)
			s.Store.ClearMatch(matchID)
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, "Cleared match %s from store!", matchID)
			log.Info("Successfully cleared match from store", "matchID", matchID)
		} else {
			log.Info("Received request to clear entire store")
			s.Store.Clear()
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "Store cleared!")
			log.Info("Store cleared successfully")
		}
	}
}

func (s *Server) ListMembersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Store.GetAllPlayers()
		if err != nil {
			http.Error(w, "Failed to get players", http.StatusInternalServerError)
			log.Error("Failed to get players from store", "error", err)
			return
		}
		respondJSON(w, http.StatusOK, players)
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := s.Store.GetAllMatches()
		if err != nil {
			http.Error(w, "Failed to get matches", http.StatusInternalServerError)
			log.Error("Failed to get matches from store", "error", err)
			return
		}
		respondJSON(w, http.StatusOK, matches)
	}
}

// LeaderboardHandler returns a handler that serves the rating leaderboard.
func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Store.GetLeaderboard()
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard from store", "error", err)
			return
		}
		respondJSON(w, http.StatusOK, players)
	}
}

// AnnounceLeaderboardHandler posts the current leaderboard to the club's
// Slack channel, as opposed to LeaderboardHandler which returns it to the
// caller.
func (s *Server) AnnounceLeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Store.GetLeaderboard()
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard from store", "error", err)
			return
		}

		if err := s.Notifier.SendLeaderboard(players, isDryRunFromContext(r)); err != nil {
			http.Error(w, "Failed to send leaderboard", http.StatusInternalServerError)
			log.Error("Failed to send leaderboard notification", "error", err)
			return
		}
		w.Write([]byte("OK"))
	}
}

// ResolveMatchHandler derives the full MatchState of a match for a viewer.
func (s *Server) ResolveMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("match_id")
		if matchID == "" {
			respondError(w, http.StatusBadRequest, "match_id is required")
			return
		}
		viewerID := r.URL.Query().Get("viewer")

		m, err := s.Store.GetMatch(matchID)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}

		state := s.Resolver.Resolve(m, time.Now(), viewerID)
		s.Metrics.IncMatchesResolved()
		respondJSON(w, http.StatusOK, state)
	}
}

func (s *Server) CreateMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMatchRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.CreatorID == "" {
			respondError(w, http.StatusBadRequest, "creator_id is required")
			return
		}
		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			respondError(w, http.StatusBadRequest, "start must be an RFC 3339 timestamp")
			return
		}

		if len(req.Players) > match.NumSlots-1 {
			respondError(w, http.StatusBadRequest, "too many players")
			return
		}

		m := &match.Match{
			ID:         uuid.NewString(),
			Start:      start,
			Status:     match.StatusPending,
			Visibility: match.VisibilityPublic,
			Validation: confirmation.StateNone,
			CreatedAt:  time.Now(),
		}
		m.Players[0] = req.CreatorID
		for i, p := range req.Players {
			m.Players[i+1] = p
		}
		if req.Visibility != "" {
			m.Visibility = match.Visibility(req.Visibility)
		}
		if req.End != "" {
			end, err := time.Parse(time.RFC3339, req.End)
			if err != nil {
				respondError(w, http.StatusBadRequest, "end must be an RFC 3339 timestamp")
				return
			}
			m.End = &end
		}

		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would create match", "matchID", m.ID, "creator", req.CreatorID)
			respondJSON(w, http.StatusOK, m)
			return
		}

		if err := s.Store.CreateMatch(m); err != nil {
			s.respondStoreError(w, err)
			return
		}

		players, err := s.Store.GetPlayers(m.Participants())
		if err != nil {
			log.Error("Failed to load players for match notification", "error", err, "matchID", m.ID)
		} else if err := s.Notifier.SendMatchCreated(m, players, false); err != nil {
			log.Error("Failed to send match created notification", "error", err, "matchID", m.ID)
		}

		respondJSON(w, http.StatusCreated, m)
	}
}

func (s *Server) JoinMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req joinMatchRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.MatchID == "" || req.PlayerID == "" {
			respondError(w, http.StatusBadRequest, "match_id and player_id are required")
			return
		}

		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would join match", "matchID", req.MatchID, "playerID", req.PlayerID)
			w.Write([]byte("OK"))
			return
		}

		if err := s.Store.JoinMatch(req.MatchID, req.PlayerID); err != nil {
			s.respondStoreError(w, err)
			return
		}
		w.Write([]byte("OK"))
	}
}

func (s *Server) SubmitScoresHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitScoresRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.MatchID == "" || req.PlayerID == "" {
			respondError(w, http.StatusBadRequest, "match_id and player_id are required")
			return
		}

		m, err := s.Store.GetMatch(req.MatchID)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}

		state := s.Resolver.Resolve(m, time.Now(), req.PlayerID)
		if !state.CanEnterScores {
			respondError(w, http.StatusForbidden, "player may not enter scores for this match")
			return
		}

		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would submit scores", "matchID", req.MatchID, "sets", len(req.Sets))
			w.Write([]byte("OK"))
			return
		}

		if err := s.Store.SubmitScores(req.MatchID, req.Sets); err != nil {
			if errors.Is(err, club.ErrInvalidScores) {
				s.Metrics.IncValidationFailures()
				agg := scoring.AggregateSets(req.Sets)
				respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
					Error:     err.Error(),
					SetErrors: agg.Errors,
				})
				return
			}
			s.respondStoreError(w, err)
			return
		}
		w.Write([]byte("OK"))
	}
}

// VoteHandler records a confirmation or rejection of a submitted result.
func (s *Server) VoteHandler(approved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req voteRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.MatchID == "" || req.PlayerID == "" {
			respondError(w, http.StatusBadRequest, "match_id and player_id are required")
			return
		}

		err := s.Processor.Vote(req.MatchID, req.PlayerID, approved, isDryRunFromContext(r))
		if err != nil {
			switch {
			case errors.Is(err, confirmation.ErrNotParticipant):
				respondError(w, http.StatusForbidden, err.Error())
			case errors.Is(err, confirmation.ErrNotPending), errors.Is(err, confirmation.ErrAlreadyVoted):
				respondError(w, http.StatusConflict, err.Error())
			default:
				s.respondStoreError(w, err)
			}
			return
		}
		w.Write([]byte("OK"))
	}
}

func (s *Server) CancelMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cancelMatchRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.MatchID == "" || req.PlayerID == "" {
			respondError(w, http.StatusBadRequest, "match_id and player_id are required")
			return
		}

		m, err := s.Store.GetMatch(req.MatchID)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}

		state := s.Resolver.Resolve(m, time.Now(), req.PlayerID)
		if !state.CanCancel {
			respondError(w, http.StatusForbidden, "match can no longer be cancelled by this player")
			return
		}

		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would cancel match", "matchID", req.MatchID)
			w.Write([]byte("OK"))
			return
		}

		if err := s.Store.CancelMatch(req.MatchID); err != nil {
			s.respondStoreError(w, err)
			return
		}
		w.Write([]byte("OK"))
	}
}

func (s *Server) ProcessMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Starting match processing...")
		isDryRun := isDryRunFromContext(r)

		s.Processor.ProcessMatches(isDryRun)

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Match processing completed.")
		log.Info("Match processing finished.")
	}
}

// ApplyRatingsHandler is the push endpoint for the apply-ratings topic.
func (s *Server) ApplyRatingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawData, ok := decodePushMessage(w, r)
		if !ok {
			return
		}

		event := processor.RatingsEvent{}
		if err := s.pubsub.ProcessMessage(rawData, &event); err != nil {
			http.Error(w, "Invalid message payload", http.StatusBadRequest)
			return
		}

		if err := s.Processor.ApplyMatchRatings(event.MatchID, isDryRunFromContext(r)); err != nil {
			log.Error("Failed to apply ratings", "error", err, "matchID", event.MatchID)
			http.Error(w, "Failed to apply ratings", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}

// NotifyResultHandler is the push endpoint for the notify-result topic.
func (s *Server) NotifyResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawData, ok := decodePushMessage(w, r)
		if !ok {
			return
		}

		event := processor.ResultEvent{}
		if err := s.pubsub.ProcessMessage(rawData, &event); err != nil {
			http.Error(w, "Invalid message payload", http.StatusBadRequest)
			return
		}

		if err := s.Processor.NotifyResult(event.MatchID, &event.Adjustment, isDryRunFromContext(r)); err != nil {
			log.Error("Failed to notify result", "error", err, "matchID", event.MatchID)
			http.Error(w, "Failed to notify result", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}

// LeaderboardCommandHandler returns a handler for the /leaderboard Slack command.
func (s *Server) LeaderboardCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Store.GetLeaderboard()
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard from store", "error", err)
			return
		}

		msg, err := s.Notifier.FormatLeaderboardResponse(players)
		if err != nil {
			http.Error(w, "Failed to format leaderboard", http.StatusInternalServerError)
			log.Error("Failed to format leaderboard", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}

		respondWithSlackMsg(w, slackMsg)
	}
}

// decodePushMessage unwraps a Pub/Sub push delivery: outer JSON envelope
// with a base64-encoded MessagePack payload inside.
func decodePushMessage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("Failed to read request body", "error", err)
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return nil, false
	}
	log.Debug("Received push message", "body", string(bodyBytes))

	var pubsubMsg struct {
		Subscription string `json:"subscription"`
		Message      struct {
			Data string `json:"data"` // base64-encoded message payload
		} `json:"message"`
	}
	if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
		log.Error("Failed to unmarshal wrapper JSON", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return nil, false
	}

	rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
	if err != nil {
		log.Error("Failed to decode base64 data", "error", err)
		http.Error(w, "Invalid base64 data", http.StatusBadRequest)
		return nil, false
	}
	return rawData, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// respondStoreError maps store sentinel errors to HTTP status codes.
func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, club.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, club.ErrStateConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		log.Error("Store operation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}
