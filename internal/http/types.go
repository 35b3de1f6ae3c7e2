package http

import (
	"net/http"

	"github.com/qwerty-development/padel-scoring/internal/club"
	"github.com/qwerty-development/padel-scoring/internal/config"
	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/metrics"
	"github.com/qwerty-development/padel-scoring/internal/notifier"
	"github.com/qwerty-development/padel-scoring/internal/processor"
	"github.com/qwerty-development/padel-scoring/internal/pubsub"
	"github.com/qwerty-development/padel-scoring/internal/scoring"
)

type Server struct {
	Store          club.ClubStore
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Processor      *processor.Processor
	Resolver       *match.Resolver
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}

// errorResponse is the JSON body for every non-2xx response. SetErrors is
// only populated for score validation failures.
type errorResponse struct {
	Error     string             `json:"error"`
	SetErrors []scoring.SetError `json:"set_errors,omitempty"`
}

type createMatchRequest struct {
	CreatorID  string   `json:"creator_id"`
	Start      string   `json:"start"` // RFC 3339
	End        string   `json:"end,omitempty"`
	Visibility string   `json:"visibility,omitempty"`
	Players    []string `json:"players,omitempty"` // optional pre-filled slots after the creator
}

type joinMatchRequest struct {
	MatchID  string `json:"match_id"`
	PlayerID string `json:"player_id"`
}

type submitScoresRequest struct {
	MatchID  string             `json:"match_id"`
	PlayerID string             `json:"player_id"`
	Sets     []scoring.SetScore `json:"sets"`
}

type voteRequest struct {
	MatchID  string `json:"match_id"`
	PlayerID string `json:"player_id"`
}

type cancelMatchRequest struct {
	MatchID  string `json:"match_id"`
	PlayerID string `json:"player_id"`
}
