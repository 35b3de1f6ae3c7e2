package processor

import (
	"time"

	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/metrics"
	"github.com/qwerty-development/padel-scoring/internal/pubsub"
	"github.com/qwerty-development/padel-scoring/internal/rating"
)

// DefaultConfirmationTimeout is how long a submitted result may sit
// unconfirmed before the processor default-confirms it.
const DefaultConfirmationTimeout = 72 * time.Hour

// Processor handles the business logic of advancing matches through their
// lifecycle.
type Processor struct {
	store               Store
	pubsub              pubsub.PubSubClient
	notifier            Notifier
	metrics             metrics.Metrics
	resolver            *match.Resolver
	confirmationTimeout time.Duration

	// now is swapped out in tests to pin the clock.
	now func() time.Time
}

// RatingsEvent is the payload published on the apply-ratings topic.
type RatingsEvent struct {
	MatchID string `msgpack:"match_id"`
}

// ResultEvent is the payload published on the notify-result topic once
// ratings have been applied.
type ResultEvent struct {
	MatchID    string            `msgpack:"match_id"`
	Adjustment rating.Adjustment `msgpack:"adjustment"`
}
