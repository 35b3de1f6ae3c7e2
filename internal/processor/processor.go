package processor

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/qwerty-development/padel-scoring/internal/club"
	"github.com/qwerty-development/padel-scoring/internal/confirmation"
	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/metrics"
	"github.com/qwerty-development/padel-scoring/internal/pubsub"
	"github.com/qwerty-development/padel-scoring/internal/rating"
	"github.com/qwerty-development/padel-scoring/internal/scoring"
)

// New creates a new Processor.
func New(store Store, notifier Notifier, metrics metrics.Metrics, pubsub pubsub.PubSubClient, resolver *match.Resolver, confirmationTimeout time.Duration) *Processor {
	if confirmationTimeout <= 0 {
		confirmationTimeout = DefaultConfirmationTimeout
	}
	return &Processor{
		store:               store,
		pubsub:              pubsub,
		notifier:            notifier,
		metrics:             metrics,
		resolver:            resolver,
		confirmationTimeout: confirmationTimeout,
		now:                 time.Now,
	}
}

// ProcessMatches fetches matches that need processing and advances them
// through the state machine.
func (p *Processor) ProcessMatches(dryRun bool) {
	log.Info("Starting match processing...")
	matches, err := p.store.GetMatchesForProcessing()
	if err != nil {
		log.Error("Failed to get matches for processing", "error", err)
		return
	}

	if len(matches) == 0 {
		log.Info("No matches to process.")
		return
	}

	log.Info("Found matches to process", "count", len(matches))
	for _, m := range matches {
		startTime := time.Now()
		p.processMatch(m, dryRun)
		duration := time.Since(startTime).Milliseconds()
		p.metrics.ObserveProcessingDuration(float64(duration))
	}
	log.Info("Match processing finished.")
}

func (p *Processor) processMatch(m *match.Match, dryRun bool) {
	log.Info("Processing match", "matchID", m.ID, "initial_status", m.Status, "validation", m.Validation)
	for {
		currentStatus := m.Status
		currentValidation := m.Validation
		log.Debug("Evaluating match state", "matchID", m.ID, "status", currentStatus, "validation", currentValidation)

		switch currentStatus {
		case match.StatusPending:
			// Legacy rows can carry complete scores while the status is
			// still pending. Promote them so the confirmation workflow
			// starts, just as if the scores had come in through the API.
			state := p.resolver.Resolve(m, p.now(), "")
			if state.IsPast && state.HasScores {
				log.Info("Pending match already has scores. Moving to confirmation.", "matchID", m.ID)
				p.promoteScores(m, dryRun)
			}

		case match.StatusNeedsConfirmation:
			switch currentValidation {
			case confirmation.StatePending:
				p.evaluateBallot(m, dryRun)

			case confirmation.StateConfirmed:
				// Ratings are applied via the apply-ratings topic so the
				// heavy write happens on the push path, not here.
				log.Info("Result confirmed. Publishing apply-ratings event.", "matchID", m.ID)
				if dryRun {
					log.Info("[Dry Run] Would publish apply-ratings event", "matchID", m.ID)
					return
				}
				if err := p.pubsub.SendMessage(pubsub.EventApplyRatings, RatingsEvent{MatchID: m.ID}); err != nil {
					log.Error("Failed to publish apply-ratings event", "error", err, "matchID", m.ID)
				}
				return

			case confirmation.StateDisputed:
				log.Debug("Result is disputed. Waiting for an arbiter.", "matchID", m.ID)
				return

			default:
				// NEEDS_CONFIRMATION without a pending ballot is a repaired
				// or hand-edited row; re-open the ballot.
				log.Warn("Match needs confirmation but has no ballot. Re-opening.", "matchID", m.ID, "validation", currentValidation)
				p.setValidation(m, currentValidation, confirmation.StatePending, dryRun)
			}

		case match.StatusCompleted, match.StatusCancelled:
			log.Debug("Match is terminal. No further processing needed.", "matchID", m.ID, "status", currentStatus)
			return

		default:
			log.Warn("Unknown match status", "status", currentStatus, "matchID", m.ID)
			return
		}

		// If nothing changed, we're done with this match for now.
		if m.Status == currentStatus && m.Validation == currentValidation {
			log.Debug("Match state did not change. Finished processing for now.", "matchID", m.ID, "status", currentStatus)
			break
		}
	}
	log.Info("Finished processing match", "matchID", m.ID, "final_status", m.Status, "validation", m.Validation)
}

// evaluateBallot tallies the votes for a pending result and advances the
// validation state when the ballot is decided or the timeout has lapsed.
func (p *Processor) evaluateBallot(m *match.Match, dryRun bool) {
	votes, err := p.store.GetVotes(m.ID)
	if err != nil {
		log.Error("Failed to load votes", "error", err, "matchID", m.ID)
		return
	}

	ballot := confirmation.Ballot{Participants: m.Participants(), Votes: votes}
	switch confirmation.Advance(confirmation.StatePending, ballot) {
	case confirmation.StateDisputed:
		log.Info("Result rejected by a participant. Marking as disputed.", "matchID", m.ID)
		p.setValidation(m, confirmation.StatePending, confirmation.StateDisputed, dryRun)
		if m.Validation == confirmation.StateDisputed {
			p.metrics.IncDisputes()
			p.notifier.SendDisputeNotification(m, p.rejectorName(m.ID, votes), dryRun)
		}

	case confirmation.StateConfirmed:
		log.Info("Result approved by all participants.", "matchID", m.ID)
		p.confirm(m, dryRun)

	default:
		age := p.now().Sub(p.completionTime(m))
		if age > p.confirmationTimeout {
			log.Warn("Confirmation timed out. Default-confirming result.",
				"matchID", m.ID, "age", age, "timeout", p.confirmationTimeout)
			p.confirm(m, dryRun)
			return
		}
		log.Debug("Ballot still open. Waiting for votes.", "matchID", m.ID, "approvals", ballot.Approvals())
	}
}

func (p *Processor) confirm(m *match.Match, dryRun bool) {
	p.setValidation(m, confirmation.StatePending, confirmation.StateConfirmed, dryRun)
	if m.Validation == confirmation.StateConfirmed {
		p.metrics.IncConfirmations()
	}
}

// Vote records one participant's verdict on a submitted result and
// immediately re-processes the match so a decided ballot takes effect in the
// same request.
func (p *Processor) Vote(matchID, playerID string, approved bool, dryRun bool) error {
	m, err := p.store.GetMatch(matchID)
	if err != nil {
		return err
	}

	votes, err := p.store.GetVotes(matchID)
	if err != nil {
		return err
	}
	ballot := confirmation.Ballot{Participants: m.Participants(), Votes: votes}
	vote := confirmation.Vote{PlayerID: playerID, Approved: approved, VotedAt: p.now()}
	if _, err := confirmation.Cast(m.Validation, ballot, vote); err != nil {
		return err
	}

	if dryRun {
		log.Info("[Dry Run] Would record vote", "matchID", matchID, "playerID", playerID, "approved", approved)
		return nil
	}
	if err := p.store.RecordVote(matchID, playerID, approved, vote.VotedAt); err != nil {
		return err
	}

	p.processMatch(m, dryRun)
	return nil
}

// ApplyMatchRatings computes and persists the rating adjustment for a
// confirmed match. It is the push-side handler for the apply-ratings topic
// and is safe to deliver more than once.
func (p *Processor) ApplyMatchRatings(matchID string, dryRun bool) error {
	m, err := p.store.GetMatch(matchID)
	if err != nil {
		return fmt.Errorf("failed to load match: %w", err)
	}

	if m.RatingApplied {
		log.Info("Ratings already applied. Nothing to do.", "matchID", matchID)
		return nil
	}
	if m.Validation != confirmation.StateConfirmed {
		return fmt.Errorf("match %s is not confirmed (validation %s)", matchID, m.Validation)
	}

	team1, team2, err := p.teamRatings(m)
	if err != nil {
		return err
	}

	agg := scoring.AggregateSets(m.Sets)
	adj := rating.Adjust(team1, team2, agg.Team1Sets, agg.Team2Sets)
	if adj.Winner == 0 {
		return fmt.Errorf("match %s has no decided winner, refusing to adjust ratings", matchID)
	}

	if dryRun {
		log.Info("[Dry Run] Would apply ratings", "matchID", matchID, "winner", adj.Winner, "delta", adj.Delta)
		return nil
	}

	if err := p.store.ApplyRatings(matchID, adj); err != nil {
		if errors.Is(err, club.ErrStateConflict) {
			// A concurrent delivery won the race. The work is done.
			log.Info("Ratings were applied concurrently. Nothing to do.", "matchID", matchID)
			return nil
		}
		return fmt.Errorf("failed to apply ratings: %w", err)
	}
	p.metrics.IncRatingsApplied()
	log.Info("Applied ratings", "matchID", matchID, "winner", adj.Winner, "delta", adj.Delta)

	if err := p.pubsub.SendMessage(pubsub.EventNotifyResult, ResultEvent{MatchID: matchID, Adjustment: adj}); err != nil {
		log.Error("Failed to publish notify-result event", "error", err, "matchID", matchID)
	}
	return nil
}

// NotifyResult sends the result notification for a completed match. It is
// the push-side handler for the notify-result topic.
func (p *Processor) NotifyResult(matchID string, adj *rating.Adjustment, dryRun bool) error {
	m, err := p.store.GetMatch(matchID)
	if err != nil {
		return fmt.Errorf("failed to load match: %w", err)
	}

	players, err := p.store.GetPlayers(m.Participants())
	if err != nil {
		return fmt.Errorf("failed to load players: %w", err)
	}

	state := p.resolver.Resolve(m, p.now(), "")
	return p.notifier.SendResultNotification(m, state, players, adj, dryRun)
}

// teamRatings loads the four participants and splits them into the two team
// pairs in slot order.
func (p *Processor) teamRatings(m *match.Match) (team1, team2 [2]rating.PlayerRating, err error) {
	if m.OpenSlots() > 0 {
		return team1, team2, fmt.Errorf("match %s has open slots, cannot adjust ratings", m.ID)
	}

	players, err := p.store.GetPlayers(m.Participants())
	if err != nil {
		return team1, team2, fmt.Errorf("failed to load players: %w", err)
	}

	byID := make(map[string]club.PlayerInfo, len(players))
	for _, pl := range players {
		byID[pl.ID] = pl
	}

	for i, id := range m.Players {
		pl, ok := byID[id]
		if !ok {
			return team1, team2, fmt.Errorf("player %s of match %s is unknown", id, m.ID)
		}
		pr := rating.PlayerRating{
			PlayerID:   pl.ID,
			Rating:     pl.Rating,
			Deviation:  pl.Deviation,
			Volatility: pl.Volatility,
		}
		if i < 2 {
			team1[i] = pr
		} else {
			team2[i-2] = pr
		}
	}
	return team1, team2, nil
}

// rejectorName resolves a display name for the first rejecting voter.
func (p *Processor) rejectorName(matchID string, votes []confirmation.Vote) string {
	for _, v := range votes {
		if !v.Approved {
			if players, err := p.store.GetPlayers([]string{v.PlayerID}); err == nil && len(players) == 1 && players[0].Name != "" {
				return players[0].Name
			}
			return v.PlayerID
		}
	}
	return "unknown"
}

// promoteScores moves a pending match with stored scores into the
// confirmation workflow using the same conditional transition as a fresh
// submission.
func (p *Processor) promoteScores(m *match.Match, dryRun bool) {
	if dryRun {
		log.Info("[Dry Run] Would move match to confirmation", "matchID", m.ID)
		m.Status = match.StatusNeedsConfirmation
		m.Validation = confirmation.StatePending
		return
	}

	if err := p.store.SubmitScores(m.ID, m.Sets); err != nil {
		log.Error("Failed to promote stored scores", "error", err, "matchID", m.ID)
		return
	}
	m.Status = match.StatusNeedsConfirmation
	m.Validation = confirmation.StatePending
}

func (p *Processor) setValidation(m *match.Match, from, to confirmation.State, dryRun bool) {
	if dryRun {
		log.Info("[Dry Run] Would update validation state", "matchID", m.ID, "from", from, "to", to)
		m.Validation = to
		return
	}

	if err := p.store.SetValidationState(m.ID, from, to); err != nil {
		log.Error("Failed to update validation state", "error", err, "matchID", m.ID, "from", from, "to", to)
		return
	}
	log.Debug("Successfully updated validation state", "matchID", m.ID, "from", from, "to", to)
	m.Validation = to
}

// completionTime is the reference instant for the confirmation timeout: the
// end time when recorded, otherwise the start.
func (p *Processor) completionTime(m *match.Match) time.Time {
	if m.End != nil {
		return *m.End
	}
	return m.Start
}
