package club

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/qwerty-development/padel-scoring/internal/confirmation"
	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/rating"
	"github.com/qwerty-development/padel-scoring/internal/scoring"
)

// New creates a new ClubStore.
func New(db *sql.DB) ClubStore {
	return &store{
		db: db,
	}
}

const matchColumns = `id, player1, player2, player3, player4, start_time, end_time, created_at, status, visibility, validation_state, winner_team, all_confirmed, rating_applied, sets_json`

// CreateMatch inserts a new match. The creator occupies slot 1; remaining
// slots may be open.
func (s *store) CreateMatch(m *match.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.CreatorID() == "" {
		return fmt.Errorf("match %s has no creator in slot 1", m.ID)
	}
	return s.insertMatch(m, false)
}

// UpsertMatch inserts a new match or updates an existing one. It is "dumb"
// and does not touch the lifecycle columns of an existing row; transitions
// go through the conditional updates below.
func (s *store) UpsertMatch(m *match.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertMatch(m, true)
}

func (s *store) insertMatch(m *match.Match, upsert bool) error {
	setsJSON, err := json.Marshal(m.Sets)
	if err != nil {
		return err
	}

	status := m.Status
	if status == "" {
		status = match.StatusPending
	}
	visibility := m.Visibility
	if visibility == "" {
		visibility = match.VisibilityPrivate
	}
	validation := m.Validation
	if validation == "" {
		validation = confirmation.StateNone
	}
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if upsert {
		// ON CONFLICT, update the roster and schedule but never the
		// lifecycle columns.
		query += `
		ON CONFLICT(id) DO UPDATE SET
			player1 = excluded.player1,
			player2 = excluded.player2,
			player3 = excluded.player3,
			player4 = excluded.player4,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			visibility = excluded.visibility`
	}

	_, err = s.db.Exec(query,
		m.ID, m.Players[0], m.Players[1], m.Players[2], m.Players[3],
		m.Start.Unix(), nullableUnix(m.End), createdAt.Unix(),
		status, visibility, validation, m.WinnerTeam,
		boolToInt(m.AllConfirmed), boolToInt(m.RatingApplied), string(setsJSON),
	)
	return err
}

func (s *store) GetMatch(matchID string) (*match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+matchColumns+` FROM matches WHERE id = ?`, matchID)
	m, err := s.scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

func (s *store) GetAllMatches() ([]*match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryMatches(`SELECT ` + matchColumns + ` FROM matches ORDER BY start_time DESC`)
}

// GetMatchesForProcessing retrieves all matches that have not reached a
// terminal status.
func (s *store) GetMatchesForProcessing() ([]*match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryMatches(
		`SELECT `+matchColumns+` FROM matches WHERE status IN (?, ?) ORDER BY start_time`,
		match.StatusPending, match.StatusNeedsConfirmation,
	)
}

func (s *store) queryMatches(query string, args ...any) ([]*match.Match, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*match.Match
	for rows.Next() {
		m, err := s.scanMatch(rows)
		if err != nil {
			log.Error("Failed to scan match row", "error", err)
			continue
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// scanMatch is a helper function to scan a single match row. The raw status
// and validation strings cross the typed boundary here, exactly once.
func (s *store) scanMatch(scanner interface{ Scan(...any) error }) (*match.Match, error) {
	var m match.Match
	var start, created int64
	var end sql.NullInt64
	var rawStatus, rawValidation string
	var allConfirmed, ratingApplied int
	var setsJSON sql.NullString

	err := scanner.Scan(
		&m.ID, &m.Players[0], &m.Players[1], &m.Players[2], &m.Players[3],
		&start, &end, &created, &rawStatus, &m.Visibility, &rawValidation,
		&m.WinnerTeam, &allConfirmed, &ratingApplied, &setsJSON,
	)
	if err != nil {
		return nil, err
	}

	m.Status, err = match.ParseStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", m.ID, err)
	}
	m.Validation = confirmation.ParseState(rawValidation)

	m.Start = time.Unix(start, 0).UTC()
	m.CreatedAt = time.Unix(created, 0).UTC()
	if end.Valid {
		t := time.Unix(end.Int64, 0).UTC()
		m.End = &t
	}
	m.AllConfirmed = allConfirmed != 0
	m.RatingApplied = ratingApplied != 0

	if setsJSON.Valid && setsJSON.String != "" {
		m.Sets = decodeSets(m.ID, setsJSON.String)
	}

	return &m, nil
}

// decodeSets materializes only complete score pairs, in order. A half
// entered pair ends the sequence: set N+1 cannot be present without set N.
func decodeSets(matchID, raw string) []scoring.SetScore {
	var stored []dbSet
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Error("Failed to unmarshal sets_json", "error", err, "matchID", matchID)
		return nil
	}
	var sets []scoring.SetScore
	for _, set := range stored {
		if set.Team1 == nil || set.Team2 == nil {
			break
		}
		sets = append(sets, scoring.SetScore{Team1: *set.Team1, Team2: *set.Team2})
	}
	return sets
}

// JoinMatch fills the first open slot with the player. The conditions live
// in the statement itself so two racing joiners cannot take the same slot:
// the row must still be pending, have an open slot, and not already contain
// the player.
func (s *store) JoinMatch(matchID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if playerID == "" {
		return fmt.Errorf("empty player id")
	}

	// The CASE expressions see the pre-update row, so exactly one slot
	// changes per statement.
	res, err := s.db.Exec(`
		UPDATE matches SET
			player2 = CASE WHEN player2 = '' THEN ? ELSE player2 END,
			player3 = CASE WHEN player2 != '' AND player3 = '' THEN ? ELSE player3 END,
			player4 = CASE WHEN player2 != '' AND player3 != '' AND player4 = '' THEN ? ELSE player4 END
		WHERE id = ? AND status = ?
			AND (player2 = '' OR player3 = '' OR player4 = '')
			AND player1 != ? AND player2 != ? AND player3 != ? AND player4 != ?
	`, playerID, playerID, playerID, matchID, match.StatusPending,
		playerID, playerID, playerID, playerID)
	if err != nil {
		return err
	}
	return s.requireOneRow(res, matchID, "join")
}

// SubmitScores validates the sets and moves the match from Pending to
// NeedsConfirmation, entering the pending validation state. The stored
// winner is set from the tally at the same instant, so the two can only
// diverge through out-of-band writes.
func (s *store) SubmitScores(matchID string, sets []scoring.SetScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	agg := scoring.AggregateSets(sets)
	switch {
	case len(sets) == 0:
		return fmt.Errorf("%w: no sets submitted", ErrInvalidScores)
	case !agg.IsValid:
		return fmt.Errorf("%w: %s", ErrInvalidScores, agg.Errors[0].Error())
	case agg.NeedsThirdSet:
		return fmt.Errorf("%w: sets are split 1-1, a third set is required", ErrInvalidScores)
	case agg.Winner == 0:
		return fmt.Errorf("%w: submitted sets decide no winner", ErrInvalidScores)
	}

	setsJSON, err := json.Marshal(sets)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		UPDATE matches SET sets_json = ?, winner_team = ?, status = ?, validation_state = ?
		WHERE id = ? AND status = ? AND validation_state = ?
	`, string(setsJSON), agg.Winner, match.StatusNeedsConfirmation, confirmation.StatePending,
		matchID, match.StatusPending, confirmation.StateNone)
	if err != nil {
		return err
	}
	return s.requireOneRow(res, matchID, "submit scores")
}

// CancelMatch moves a pending or unconfirmed match to Cancelled.
func (s *store) CancelMatch(matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE matches SET status = ? WHERE id = ? AND status IN (?, ?)
	`, match.StatusCancelled, matchID, match.StatusPending, match.StatusNeedsConfirmation)
	if err != nil {
		return err
	}
	return s.requireOneRow(res, matchID, "cancel")
}

// SetValidationState transitions the confirmation state, conditional on the
// expected prior state.
func (s *store) SetValidationState(matchID string, from, to confirmation.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE matches SET validation_state = ? WHERE id = ? AND validation_state = ?
	`, to, matchID, from)
	if err != nil {
		return err
	}
	return s.requireOneRow(res, matchID, "set validation state")
}

// RecordVote stores a participant's vote. The primary key on
// (match_id, player_id) enforces vote-once.
func (s *store) RecordVote(matchID, playerID string, approved bool, votedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		INSERT OR IGNORE INTO confirmation_votes (match_id, player_id, approved, voted_at)
		VALUES (?, ?, ?, ?)
	`, matchID, playerID, boolToInt(approved), votedAt.Unix())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return confirmation.ErrAlreadyVoted
	}
	return nil
}

func (s *store) GetVotes(matchID string) ([]confirmation.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT player_id, approved, voted_at FROM confirmation_votes
		WHERE match_id = ? ORDER BY voted_at
	`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []confirmation.Vote
	for rows.Next() {
		var v confirmation.Vote
		var approved int
		var votedAt int64
		if err := rows.Scan(&v.PlayerID, &approved, &votedAt); err != nil {
			return nil, err
		}
		v.Approved = approved != 0
		v.VotedAt = time.Unix(votedAt, 0).UTC()
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// ApplyRatings applies a confirmed adjustment in one transaction. The
// rating_applied flag is the idempotency guard: the first statement flips
// it 0 to 1 and everything else only happens when that row was still
// unapplied. A second call returns ErrStateConflict and changes nothing.
func (s *store) ApplyRatings(matchID string, adj rating.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	res, err := tx.Exec(`
		UPDATE matches SET rating_applied = 1, all_confirmed = 1, status = ?, validation_state = ?
		WHERE id = ? AND rating_applied = 0
	`, match.StatusCompleted, confirmation.StateConfirmed, matchID)
	if err != nil {
		tx.Rollback()
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if n == 0 {
		tx.Rollback()
		return fmt.Errorf("%w: ratings already applied for match %s", ErrStateConflict, matchID)
	}

	now := time.Now().UTC().Unix()
	for _, p := range adj.Players {
		if _, err := tx.Exec(`UPDATE players SET rating = ? WHERE id = ?`, p.After, p.PlayerID); err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO rating_history (match_id, player_id, rating_before, rating_after, rating_change, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, matchID, p.PlayerID, p.Before, p.After, p.Change, now); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (s *store) GetRatingHistory(playerID string) ([]RatingHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT match_id, player_id, rating_before, rating_after, rating_change, created_at
		FROM rating_history WHERE player_id = ? ORDER BY created_at DESC, id DESC
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []RatingHistoryEntry
	for rows.Next() {
		var e RatingHistoryEntry
		var created int64
		if err := rows.Scan(&e.MatchID, &e.PlayerID, &e.Before, &e.After, &e.Change, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *store) AddPlayer(playerID, name string, ratingValue float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO players (id, name, rating) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, playerID, name, ratingValue)
	if err != nil {
		log.Error("Failed to add player", "error", err, "playerID", playerID)
	} else {
		log.Debug("Upserted player", "playerID", playerID, "name", name)
	}
}

func (s *store) UpsertPlayers(players []PlayerInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO players (id, name, rating, deviation, volatility)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range players {
		rating := p.Rating
		if rating == 0 {
			rating = 1000
		}
		deviation := p.Deviation
		if deviation == 0 {
			deviation = 350
		}
		volatility := p.Volatility
		if volatility == 0 {
			volatility = 0.06
		}
		if _, err := stmt.Exec(p.ID, p.Name, rating, deviation, volatility); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *store) IsKnownPlayer(playerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM players WHERE id = ?)", playerID).Scan(&exists)
	if err != nil {
		log.Error("Failed to check if player exists", "error", err, "playerID", playerID)
		return false
	}
	return exists
}

func (s *store) GetPlayers(playerIDs []string) ([]PlayerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(playerIDs) == 0 {
		return []PlayerInfo{}, nil
	}

	query := `SELECT id, name, rating, deviation, volatility FROM players WHERE id IN (?` +
		strings.Repeat(",?", len(playerIDs)-1) + `)`
	rows, err := s.db.Query(query, toAnySlice(playerIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlayers(rows)
}

func (s *store) GetAllPlayers() ([]PlayerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, name, rating, deviation, volatility FROM players ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlayers(rows)
}

// GetLeaderboard retrieves all players ordered by rating.
func (s *store) GetLeaderboard() ([]PlayerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, name, rating, deviation, volatility FROM players ORDER BY rating DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlayers(rows)
}

func scanPlayers(rows *sql.Rows) ([]PlayerInfo, error) {
	players := []PlayerInfo{}
	for rows.Next() {
		var p PlayerInfo
		var name sql.NullString
		if err := rows.Scan(&p.ID, &name, &p.Rating, &p.Deviation, &p.Volatility); err != nil {
			log.Error("Failed to scan player row", "error", err)
			continue
		}
		p.Name = name.String
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		log.Error("Failed to begin transaction for clearing store", "error", err)
		return
	}
	for _, table := range []string{"rating_history", "confirmation_votes", "matches", "players"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			log.Error("Failed to clear table", "error", err, "table", table)
			tx.Rollback()
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Error("Failed to commit transaction for clearing store", "error", err)
	}
}

func (s *store) ClearMatch(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM matches WHERE id = ?", matchID)
	if err != nil {
		log.Error("Failed to clear match", "error", err, "matchID", matchID)
	}
}

// requireOneRow maps a zero-row conditional update to the right sentinel:
// ErrNotFound when the match does not exist at all, ErrStateConflict when it
// does but was not in the expected prior state.
func (s *store) requireOneRow(res sql.Result, matchID, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM matches WHERE id = ?)", matchID).Scan(&exists); err == nil && !exists {
			return fmt.Errorf("%w: match %s", ErrNotFound, matchID)
		}
		return fmt.Errorf("%w: %s rejected for match %s", ErrStateConflict, op, matchID)
	}
	return nil
}

func nullableUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toAnySlice(s []string) []any {
	a := make([]any, len(s))
	for i, v := range s {
		a[i] = v
	}
	return a
}
