package slack

import (
	"fmt"
	"strings"
	"time"

	"github.com/qwerty-development/padel-scoring/internal/club"
	"github.com/qwerty-development/padel-scoring/internal/match"
	"github.com/qwerty-development/padel-scoring/internal/rating"
	"github.com/slack-go/slack"
)

// formatStartTime renders a match start time in the club's local timezone.
func formatStartTime(start time.Time) string {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err == nil {
		return start.In(loc).Format("Monday 02 Jan, 15:04")
	}
	return start.Format("Monday 02 Jan, 15:04")
}

// playerNames maps player IDs to display names, falling back to the raw ID
// for players we have no record of.
func playerNames(players []club.PlayerInfo) map[string]string {
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return names
}

func nameOrID(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id
}

func teamLabel(names map[string]string, ids []string) string {
	var parts []string
	for _, id := range ids {
		if id != "" {
			parts = append(parts, nameOrID(names, id))
		}
	}
	if len(parts) == 0 {
		return "Open team"
	}
	return strings.Join(parts, " & ")
}

// formatMatchCreated creates the Slack message for a newly scheduled match using Block Kit.
func (s *Notifier) formatMatchCreated(m *match.Match, players []club.PlayerInfo) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header - The Header block itself provides bolding. No asterisks needed.
	headerText := slack.NewTextBlockObject("plain_text", "🎾 New match scheduled! 🎾", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	// Details
	detailsText := fmt.Sprintf("Time: %s", formatStartTime(m.Start))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	// Players
	names := playerNames(players)
	var lines []string
	for _, id := range m.Participants() {
		lines = append(lines, fmt.Sprintf("• %s", nameOrID(names, id)))
	}
	if len(lines) > 0 {
		playersText := "Players:\n" + strings.Join(lines, "\n")
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", playersText, true, false), nil, nil))
	}

	// Context
	if open := m.OpenSlots(); open > 0 {
		openText := fmt.Sprintf("🙋 %d spot(s) still open, join in!", open)
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", openText, true, false)))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatResultNotification creates the Slack message for a confirmed match result using Block Kit.
func (s *Notifier) formatResultNotification(m *match.Match, state match.MatchState, players []club.PlayerInfo, adj *rating.Adjustment) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header
	headerText := slack.NewTextBlockObject("plain_text", "🎾 Match finished! 🎾", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	// Details
	detailsText := formatStartTime(m.Start)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, false, false), nil, nil))

	names := playerNames(players)
	team1 := teamLabel(names, []string{m.Players[0], m.Players[1]})
	team2 := teamLabel(names, []string{m.Players[2], m.Players[3]})

	// Result
	resultHeaderText := "Result:"
	switch state.Winner {
	case 1:
		resultHeaderText = fmt.Sprintf("Result: %s won! 🏆", team1)
	case 2:
		resultHeaderText = fmt.Sprintf("Result: %s won! 🏆", team2)
	}

	if len(m.Sets) > 0 {
		var resultsFields []*slack.TextBlockObject
		for i, set := range m.Sets {
			setText := fmt.Sprintf("Set %d\n• %s: %d\n• %s: %d", i+1, team1, set.Team1, team2, set.Team2)
			resultsFields = append(resultsFields, slack.NewTextBlockObject("plain_text", setText, true, false))
		}
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", resultHeaderText, true, false), resultsFields, nil))
	} else {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "Result: No scores reported.", true, false), nil, nil))
	}

	// Rating changes
	if adj != nil && adj.Winner != 0 {
		var lines []string
		for _, delta := range adj.Players {
			sign := "+"
			if delta.Change < 0 {
				sign = ""
			}
			lines = append(lines, fmt.Sprintf("• %s: %.0f -> %.0f (%s%.0f)", nameOrID(names, delta.PlayerID), delta.Before, delta.After, sign, delta.Change))
		}
		ratingsText := "Rating changes:\n" + strings.Join(lines, "\n")
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", ratingsText, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatDisputeNotification creates the Slack message for a rejected result.
func (s *Notifier) formatDisputeNotification(m *match.Match, rejectedBy string) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "⚠️ Match result disputed", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("The result for the match on %s was rejected and needs a manual review.", formatStartTime(m.Start))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	contextText := fmt.Sprintf("Rejected by %s • Match ID: %s", rejectedBy, m.ID)
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", contextText, true, false)))

	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard creates a Slack message to display the rating leaderboard.
func (s *Notifier) formatLeaderboard(players []club.PlayerInfo) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header
	headerText := slack.NewTextBlockObject("plain_text", "🏆 Rating Leaderboard 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(players) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No players found. Go play some matches!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	// Player Ranks
	for i, player := range players {
		rank := i + 1
		var medal string
		switch rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}

		playerText := fmt.Sprintf("%d. %s %s\n> *Rating*: %.0f",
			rank,
			medal,
			player.Name,
			player.Rating,
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", playerText, false, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}
