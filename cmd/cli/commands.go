package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	matchID  string
	playerID string
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(announceCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(metricsCmd)

	resolveCmd.Flags().StringVar(&matchID, "match", "", "The match ID to resolve")
	resolveCmd.Flags().StringVar(&playerID, "viewer", "", "The viewing player ID")
	resolveCmd.MarkFlagRequired("match")

	for _, cmd := range []*cobra.Command{confirmCmd, rejectCmd} {
		cmd.Flags().StringVar(&matchID, "match", "", "The match ID to vote on")
		cmd.Flags().StringVar(&playerID, "player", "", "The voting player ID")
		cmd.MarkFlagRequired("match")
		cmd.MarkFlagRequired("player")
	}
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the players in the club store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/members")
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List all matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/matches")
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the derived state of a match for a viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := url.Values{}
		query.Set("match_id", matchID)
		if playerID != "" {
			query.Set("viewer", playerID)
		}
		return performGetRequest("/matches/resolve?" + query.Encode())
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the rating leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/leaderboard")
	},
}

var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Post the leaderboard to the club's Slack channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/leaderboard/announce", nil)
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Trigger a processing run over all open matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/process", nil)
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Approve the submitted result of a match",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/matches/confirm", map[string]string{"match_id": matchID, "player_id": playerID})
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject",
	Short: "Reject the submitted result of a match",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/matches/reject", map[string]string{"match_id": matchID, "player_id": playerID})
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func performPostRequest(endpoint string, body any) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	resp, err := http.Post(url, "application/json", reader)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
