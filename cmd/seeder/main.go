package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := make(map[string]string)
	required := []string{"TURSO_PRIMARY_URL", "TURSO_AUTH_TOKEN"}

	for _, key := range required {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		} else {
			log.Fatalf("Error: Required environment variable %s is not set.", key)
		}
	}
	return config
}

type seedSet struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// plausibleSets returns a finished two or three set score line. Team 1 wins
// roughly half the time.
func plausibleSets() (sets []seedSet, winner int) {
	winner = 1 + rand.Intn(2)
	loserGames := func() int { return rand.Intn(5) }

	win := seedSet{Team1: 6, Team2: loserGames()}
	lose := seedSet{Team1: loserGames(), Team2: 6}
	if winner == 2 {
		win, lose = lose, win
	}

	if rand.Intn(3) == 0 {
		// Three setter: the loser takes the middle set.
		sets = []seedSet{win, lose, win}
	} else {
		sets = []seedSet{win, win}
	}
	return sets, winner
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	// Connect directly to the primary database
	dbURL := fmt.Sprintf("%s?authToken=%s", cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	db, err := sql.Open("libsql", dbURL)
	if err != nil {
		log.Fatalf("Failed to open primary database: %s", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to primary database: %s", err)
	}

	log.Info("Successfully connected to the primary database.")

	// Create 4 dummy players to use in matches
	playerIDs := []string{"player-1", "player-2", "player-3", "player-4"}
	playerNames := []string{"Seeder Player A", "Seeder Player B", "Seeder Player C", "Seeder Player D"}

	for i, id := range playerIDs {
		_, err := db.Exec("INSERT OR IGNORE INTO players (id, name, rating, deviation, volatility) VALUES (?, ?, ?, ?, ?)",
			id, playerNames[i], 1000.0, 350.0, 0.06)
		if err != nil {
			log.Fatalf("Failed to insert dummy player %s: %s", playerNames[i], err)
		}
	}
	log.Info("Ensured dummy players exist.")

	const batchSize = 100 // Insert 100 matches at a time
	const numMatches = 10000

	log.Info("Preparing to insert dummy matches...", "total", numMatches, "batch_size", batchSize)
	startTime := time.Now()

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("Failed to begin transaction: %s", err)
	}

	valueStrings := make([]string, 0, batchSize)
	valueArgs := make([]interface{}, 0, batchSize*15) // 15 columns per match

	for i := 0; i < numMatches; i++ {
		matchTime := time.Now().Add(-time.Duration(rand.Intn(365*24)) * time.Hour)
		sets, winner := plausibleSets()
		setsJSON, _ := json.Marshal(sets)

		valueStrings = append(valueStrings, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		valueArgs = append(valueArgs,
			uuid.NewString(),
			playerIDs[0],
			playerIDs[1],
			playerIDs[2],
			playerIDs[3],
			matchTime.Unix(),
			matchTime.Add(90*time.Minute).Unix(),
			matchTime.Add(-24*time.Hour).Unix(),
			"COMPLETED",
			"PUBLIC",
			"CONFIRMED",
			winner,
			1, // all_confirmed
			1, // rating_applied
			string(setsJSON),
		)

		if (i+1)%batchSize == 0 || (i+1) == numMatches {
			stmt := fmt.Sprintf(`
				INSERT INTO matches (id, player1, player2, player3, player4, start_time, end_time,
					created_at, status, visibility, validation_state, winner_team, all_confirmed,
					rating_applied, sets_json)
				VALUES %s;`, strings.Join(valueStrings, ","))

			_, err := tx.Exec(stmt, valueArgs...)
			if err != nil {
				tx.Rollback()
				log.Fatalf("Failed to execute batch insert: %s", err)
			}

			// Reset for the next batch
			valueStrings = make([]string, 0, batchSize)
			valueArgs = make([]interface{}, 0, batchSize*15)
			log.Info("Inserted batch", "completed", i+1, "total", numMatches)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %s", err)
	}

	duration := time.Since(startTime)
	log.Info("Successfully inserted all dummy matches.", "duration", duration)
}
