// Package loadtest drives a running ranking service with synthetic
// submissions and verifies the aggregates the service reports against a
// local recomputation of the same formulas.
package loadtest

import "time"

// Config holds configuration for one load test run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Players     int           // Number of synthetic players to register
	Submissions int           // Total number of score submissions
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	TopN        int           // Leaderboard page size to fetch at the end
	Verbose     bool          // Enable verbose logging
}

// Stats holds counters for one run.
type Stats struct {
	PlayersRegistered    int
	SubmissionsAttempted int
	SubmissionsAccepted  int64
	SubmissionsFailed    int64
	PlayersVerified      int
	PlayersMismatched    int
	StartTime            time.Time
	Duration             time.Duration
}

// Wire shapes, mirroring the API schemas.

type resultRequest struct {
	PlayerID        string  `json:"player_id"`
	GameType        string  `json:"game_type"`
	Score           float64 `json:"score"`
	Level           int     `json:"level"`
	DurationSeconds float64 `json:"duration_seconds"`
	CorrectAnswers  int     `json:"correct_answers"`
	TotalQuestions  int     `json:"total_questions"`
}

type registerRequest struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

type playerStatsResponse struct {
	PlayerID       string  `json:"player_id"`
	TotalScore     float64 `json:"total_score"`
	GamesPlayed    int64   `json:"games_played"`
	AverageScore   float64 `json:"average_score"`
	Level          int     `json:"level"`
	CompositeScore int     `json:"composite_score"`
	Rank           int     `json:"rank"`
}

type leaderboardResponse struct {
	Entries []struct {
		Rank           int    `json:"rank"`
		PlayerID       string `json:"player_id"`
		CompositeScore int    `json:"composite_score"`
	} `json:"entries"`
}
