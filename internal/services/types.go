package services

import "time"

// AttemptSummary is one row in a user's attempt history for a quiz.
type AttemptSummary struct {
	AttemptID        string    `json:"attempt_id"`
	AttemptNumber    int       `json:"attempt_number"`
	StartTime        time.Time `json:"start_time"`
	Score            int       `json:"score"`
	TotalPoints      int       `json:"total_points"`
	Percentage       float64   `json:"percentage"`
	Passed           bool      `json:"passed"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	AutoSubmitted    bool      `json:"auto_submitted"`
}
