package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies one attempt lifecycle event.
type EventType string

const (
	// EventAttemptCompleted fires after a manual submission is saved.
	EventAttemptCompleted EventType = "attempt.completed"

	// EventAttemptAutoSubmitted fires when the countdown expired and the
	// engine submitted on the student's behalf.
	EventAttemptAutoSubmitted EventType = "attempt.auto_submitted"
)

// AttemptEvent is the envelope published to collaborators. The Data payload
// carries the passed signal certificate and progress systems consume.
type AttemptEvent struct {
	ID        string           `json:"id"`
	Type      EventType        `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Source    string           `json:"source"`
	Version   string           `json:"version"`
	Data      AttemptCompleted `json:"data"`
}

// AttemptCompleted is the payload for both completion event types.
type AttemptCompleted struct {
	AttemptID        string  `json:"attempt_id"`
	QuizID           string  `json:"quiz_id"`
	CourseID         string  `json:"course_id"`
	UserID           string  `json:"user_id"`
	AttemptNumber    int     `json:"attempt_number"`
	Score            int     `json:"score"`
	TotalPoints      int     `json:"total_points"`
	Percentage       float64 `json:"percentage"`
	Passed           bool    `json:"passed"`
	TimeSpentSeconds int     `json:"time_spent_seconds"`
	Saved            bool    `json:"saved"`
}

// NewAttemptEvent wraps a payload in the event envelope.
func NewAttemptEvent(eventType EventType, data AttemptCompleted) *AttemptEvent {
	return &AttemptEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "quiz-engine",
		Version:   "1.0",
		Data:      data,
	}
}
