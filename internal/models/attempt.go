package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Attempt is one student's pass through a quiz. Everything except the
// identity fields and StartTime is write-once at submission; a saved attempt
// is permanent history and is never updated or deleted.
type Attempt struct {
	ID            string `json:"id" gorm:"primaryKey;size:64"`
	QuizID        string `json:"quiz_id" gorm:"not null;index:idx_attempts_quiz_user;size:64"`
	UserID        string `json:"user_id" gorm:"not null;index:idx_attempts_quiz_user;size:255"`
	AttemptNumber int    `json:"attempt_number" gorm:"not null"`

	StartTime time.Time  `json:"start_time" gorm:"not null"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Answers is the question-id → value map, stored as JSONB.
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	Score            int  `json:"score" gorm:"not null;default:0"`
	Passed           bool `json:"passed" gorm:"not null;default:false"`
	TimeSpentSeconds int  `json:"time_spent_seconds" gorm:"not null;default:0"`
	AutoSubmitted    bool `json:"auto_submitted" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
}

func (Attempt) TableName() string {
	return "quiz_attempts"
}

// AnswerValues decodes the persisted answers map.
func (a *Attempt) AnswerValues() (AnswerMap, error) {
	if len(a.Answers) == 0 {
		return AnswerMap{}, nil
	}
	var m AnswerMap
	if err := json.Unmarshal(a.Answers, &m); err != nil {
		return nil, fmt.Errorf("attempt %s has malformed answers: %w", a.ID, err)
	}
	return m, nil
}

// SetAnswers encodes the answers map for persistence.
func (a *Attempt) SetAnswers(m AnswerMap) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	a.Answers = data
	return nil
}
