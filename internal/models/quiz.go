package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type QuestionKind string

const (
	MultipleChoice QuestionKind = "multiple_choice"
	TrueFalse      QuestionKind = "true_false"
	ShortAnswer    QuestionKind = "short_answer"
)

// Question is one assessable unit inside a quiz. CorrectAnswer holds the
// option index (as decimal digits) for multiple choice, the literal
// "true"/"false" for true/false, and the reference string for short answer.
type Question struct {
	ID     string       `json:"id" gorm:"primaryKey;size:64"`
	QuizID string       `json:"quiz_id" gorm:"not null;index;size:64"`
	Kind   QuestionKind `json:"kind" gorm:"not null;size:32" validate:"required,question_kind"`
	Prompt string       `json:"prompt" gorm:"type:text;not null" validate:"required"`

	// Options is present only for multiple_choice questions.
	Options datatypes.JSONSlice[string] `json:"options,omitempty" gorm:"type:jsonb"`

	CorrectAnswer string  `json:"correct_answer" gorm:"not null;size:500" validate:"required"`
	Points        int     `json:"points" gorm:"not null" validate:"required,min=1"`
	Explanation   *string `json:"explanation,omitempty" gorm:"type:text"`
	Position      int     `json:"position" gorm:"not null;default:0"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

// CorrectOptionIndex resolves CorrectAnswer for a multiple_choice question.
func (q *Question) CorrectOptionIndex() (int, error) {
	if q.Kind != MultipleChoice {
		return 0, fmt.Errorf("question %s is %s, not multiple_choice", q.ID, q.Kind)
	}
	var idx int
	if _, err := fmt.Sscanf(q.CorrectAnswer, "%d", &idx); err != nil {
		return 0, fmt.Errorf("question %s has non-numeric correct answer %q: %w", q.ID, q.CorrectAnswer, err)
	}
	if idx < 0 || idx >= len(q.Options) {
		return 0, fmt.Errorf("question %s correct answer index %d out of range", q.ID, idx)
	}
	return idx, nil
}

// Quiz is the immutable definition of a timed assessment. It is loaded once
// from the definition store and never mutated during an attempt.
type Quiz struct {
	ID          string  `json:"id" gorm:"primaryKey;size:64"`
	CourseID    string  `json:"course_id" gorm:"not null;index;size:64" validate:"required"`
	Title       string  `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string `json:"description,omitempty" gorm:"type:text" validate:"omitempty,max=1000"`

	DurationMinutes    int  `json:"duration_minutes" gorm:"not null" validate:"min=0,max=300"`
	TimeLimited        bool `json:"time_limited" gorm:"default:false"`
	TimeWarningSeconds int  `json:"time_warning_seconds" gorm:"default:60"` // low-time banner threshold

	TotalPoints         int `json:"total_points" gorm:"not null" validate:"required,min=1"`
	PassingScorePercent int `json:"passing_score_percent" gorm:"not null" validate:"min=0,max=100"`

	MaxAttempts        int  `json:"max_attempts" gorm:"default:1" validate:"min=1,max=10"`
	AllowRetake        bool `json:"allow_retake" gorm:"default:false"`
	ShowCorrectAnswers bool `json:"show_correct_answers" gorm:"default:true"`
	ShuffleQuestions   bool `json:"shuffle_questions" gorm:"default:false"`

	Questions []Question `json:"questions" gorm:"foreignKey:QuizID" validate:"required,min=1,dive"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuestionByID returns the question with the given id, or nil.
func (q *Quiz) QuestionByID(id string) *Question {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i]
		}
	}
	return nil
}

// CheckIntegrity verifies the definition invariants that grading relies on:
// at least one question, positive per-question points summing to TotalPoints,
// options present exactly for multiple_choice, and resolvable correct answers.
func (q *Quiz) CheckIntegrity() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("quiz %s has no questions", q.ID)
	}
	sum := 0
	for i := range q.Questions {
		question := &q.Questions[i]
		if question.Points <= 0 {
			return fmt.Errorf("question %s has non-positive points %d", question.ID, question.Points)
		}
		sum += question.Points
		switch question.Kind {
		case MultipleChoice:
			if len(question.Options) < 2 {
				return fmt.Errorf("question %s needs at least two options", question.ID)
			}
			if _, err := question.CorrectOptionIndex(); err != nil {
				return err
			}
		case TrueFalse:
			if question.CorrectAnswer != "true" && question.CorrectAnswer != "false" {
				return fmt.Errorf("question %s correct answer must be \"true\" or \"false\", got %q", question.ID, question.CorrectAnswer)
			}
		case ShortAnswer:
			if question.CorrectAnswer == "" {
				return fmt.Errorf("question %s has empty reference answer", question.ID)
			}
		default:
			return fmt.Errorf("question %s has unknown kind %q", question.ID, question.Kind)
		}
	}
	if sum != q.TotalPoints {
		return fmt.Errorf("quiz %s question points sum to %d, declared total is %d", q.ID, sum, q.TotalPoints)
	}
	return nil
}

// DurationSeconds is the countdown length for time-limited quizzes.
func (q *Quiz) DurationSeconds() int {
	return q.DurationMinutes * 60
}
