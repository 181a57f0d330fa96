// Package review reconstructs a completed attempt for display. Correctness
// is re-derived by re-running the per-question grading rule against the quiz
// definition; attempts carry no cached per-question flags. Building a
// review twice always yields identical output.
package review

import (
	"fmt"

	"github.com/coursekit/quiz-engine/internal/models"
	"github.com/coursekit/quiz-engine/internal/scoring"
)

// QuestionReview is one question's row in the review screen.
type QuestionReview struct {
	QuestionID     string              `json:"question_id"`
	Kind           models.QuestionKind `json:"kind"`
	Prompt         string              `json:"prompt"`
	Answered       bool                `json:"answered"`
	SubmittedText  string              `json:"submitted_text,omitempty"`
	Correct        bool                `json:"correct"`
	PointsEarned   int                 `json:"points_earned"`
	PointsPossible int                 `json:"points_possible"`

	// Revealed only when the quiz's ShowCorrectAnswers flag is set.
	CorrectAnswerText string  `json:"correct_answer_text,omitempty"`
	Explanation       *string `json:"explanation,omitempty"`
}

// Summary is the aggregate outcome shown above the per-question rows.
type Summary struct {
	AttemptID        string  `json:"attempt_id"`
	AttemptNumber    int     `json:"attempt_number"`
	Score            int     `json:"score"`
	TotalPoints      int     `json:"total_points"`
	Percentage       float64 `json:"percentage"`
	Passed           bool    `json:"passed"`
	CorrectCount     int     `json:"correct_count"`
	QuestionCount    int     `json:"question_count"`
	TimeSpentSeconds int     `json:"time_spent_seconds"`
	TimeSpent        string  `json:"time_spent"` // minutes+seconds, e.g. "12m 05s"
	AutoSubmitted    bool    `json:"auto_submitted"`
}

// Review is the full reconstruction for one completed attempt.
type Review struct {
	Summary   Summary          `json:"summary"`
	Questions []QuestionReview `json:"questions"`
}

// Build reconstructs the review for (quiz, attempt). It performs no mutation
// and may be called repeatedly on the same attempt.
func Build(quiz *models.Quiz, attempt *models.Attempt) (*Review, error) {
	answers, err := attempt.AnswerValues()
	if err != nil {
		return nil, err
	}

	rows := make([]QuestionReview, 0, len(quiz.Questions))
	correctCount := 0
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		row := QuestionReview{
			QuestionID:     q.ID,
			Kind:           q.Kind,
			Prompt:         q.Prompt,
			PointsPossible: q.Points,
		}

		if value, ok := answers[q.ID]; ok {
			row.Answered = true
			row.SubmittedText = value.DisplayText(q)
			row.Correct = scoring.GradeQuestion(q, value)
		}
		if row.Correct {
			row.PointsEarned = q.Points
			correctCount++
		}

		if quiz.ShowCorrectAnswers {
			row.CorrectAnswerText = correctAnswerText(q)
			row.Explanation = q.Explanation
		}
		rows = append(rows, row)
	}

	result := scoring.Score(quiz, answers)
	return &Review{
		Summary: Summary{
			AttemptID:        attempt.ID,
			AttemptNumber:    attempt.AttemptNumber,
			Score:            result.EarnedPoints,
			TotalPoints:      result.TotalPoints,
			Percentage:       result.Percentage,
			Passed:           result.Passed,
			CorrectCount:     correctCount,
			QuestionCount:    len(quiz.Questions),
			TimeSpentSeconds: attempt.TimeSpentSeconds,
			TimeSpent:        FormatDuration(attempt.TimeSpentSeconds),
			AutoSubmitted:    attempt.AutoSubmitted,
		},
		Questions: rows,
	}, nil
}

func correctAnswerText(q *models.Question) string {
	switch q.Kind {
	case models.MultipleChoice:
		idx, err := q.CorrectOptionIndex()
		if err != nil {
			return ""
		}
		return q.Options[idx]
	case models.TrueFalse:
		if q.CorrectAnswer == "true" {
			return "True"
		}
		return "False"
	default:
		return q.CorrectAnswer
	}
}

// FormatDuration renders whole seconds as minutes+seconds ("12m 05s").
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dm %02ds", seconds/60, seconds%60)
}
