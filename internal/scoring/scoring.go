// Package scoring grades a set of submitted answers against a quiz
// definition. Everything here is a pure function: identical inputs always
// produce identical output, and nothing is read from or written to storage.
package scoring

import (
	"strings"

	"github.com/coursekit/quiz-engine/internal/models"
)

// Result is the aggregate outcome of grading one attempt.
type Result struct {
	EarnedPoints int     `json:"earned_points"`
	TotalPoints  int     `json:"total_points"`
	Percentage   float64 `json:"percentage"`
	Passed       bool    `json:"passed"`
}

// Score grades answers against quiz and derives the pass/fail outcome.
// Unanswered questions contribute zero. A percentage exactly at the passing
// threshold passes.
//
// Precondition: quiz.TotalPoints > 0 (guaranteed by the definition invariant
// that question points sum to the declared total). A zero-total quiz grades
// to an empty failing result rather than dividing by zero.
func Score(quiz *models.Quiz, answers models.AnswerMap) Result {
	if quiz.TotalPoints <= 0 {
		return Result{TotalPoints: quiz.TotalPoints}
	}

	earned := 0
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		value, ok := answers[q.ID]
		if !ok {
			continue
		}
		if GradeQuestion(q, value) {
			earned += q.Points
		}
	}

	percentage := 100 * float64(earned) / float64(quiz.TotalPoints)
	return Result{
		EarnedPoints: earned,
		TotalPoints:  quiz.TotalPoints,
		Percentage:   percentage,
		Passed:       percentage >= float64(quiz.PassingScorePercent),
	}
}

// GradeQuestion applies the per-kind grading rule to a single answer and
// reports whether it earns full credit. There is no partial credit.
func GradeQuestion(q *models.Question, value models.AnswerValue) bool {
	switch q.Kind {
	case models.MultipleChoice:
		if value.Kind != models.MultipleChoice {
			return false
		}
		correct, err := q.CorrectOptionIndex()
		if err != nil {
			return false
		}
		return value.Index == correct
	case models.TrueFalse:
		return value.Text == q.CorrectAnswer
	case models.ShortAnswer:
		return MatchShortAnswer(value.Text, q.CorrectAnswer)
	default:
		return false
	}
}

// MatchShortAnswer is the lenient free-text rule: case-insensitive, full
// credit if either string contains the other. This is an intentional
// heuristic: exact-match grading would silently change pass rates. Known weakness: a very short reference answer matches almost any
// submission. Empty or whitespace-only submissions always score zero, since
// every string contains "".
func MatchShortAnswer(submitted, reference string) bool {
	sub := strings.ToLower(strings.TrimSpace(submitted))
	ref := strings.ToLower(strings.TrimSpace(reference))
	if sub == "" || ref == "" {
		return false
	}
	return strings.Contains(sub, ref) || strings.Contains(ref, sub)
}
