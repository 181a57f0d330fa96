package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func integrityQuiz() *Quiz {
	return &Quiz{
		ID:          "quiz-1",
		TotalPoints: 20,
		Questions: []Question{
			{ID: "q1", Kind: MultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: "1", Points: 10},
			{ID: "q2", Kind: TrueFalse, CorrectAnswer: "false", Points: 10},
		},
	}
}

func TestCheckIntegrity(t *testing.T) {
	t.Run("valid definition", func(t *testing.T) {
		assert.NoError(t, integrityQuiz().CheckIntegrity())
	})

	t.Run("no questions", func(t *testing.T) {
		quiz := integrityQuiz()
		quiz.Questions = nil
		assert.Error(t, quiz.CheckIntegrity())
	})

	t.Run("points do not sum to total", func(t *testing.T) {
		quiz := integrityQuiz()
		quiz.TotalPoints = 50
		assert.Error(t, quiz.CheckIntegrity())
	})

	t.Run("non-positive question points", func(t *testing.T) {
		quiz := integrityQuiz()
		quiz.Questions[0].Points = 0
		assert.Error(t, quiz.CheckIntegrity())
	})

	t.Run("multiple choice with one option", func(t *testing.T) {
		quiz := integrityQuiz()
		quiz.Questions[0].Options = []string{"a"}
		assert.Error(t, quiz.CheckIntegrity())
	})

	t.Run("correct index out of range", func(t *testing.T) {
		quiz := integrityQuiz()
		quiz.Questions[0].CorrectAnswer = "5"
		assert.Error(t, quiz.CheckIntegrity())
	})

	t.Run("true/false with a non-boolean answer", func(t *testing.T) {
		quiz := integrityQuiz()
		quiz.Questions[1].CorrectAnswer = "maybe"
		assert.Error(t, quiz.CheckIntegrity())
	})
}

func TestQuestionByID(t *testing.T) {
	quiz := integrityQuiz()
	q := quiz.QuestionByID("q2")
	require.NotNil(t, q)
	assert.Equal(t, TrueFalse, q.Kind)
	assert.Nil(t, quiz.QuestionByID("missing"))
}

func TestCorrectOptionIndex(t *testing.T) {
	q := &Question{ID: "q1", Kind: MultipleChoice, Options: []string{"a", "b", "c"}, CorrectAnswer: "2"}
	idx, err := q.CorrectOptionIndex()
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	q.CorrectAnswer = "x"
	_, err = q.CorrectOptionIndex()
	assert.Error(t, err)

	tf := &Question{ID: "q2", Kind: TrueFalse, CorrectAnswer: "true"}
	_, err = tf.CorrectOptionIndex()
	assert.Error(t, err)
}

func TestDurationSeconds(t *testing.T) {
	quiz := &Quiz{DurationMinutes: 15}
	assert.Equal(t, 900, quiz.DurationSeconds())
}
