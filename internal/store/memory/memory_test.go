package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursekit/quiz-engine/internal/models"
	"github.com/coursekit/quiz-engine/internal/store"
)

func TestQuizStore(t *testing.T) {
	ctx := context.Background()
	s := NewQuizStore()

	_, err := s.GetQuiz(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	quiz := &models.Quiz{ID: "quiz-1", Title: "Stored"}
	require.NoError(t, s.PutQuiz(ctx, quiz))

	got, err := s.GetQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, "Stored", got.Title)
}

func attemptAt(id string, number int, start time.Time) *models.Attempt {
	return &models.Attempt{
		ID:            id,
		QuizID:        "quiz-1",
		UserID:        "user-1",
		AttemptNumber: number,
		StartTime:     start,
	}
}

func TestAttemptRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("save is append-only and counted", func(t *testing.T) {
		repo := NewAttemptRepository()

		used, err := repo.AttemptsUsed(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
		assert.Zero(t, used)

		require.NoError(t, repo.Save(ctx, attemptAt("a1", 1, base)))
		require.NoError(t, repo.Save(ctx, attemptAt("a2", 2, base.Add(time.Hour))))

		used, err = repo.AttemptsUsed(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
		assert.Equal(t, 2, used)
	})

	t.Run("duplicate ids are rejected", func(t *testing.T) {
		repo := NewAttemptRepository()
		require.NoError(t, repo.Save(ctx, attemptAt("a1", 1, base)))
		assert.ErrorIs(t, repo.Save(ctx, attemptAt("a1", 2, base)), store.ErrDuplicateAttempt)
	})

	t.Run("counts are per quiz and user", func(t *testing.T) {
		repo := NewAttemptRepository()
		require.NoError(t, repo.Save(ctx, attemptAt("a1", 1, base)))

		other := attemptAt("b1", 1, base)
		other.UserID = "user-2"
		require.NoError(t, repo.Save(ctx, other))

		used, err := repo.AttemptsUsed(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
		assert.Equal(t, 1, used)

		used, err = repo.AttemptsUsed(ctx, "user-2", "other-quiz")
		require.NoError(t, err)
		assert.Zero(t, used)
	})

	t.Run("latest attempt picks the newest start time", func(t *testing.T) {
		repo := NewAttemptRepository()
		require.NoError(t, repo.Save(ctx, attemptAt("a1", 1, base)))
		require.NoError(t, repo.Save(ctx, attemptAt("a2", 2, base.Add(2*time.Hour))))
		require.NoError(t, repo.Save(ctx, attemptAt("a3", 3, base.Add(time.Hour))))

		latest, err := repo.LatestAttempt(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
		assert.Equal(t, "a2", latest.ID)
	})

	t.Run("equal start times break ties on attempt number", func(t *testing.T) {
		repo := NewAttemptRepository()
		require.NoError(t, repo.Save(ctx, attemptAt("a1", 2, base)))
		require.NoError(t, repo.Save(ctx, attemptAt("a2", 3, base)))
		require.NoError(t, repo.Save(ctx, attemptAt("a3", 1, base)))

		latest, err := repo.LatestAttempt(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
		assert.Equal(t, "a2", latest.ID)
	})

	t.Run("latest attempt on empty history", func(t *testing.T) {
		repo := NewAttemptRepository()
		_, err := repo.LatestAttempt(ctx, "user-1", "quiz-1")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list returns newest first", func(t *testing.T) {
		repo := NewAttemptRepository()
		require.NoError(t, repo.Save(ctx, attemptAt("a1", 1, base)))
		require.NoError(t, repo.Save(ctx, attemptAt("a2", 2, base.Add(time.Hour))))
		require.NoError(t, repo.Save(ctx, attemptAt("a3", 3, base.Add(time.Hour))))

		attempts, err := repo.ListAttempts(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
		require.Len(t, attempts, 3)
		assert.Equal(t, "a3", attempts[0].ID)
		assert.Equal(t, "a2", attempts[1].ID)
		assert.Equal(t, "a1", attempts[2].ID)
	})

	t.Run("reads hand out copies", func(t *testing.T) {
		repo := NewAttemptRepository()
		require.NoError(t, repo.Save(ctx, attemptAt("a1", 1, base)))

		latest, err := repo.LatestAttempt(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
		latest.Score = 999

		again, err := repo.LatestAttempt(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
		assert.Zero(t, again.Score)
	})

	t.Run("FailSaves simulates an unavailable store", func(t *testing.T) {
		repo := NewAttemptRepository()
		repo.FailSaves = true
		assert.ErrorIs(t, repo.Save(ctx, attemptAt("a1", 1, base)), store.ErrStorageUnavailable)

		used, err := repo.AttemptsUsed(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
		assert.Zero(t, used)
	})
}
