package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursekit/quiz-engine/internal/models"
	"github.com/coursekit/quiz-engine/internal/store"
	"github.com/coursekit/quiz-engine/internal/store/memory"
	"github.com/coursekit/quiz-engine/internal/utils"
)

// fakeClock hands out a fixed instant that tests advance manually.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func timedQuiz() *models.Quiz {
	return &models.Quiz{
		ID:                  "timed-quiz",
		CourseID:            "course-1",
		Title:               "One Minute Quiz",
		DurationMinutes:     1,
		TimeLimited:         true,
		TimeWarningSeconds:  10,
		TotalPoints:         20,
		PassingScorePercent: 50,
		MaxAttempts:         3,
		AllowRetake:         true,
		Questions: []models.Question{
			{ID: "q1", Kind: models.MultipleChoice, Prompt: "Pick b",
				Options: []string{"a", "b"}, CorrectAnswer: "1", Points: 10},
			{ID: "q2", Kind: models.TrueFalse, Prompt: "The sky is blue.",
				CorrectAnswer: "true", Points: 10},
		},
	}
}

func untimedQuiz() *models.Quiz {
	quiz := timedQuiz()
	quiz.ID = "untimed-quiz"
	quiz.TimeLimited = false
	quiz.DurationMinutes = 0
	return quiz
}

func newTestSession(t *testing.T, quiz *models.Quiz, repo store.AttemptRepository, clock Clock) *Session {
	t.Helper()
	sess, err := Start(context.Background(), quiz, "user-1", repo, utils.NewDevelopmentLogger(), WithClock(clock))
	require.NoError(t, err)
	return sess
}

func TestStart(t *testing.T) {
	ctx := context.Background()
	logger := utils.NewDevelopmentLogger()

	t.Run("opens at question zero with full countdown", func(t *testing.T) {
		repo := memory.NewAttemptRepository()
		sess := newTestSession(t, timedQuiz(), repo, &fakeClock{now: time.Now()})

		assert.Equal(t, InProgress, sess.State())
		assert.Equal(t, 1, sess.AttemptNumber())
		assert.Equal(t, 0, sess.CurrentIndex())
		assert.Equal(t, 60, sess.TimeRemaining())
		assert.Zero(t, sess.AnsweredCount())
	})

	t.Run("attempt numbers grow with saved attempts", func(t *testing.T) {
		repo := memory.NewAttemptRepository()
		quiz := timedQuiz()

		first := newTestSession(t, quiz, repo, &fakeClock{now: time.Now()})
		_, err := first.Submit(ctx)
		require.NoError(t, err)

		second := newTestSession(t, quiz, repo, &fakeClock{now: time.Now()})
		assert.Equal(t, 2, second.AttemptNumber())
		assert.NotEqual(t, first.ID(), second.ID())
	})

	t.Run("rejects start past the attempt limit", func(t *testing.T) {
		repo := memory.NewAttemptRepository()
		quiz := timedQuiz() // MaxAttempts: 3

		for i := 0; i < 3; i++ {
			sess := newTestSession(t, quiz, repo, &fakeClock{now: time.Now()})
			require.Equal(t, i+1, sess.AttemptNumber())
			_, err := sess.Submit(ctx)
			require.NoError(t, err)
		}

		_, err := Start(ctx, quiz, "user-1", repo, logger)
		assert.ErrorIs(t, err, ErrAttemptLimitExceeded)
	})

	t.Run("abandoned session burns no attempt slot", func(t *testing.T) {
		repo := memory.NewAttemptRepository()
		quiz := timedQuiz()
		quiz.MaxAttempts = 1

		// Started but never submitted: simply dropped.
		_ = newTestSession(t, quiz, repo, &fakeClock{now: time.Now()})

		used, err := repo.AttemptsUsed(ctx, "user-1", quiz.ID)
		require.NoError(t, err)
		assert.Zero(t, used)

		// The limit check still allows a fresh start.
		_, err = Start(ctx, quiz, "user-1", repo, logger)
		assert.NoError(t, err)
	})

	t.Run("no-retake quiz rejects a second start", func(t *testing.T) {
		repo := memory.NewAttemptRepository()
		quiz := timedQuiz()
		quiz.AllowRetake = false

		sess := newTestSession(t, quiz, repo, &fakeClock{now: time.Now()})
		_, err := sess.Submit(ctx)
		require.NoError(t, err)

		_, err = Start(ctx, quiz, "user-1", repo, logger)
		assert.ErrorIs(t, err, ErrRetakeNotAllowed)
	})
}

func TestAnswer(t *testing.T) {
	repo := memory.NewAttemptRepository()
	sess := newTestSession(t, timedQuiz(), repo, &fakeClock{now: time.Now()})

	t.Run("records and overwrites without moving", func(t *testing.T) {
		require.NoError(t, sess.Answer("q1", models.SelectedOption(0)))
		require.NoError(t, sess.Answer("q1", models.SelectedOption(1)))
		assert.Equal(t, 1, sess.AnsweredCount())
		assert.Equal(t, 0, sess.CurrentIndex())
	})

	t.Run("unknown question", func(t *testing.T) {
		err := sess.Answer("nope", models.SelectedOption(0))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("kind mismatch", func(t *testing.T) {
		err := sess.Answer("q2", models.SelectedOption(1))
		assert.Error(t, err)
	})

	t.Run("rejected after completion", func(t *testing.T) {
		_, err := sess.Submit(context.Background())
		require.NoError(t, err)
		assert.ErrorIs(t, sess.Answer("q1", models.SelectedOption(1)), ErrNotInProgress)
	})
}

func TestNavigation(t *testing.T) {
	repo := memory.NewAttemptRepository()
	sess := newTestSession(t, timedQuiz(), repo, &fakeClock{now: time.Now()})

	assert.Equal(t, 0, sess.Previous(), "previous clamps at the first question")
	assert.Equal(t, 1, sess.Next())
	assert.Equal(t, 1, sess.Next(), "next clamps at the last question")
	assert.Equal(t, "q2", sess.CurrentQuestion().ID)
	assert.Equal(t, 0, sess.Previous())
}

func TestTick(t *testing.T) {
	ctx := context.Background()

	t.Run("counts down and auto-submits at zero", func(t *testing.T) {
		repo := memory.NewAttemptRepository()
		clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
		sess := newTestSession(t, timedQuiz(), repo, clock)
		require.NoError(t, sess.Answer("q1", models.SelectedOption(1)))

		var expired *models.Attempt
		warnings := 0
		for i := 0; i < 60; i++ {
			clock.Advance(time.Second)
			result, err := sess.Tick(ctx)
			require.NoError(t, err)
			if result.Warning {
				warnings++
				assert.Equal(t, 10, result.Remaining, "warning fires when crossing the threshold")
			}
			if result.Expired {
				expired = result.Attempt
				assert.Equal(t, 60-i-1, result.Remaining)
			}
		}

		require.NotNil(t, expired, "sixty ticks exhaust a one-minute quiz")
		assert.Equal(t, 1, warnings, "the low-time warning fires exactly once")
		assert.Equal(t, Completed, sess.State())
		assert.True(t, expired.AutoSubmitted)
		assert.Equal(t, 60, expired.TimeSpentSeconds)
		assert.Equal(t, 10, expired.Score)

		saved, err := repo.ListAttempts(ctx, "user-1", "timed-quiz")
		require.NoError(t, err)
		require.Len(t, saved, 1, "expiry persists exactly one attempt")
		assert.Equal(t, expired.ID, saved[0].ID)
	})

	t.Run("no-op on untimed quizzes", func(t *testing.T) {
		repo := memory.NewAttemptRepository()
		sess := newTestSession(t, untimedQuiz(), repo, &fakeClock{now: time.Now()})

		result, err := sess.Tick(ctx)
		require.NoError(t, err)
		assert.Zero(t, result.Remaining)
		assert.False(t, result.Expired)
		assert.Equal(t, InProgress, sess.State())
	})

	t.Run("no-op once completed", func(t *testing.T) {
		repo := memory.NewAttemptRepository()
		sess := newTestSession(t, timedQuiz(), repo, &fakeClock{now: time.Now()})
		_, err := sess.Submit(ctx)
		require.NoError(t, err)

		result, err := sess.Tick(ctx)
		require.NoError(t, err)
		assert.False(t, result.Expired)
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("partial answers grade as submitted", func(t *testing.T) {
		repo := memory.NewAttemptRepository()
		clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
		sess := newTestSession(t, timedQuiz(), repo, clock)
		require.NoError(t, sess.Answer("q2", models.TrueFalseValue(true)))

		// Fifteen seconds of countdown consumed before submitting.
		for i := 0; i < 15; i++ {
			clock.Advance(time.Second)
			_, err := sess.Tick(ctx)
			require.NoError(t, err)
		}

		attempt, err := sess.Submit(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, attempt.Score)
		assert.True(t, attempt.Passed)
		assert.False(t, attempt.AutoSubmitted)
		assert.Equal(t, 15, attempt.TimeSpentSeconds)
		assert.True(t, sess.Saved())

		used, err := repo.AttemptsUsed(ctx, "user-1", "timed-quiz")
		require.NoError(t, err)
		assert.Equal(t, 1, used)
	})

	t.Run("untimed submission measures wall clock", func(t *testing.T) {
		repo := memory.NewAttemptRepository()
		clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
		sess := newTestSession(t, untimedQuiz(), repo, clock)

		clock.Advance(95 * time.Second)
		attempt, err := sess.Submit(ctx)
		require.NoError(t, err)
		assert.Equal(t, 95, attempt.TimeSpentSeconds)
	})

	t.Run("second submit is a logged no-op", func(t *testing.T) {
		repo := memory.NewAttemptRepository()
		sess := newTestSession(t, timedQuiz(), repo, &fakeClock{now: time.Now()})

		first, err := sess.Submit(ctx)
		require.NoError(t, err)

		second, err := sess.Submit(ctx)
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
		assert.Same(t, first, second, "the duplicate call returns the original record")

		used, err := repo.AttemptsUsed(ctx, "user-1", "timed-quiz")
		require.NoError(t, err)
		assert.Equal(t, 1, used, "no double-counted attempt")
	})

	t.Run("storage failure completes the session unsaved", func(t *testing.T) {
		repo := memory.NewAttemptRepository()
		repo.FailSaves = true
		sess := newTestSession(t, timedQuiz(), repo, &fakeClock{now: time.Now()})
		require.NoError(t, sess.Answer("q1", models.SelectedOption(1)))

		attempt, err := sess.Submit(ctx)
		assert.ErrorIs(t, err, store.ErrStorageUnavailable)
		require.NotNil(t, attempt, "the scored attempt is still returned")
		assert.Equal(t, 10, attempt.Score)
		assert.Equal(t, Completed, sess.State())
		assert.False(t, sess.Saved())

		// No durable record, and re-submitting does not retry.
		repo.FailSaves = false
		_, err = sess.Submit(ctx)
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
		used, err := repo.AttemptsUsed(ctx, "user-1", "timed-quiz")
		require.NoError(t, err)
		assert.Zero(t, used)
	})
}

func TestTimerSubmitRace(t *testing.T) {
	// Drive the countdown to its last second, then race the expiring tick
	// against a manual submit. Exactly one transition may win.
	repo := memory.NewAttemptRepository()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	sess := newTestSession(t, timedQuiz(), repo, clock)

	ctx := context.Background()
	for i := 0; i < 59; i++ {
		clock.Advance(time.Second)
		_, err := sess.Tick(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 1, sess.TimeRemaining())

	done := make(chan struct{}, 2)
	go func() {
		defer func() { done <- struct{}{} }()
		_, _ = sess.Tick(ctx)
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		_, _ = sess.Submit(ctx)
	}()
	<-done
	<-done

	assert.Equal(t, Completed, sess.State())
	used, err := repo.AttemptsUsed(ctx, "user-1", "timed-quiz")
	require.NoError(t, err)
	assert.Equal(t, 1, used, "the race persists exactly one attempt")
}
