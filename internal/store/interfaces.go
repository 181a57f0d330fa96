// Package store defines the persistence contracts the quiz engine depends
// on: a read-only quiz definition store and an append-only attempt
// repository. Implementations live in subpackages (postgres, memory).
package store

import (
	"context"
	"errors"

	"github.com/coursekit/quiz-engine/internal/models"
)

var (
	// ErrNotFound is returned when a quiz id or attempt lookup does not
	// resolve.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable is returned when the backing store cannot be
	// written. Callers decide retry policy; the engine never retries.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrDuplicateAttempt is returned when Save is called with an attempt id
	// that already exists. Saved attempts are permanent and never
	// overwritten.
	ErrDuplicateAttempt = errors.New("attempt already saved")
)

// QuizStore supplies immutable quiz definitions. How it is populated is the
// course/catalog system's business.
type QuizStore interface {
	GetQuiz(ctx context.Context, quizID string) (*models.Quiz, error)
}

// QuizWriter is the optional write side implemented by backends that can be
// populated directly (spreadsheet import, fixtures). The engine itself only
// ever reads.
type QuizWriter interface {
	PutQuiz(ctx context.Context, quiz *models.Quiz) error
}

// AttemptRepository persists attempt records for (quiz, user) pairs. The
// collection is append-only: there is no update or delete.
type AttemptRepository interface {
	// Save appends the attempt to the durable store.
	Save(ctx context.Context, attempt *models.Attempt) error

	// AttemptsUsed counts previously saved attempts for the pair.
	AttemptsUsed(ctx context.Context, userID, quizID string) (int, error)

	// LatestAttempt returns the attempt with the most recent StartTime,
	// ties broken by the largest AttemptNumber, or ErrNotFound.
	LatestAttempt(ctx context.Context, userID, quizID string) (*models.Attempt, error)

	// ListAttempts returns all saved attempts for the pair, most recent
	// first.
	ListAttempts(ctx context.Context, userID, quizID string) ([]*models.Attempt, error)
}

// IsNotFound reports whether err represents a missing quiz or attempt.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
