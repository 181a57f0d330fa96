package services

import (
	"errors"

	"github.com/coursekit/quiz-engine/internal/session"
	"github.com/coursekit/quiz-engine/internal/store"
)

// The service layer surfaces one flat error taxonomy to callers. The
// underlying sentinels live where they originate (session, store) so lower
// layers never import this package.
var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrSessionNotFound = errors.New("no live session for attempt")

	ErrAttemptLimitExceeded = session.ErrAttemptLimitExceeded
	ErrRetakeNotAllowed     = session.ErrRetakeNotAllowed
	ErrAlreadySubmitted     = session.ErrAlreadySubmitted
	ErrNotInProgress        = session.ErrNotInProgress

	ErrStorageUnavailable = store.ErrStorageUnavailable
	ErrNoAttempts         = errors.New("no saved attempts")
)

// IsNotFound reports a quiz, session, or attempt lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrNoAttempts) ||
		errors.Is(err, store.ErrNotFound)
}

// IsConflict reports user-resolvable conflicts: attempt limits, retake
// rules, duplicate submission.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAttemptLimitExceeded) ||
		errors.Is(err, ErrRetakeNotAllowed) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, store.ErrDuplicateAttempt)
}

// IsStorageUnavailable reports persistence failures the caller may retry.
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, store.ErrStorageUnavailable)
}
