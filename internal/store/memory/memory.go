// Package memory provides in-process implementations of the store contracts.
// They back unit tests and serve as the local-device store for embedded use;
// the postgres package is the durable twin.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/coursekit/quiz-engine/internal/models"
	"github.com/coursekit/quiz-engine/internal/store"
)

type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]*models.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[string]*models.Quiz)}
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID string) (*models.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return quiz, nil
}

func (s *QuizStore) PutQuiz(_ context.Context, quiz *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	return nil
}

type attemptKey struct {
	userID string
	quizID string
}

// AttemptRepository is an append-only in-memory attempt store. The optional
// FailSaves switch makes Save return ErrStorageUnavailable, which tests use
// to exercise the unsaved-attempt path.
type AttemptRepository struct {
	mu        sync.RWMutex
	attempts  map[attemptKey][]*models.Attempt
	ids       map[string]struct{}
	FailSaves bool
}

func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{
		attempts: make(map[attemptKey][]*models.Attempt),
		ids:      make(map[string]struct{}),
	}
}

func (r *AttemptRepository) Save(_ context.Context, attempt *models.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSaves {
		return store.ErrStorageUnavailable
	}
	if _, dup := r.ids[attempt.ID]; dup {
		return store.ErrDuplicateAttempt
	}
	copied := *attempt
	key := attemptKey{userID: attempt.UserID, quizID: attempt.QuizID}
	r.attempts[key] = append(r.attempts[key], &copied)
	r.ids[attempt.ID] = struct{}{}
	return nil
}

func (r *AttemptRepository) AttemptsUsed(_ context.Context, userID, quizID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.attempts[attemptKey{userID: userID, quizID: quizID}]), nil
}

func (r *AttemptRepository) LatestAttempt(_ context.Context, userID, quizID string) (*models.Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	saved := r.attempts[attemptKey{userID: userID, quizID: quizID}]
	if len(saved) == 0 {
		return nil, store.ErrNotFound
	}
	latest := saved[0]
	for _, a := range saved[1:] {
		if a.StartTime.After(latest.StartTime) ||
			(a.StartTime.Equal(latest.StartTime) && a.AttemptNumber > latest.AttemptNumber) {
			latest = a
		}
	}
	copied := *latest
	return &copied, nil
}

func (r *AttemptRepository) ListAttempts(_ context.Context, userID, quizID string) ([]*models.Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	saved := r.attempts[attemptKey{userID: userID, quizID: quizID}]
	out := make([]*models.Attempt, len(saved))
	for i, a := range saved {
		copied := *a
		out[i] = &copied
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].AttemptNumber > out[j].AttemptNumber
	})
	return out, nil
}
