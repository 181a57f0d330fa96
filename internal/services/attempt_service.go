package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coursekit/quiz-engine/internal/events"
	"github.com/coursekit/quiz-engine/internal/models"
	"github.com/coursekit/quiz-engine/internal/review"
	"github.com/coursekit/quiz-engine/internal/scoring"
	"github.com/coursekit/quiz-engine/internal/session"
	"github.com/coursekit/quiz-engine/internal/store"
	"github.com/coursekit/quiz-engine/internal/utils"
)

// AttemptValidation reports whether a user may start a quiz and why not.
type AttemptValidation struct {
	CanStart     bool   `json:"can_start"`
	Reason       string `json:"reason,omitempty"`
	AttemptsUsed int    `json:"attempts_used"`
	MaxAttempts  int    `json:"max_attempts"`
}

// AttemptService orchestrates the engine: it loads definitions from the quiz
// store, drives live sessions, and announces completed attempts to
// downstream collaborators. Live sessions are held in an in-memory registry
// keyed by attempt id until they complete.
type AttemptService struct {
	quizzes   store.QuizStore
	attempts  store.AttemptRepository
	publisher events.Publisher
	logger    utils.Logger
	validator *utils.Validator

	mu       sync.RWMutex
	sessions map[string]*session.Session

	sessionOpts []session.Option
}

func NewAttemptService(
	quizzes store.QuizStore,
	attempts store.AttemptRepository,
	publisher events.Publisher,
	logger utils.Logger,
	validator *utils.Validator,
) *AttemptService {
	return &AttemptService{
		quizzes:   quizzes,
		attempts:  attempts,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		sessions:  make(map[string]*session.Session),
	}
}

// WithSessionOptions sets options applied to every started session (tests
// inject a deterministic clock this way).
func (s *AttemptService) WithSessionOptions(opts ...session.Option) *AttemptService {
	s.sessionOpts = opts
	return s
}

// GetQuiz resolves a definition, mapping a store miss to ErrQuizNotFound.
func (s *AttemptService) GetQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrQuizNotFound, quizID)
		}
		return nil, fmt.Errorf("get quiz %s: %w", quizID, err)
	}
	return quiz, nil
}

// StartAttempt loads the quiz, verifies its definition invariants, checks
// the attempt ceiling, and opens a live session.
func (s *AttemptService) StartAttempt(ctx context.Context, quizID, userID string) (*session.Session, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateQuiz(quiz); err != nil {
		return nil, fmt.Errorf("quiz %s failed definition validation: %w", quizID, err)
	}

	sess, err := session.Start(ctx, quiz, userID, s.attempts, s.logger, s.sessionOpts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()
	return sess, nil
}

// Session returns the live session for an attempt id.
func (s *AttemptService) Session(attemptID string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[attemptID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, attemptID)
	}
	return sess, nil
}

// Abandon drops a live session without submitting. Nothing is persisted and
// no attempt slot is consumed.
func (s *AttemptService) Abandon(attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[attemptID]; ok && sess.State() == session.InProgress {
		s.logger.Info("attempt abandoned", "attempt_id", attemptID, "quiz_id", sess.Quiz().ID)
	}
	delete(s.sessions, attemptID)
}

// SubmitAttempt finishes a session manually. On a storage failure the scored
// attempt comes back with the error so callers can show the result alongside
// the unsaved warning; the engine does not retry.
func (s *AttemptService) SubmitAttempt(ctx context.Context, attemptID string) (*models.Attempt, error) {
	sess, err := s.Session(attemptID)
	if err != nil {
		return nil, err
	}

	attempt, err := sess.Submit(ctx)
	if errors.Is(err, session.ErrAlreadySubmitted) {
		// Benign: the countdown or a second tab got there first.
		return attempt, err
	}
	s.finishSession(ctx, sess, attempt, events.EventAttemptCompleted)
	return attempt, err
}

// Tick advances a session's countdown by one second and handles the expiry
// side effects (event publication, registry cleanup) when it auto-submits.
func (s *AttemptService) Tick(ctx context.Context, attemptID string) (session.TickResult, error) {
	sess, err := s.Session(attemptID)
	if err != nil {
		return session.TickResult{}, err
	}

	result, err := sess.Tick(ctx)
	if result.Expired {
		s.finishSession(ctx, sess, result.Attempt, events.EventAttemptAutoSubmitted)
	}
	return result, err
}

// finishSession publishes the completion event and removes the session from
// the live registry. The event goes out even when the save failed, flagged
// unsaved, so progress consumers can reconcile later.
func (s *AttemptService) finishSession(ctx context.Context, sess *session.Session, attempt *models.Attempt, eventType events.EventType) {
	if attempt == nil {
		return
	}
	quiz := sess.Quiz()

	event := events.NewAttemptEvent(eventType, events.AttemptCompleted{
		AttemptID:        attempt.ID,
		QuizID:           quiz.ID,
		CourseID:         quiz.CourseID,
		UserID:           attempt.UserID,
		AttemptNumber:    attempt.AttemptNumber,
		Score:            attempt.Score,
		TotalPoints:      quiz.TotalPoints,
		Percentage:       100 * float64(attempt.Score) / float64(quiz.TotalPoints),
		Passed:           attempt.Passed,
		TimeSpentSeconds: attempt.TimeSpentSeconds,
		Saved:            sess.Saved(),
	})
	if err := s.publisher.PublishAttemptEvent(ctx, event); err != nil {
		s.logger.LogError(err, "attempt event not published", "attempt_id", attempt.ID)
	}

	s.mu.Lock()
	delete(s.sessions, sess.ID())
	s.mu.Unlock()
}

// CanStart answers the pre-flight probe without opening a session.
func (s *AttemptService) CanStart(ctx context.Context, quizID, userID string) (*AttemptValidation, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	used, err := s.attempts.AttemptsUsed(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("count attempts used: %w", err)
	}

	v := &AttemptValidation{AttemptsUsed: used, MaxAttempts: quiz.MaxAttempts}
	switch {
	case used >= quiz.MaxAttempts:
		v.Reason = "maximum attempts reached"
	case used > 0 && !quiz.AllowRetake:
		v.Reason = "quiz does not allow retakes"
	default:
		v.CanStart = true
	}
	return v, nil
}

// LatestReview rebuilds the review for the user's most recent saved attempt.
func (s *AttemptService) LatestReview(ctx context.Context, quizID, userID string) (*review.Review, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	attempt, err := s.attempts.LatestAttempt(ctx, userID, quizID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w for quiz %s", ErrNoAttempts, quizID)
		}
		return nil, fmt.Errorf("latest attempt: %w", err)
	}
	return review.Build(quiz, attempt)
}

// AttemptHistory lists the user's saved attempts for a quiz, newest first,
// each with its recomputed result.
func (s *AttemptService) AttemptHistory(ctx context.Context, quizID, userID string) ([]AttemptSummary, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListAttempts(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	summaries := make([]AttemptSummary, 0, len(attempts))
	for _, attempt := range attempts {
		answers, err := attempt.AnswerValues()
		if err != nil {
			return nil, err
		}
		result := scoring.Score(quiz, answers)
		summaries = append(summaries, AttemptSummary{
			AttemptID:        attempt.ID,
			AttemptNumber:    attempt.AttemptNumber,
			StartTime:        attempt.StartTime,
			Score:            result.EarnedPoints,
			TotalPoints:      result.TotalPoints,
			Percentage:       result.Percentage,
			Passed:           result.Passed,
			TimeSpentSeconds: attempt.TimeSpentSeconds,
			AutoSubmitted:    attempt.AutoSubmitted,
		})
	}
	return summaries, nil
}
