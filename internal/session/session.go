// Package session implements the live attempt state machine: NotStarted →
// InProgress → Completed. A session exclusively owns its in-memory answers
// map and countdown until submission; after a successful save, the attempt
// repository holds the sole durable copy. An abandoned session never reaches
// Completed and consumes no attempt slot.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coursekit/quiz-engine/internal/models"
	"github.com/coursekit/quiz-engine/internal/scoring"
	"github.com/coursekit/quiz-engine/internal/store"
	"github.com/coursekit/quiz-engine/internal/utils"
)

type State string

const (
	NotStarted State = "not_started"
	InProgress State = "in_progress"
	Completed  State = "completed"
)

var (
	// ErrAttemptLimitExceeded is returned by Start once the user has used
	// every allowed attempt. Not retryable without an admin override.
	ErrAttemptLimitExceeded = errors.New("maximum attempts exceeded")

	// ErrRetakeNotAllowed is returned by Start when the quiz forbids
	// retaking and the user already has a saved attempt.
	ErrRetakeNotAllowed = errors.New("quiz does not allow retakes")

	// ErrAlreadySubmitted marks the benign second Submit on a completed
	// session. Logged, never surfaced as a user-facing failure.
	ErrAlreadySubmitted = errors.New("attempt already submitted")

	// ErrNotInProgress is returned by operations that require an active
	// session.
	ErrNotInProgress = errors.New("session is not in progress")
)

// Clock abstracts wall-clock reads so timeout behavior is testable without
// sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// TickResult reports what one countdown tick did.
type TickResult struct {
	Remaining int  `json:"remaining"`
	Warning   bool `json:"warning"` // remaining just crossed the low-time threshold
	Expired   bool `json:"expired"` // countdown hit zero and the session auto-submitted

	// Attempt is the auto-submitted attempt record when Expired is true.
	Attempt *models.Attempt `json:"attempt,omitempty"`
}

// Session drives a single student's pass through one quiz. All methods are
// safe for the one real race in this engine: a timer-driven auto-submit and
// a concurrently issued manual Submit. Whichever acquires the lock first
// wins; the loser observes Completed and becomes a no-op.
type Session struct {
	mu sync.Mutex

	quiz   *models.Quiz
	userID string
	logger utils.Logger
	clock  Clock
	repo   store.AttemptRepository

	state         State
	attemptID     string
	attemptNumber int
	startTime     time.Time
	answers       models.AnswerMap
	current       int

	remaining int // seconds; meaningful only while time-limited and in progress
	warned    bool

	attempt *models.Attempt // built at submission
	saved   bool
}

// Option configures a Session at start time.
type Option func(*Session)

// WithClock injects a deterministic clock for tests.
func WithClock(clock Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// Start validates the attempt limit and opens a live session at question 0
// with an empty answers map. Counting attempts and rejecting the start is a
// repository query so two tabs racing past the limit check is the store's
// problem, not a filtered in-memory list.
func Start(ctx context.Context, quiz *models.Quiz, userID string, repo store.AttemptRepository, logger utils.Logger, opts ...Option) (*Session, error) {
	used, err := repo.AttemptsUsed(ctx, userID, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("count attempts used: %w", err)
	}
	if used >= quiz.MaxAttempts {
		return nil, fmt.Errorf("%w: %d of %d used", ErrAttemptLimitExceeded, used, quiz.MaxAttempts)
	}
	if used > 0 && !quiz.AllowRetake {
		return nil, ErrRetakeNotAllowed
	}

	s := &Session{
		quiz:          quiz,
		userID:        userID,
		logger:        logger,
		clock:         systemClock{},
		repo:          repo,
		state:         InProgress,
		attemptID:     uuid.NewString(),
		attemptNumber: used + 1,
		answers:       make(models.AnswerMap),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startTime = s.clock.Now()
	if quiz.TimeLimited {
		s.remaining = quiz.DurationSeconds()
	}

	logger.Info("attempt started",
		"attempt_id", s.attemptID,
		"quiz_id", quiz.ID,
		"user_id", userID,
		"attempt_number", s.attemptNumber,
		"time_limited", quiz.TimeLimited)
	return s, nil
}

// Answer records a value for the given question, overwriting any prior
// answer. The current index does not move. The only validation is that the
// question exists and the value shape matches its kind; partial and skipped
// answers are always tolerated.
func (s *Session) Answer(questionID string, value models.AnswerValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return ErrNotInProgress
	}
	q := s.quiz.QuestionByID(questionID)
	if q == nil {
		return fmt.Errorf("%w: question %s", store.ErrNotFound, questionID)
	}
	if value.Kind != q.Kind {
		return fmt.Errorf("question %s expects a %s value, got %s", questionID, q.Kind, value.Kind)
	}
	s.answers[questionID] = value
	return nil
}

// Next advances the current question index, clamped at the last question.
func (s *Session) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == InProgress && s.current < len(s.quiz.Questions)-1 {
		s.current++
	}
	return s.current
}

// Previous moves the current question index back, clamped at zero.
func (s *Session) Previous() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == InProgress && s.current > 0 {
		s.current--
	}
	return s.current
}

// CurrentIndex returns the 0-based current question index.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentQuestion returns the question at the current index.
func (s *Session) CurrentQuestion() *models.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &s.quiz.Questions[s.current]
}

// Tick advances the countdown by one second. When the countdown reaches
// zero the session auto-submits and the result carries Expired=true so the
// caller can tell the user time ran out. Ticking a completed or untimed
// session is a no-op.
func (s *Session) Tick(ctx context.Context) (TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress || !s.quiz.TimeLimited {
		return TickResult{Remaining: s.remaining}, nil
	}

	if s.remaining > 0 {
		s.remaining--
	}
	result := TickResult{Remaining: s.remaining}

	if !s.warned && s.quiz.TimeWarningSeconds > 0 && s.remaining <= s.quiz.TimeWarningSeconds && s.remaining > 0 {
		s.warned = true
		result.Warning = true
	}

	if s.remaining == 0 {
		attempt, err := s.submitLocked(ctx, true)
		result.Expired = true
		result.Attempt = attempt
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// Submit is the manual submission path. It grades the answers, freezes the
// attempt record, persists it, and completes the session. A second call
// returns ErrAlreadySubmitted and changes nothing.
//
// If persistence fails the session still completes, since re-submitting must
// not double-count an attempt. The computed, unsaved attempt is returned
// alongside the storage error so the caller can show the result and warn.
func (s *Session) Submit(ctx context.Context) (*models.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Completed {
		s.logger.Warn("duplicate submit ignored", "attempt_id", s.attemptID)
		return s.attempt, ErrAlreadySubmitted
	}
	if s.state != InProgress {
		return nil, ErrNotInProgress
	}
	return s.submitLocked(ctx, false)
}

// submitLocked performs the InProgress → Completed transition. Callers hold
// s.mu, which is what makes auto-submit and manual submit mutually exclusive
// and keeps a second transition out while a slow save is pending.
func (s *Session) submitLocked(ctx context.Context, auto bool) (*models.Attempt, error) {
	end := s.clock.Now()
	var timeSpent int
	if s.quiz.TimeLimited {
		timeSpent = s.quiz.DurationSeconds() - s.remaining
	} else {
		timeSpent = int(end.Sub(s.startTime).Seconds())
	}
	if timeSpent < 0 {
		timeSpent = 0
	}

	result := scoring.Score(s.quiz, s.answers)

	attempt := &models.Attempt{
		ID:               s.attemptID,
		QuizID:           s.quiz.ID,
		UserID:           s.userID,
		AttemptNumber:    s.attemptNumber,
		StartTime:        s.startTime,
		EndTime:          &end,
		Score:            result.EarnedPoints,
		Passed:           result.Passed,
		TimeSpentSeconds: timeSpent,
		AutoSubmitted:    auto,
	}
	if err := attempt.SetAnswers(s.answers); err != nil {
		return nil, err
	}

	s.state = Completed
	s.attempt = attempt

	if err := s.repo.Save(ctx, attempt); err != nil {
		s.logger.LogError(err, "attempt scored but not saved",
			"attempt_id", s.attemptID,
			"quiz_id", s.quiz.ID,
			"score", result.EarnedPoints)
		return attempt, err
	}
	s.saved = true

	s.logger.Info("attempt submitted",
		"attempt_id", s.attemptID,
		"quiz_id", s.quiz.ID,
		"user_id", s.userID,
		"score", result.EarnedPoints,
		"percentage", result.Percentage,
		"passed", result.Passed,
		"auto", auto)
	return attempt, nil
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ID is the attempt id this session will (or did) persist under.
func (s *Session) ID() string { return s.attemptID }

// Quiz returns the immutable definition this session runs against.
func (s *Session) Quiz() *models.Quiz { return s.quiz }

// UserID returns the opaque identity the session was started for.
func (s *Session) UserID() string { return s.userID }

// AttemptNumber is this session's 1-based ordinal among the user's attempts.
func (s *Session) AttemptNumber() int { return s.attemptNumber }

// TimeRemaining reports the countdown in seconds, or 0 for untimed quizzes.
func (s *Session) TimeRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// AnsweredCount reports how many questions currently have an answer.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// Attempt returns the completed attempt record, or nil before submission.
func (s *Session) Attempt() *models.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// Saved reports whether the completed attempt reached durable storage.
func (s *Session) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}
