package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/coursekit/quiz-engine/internal/models"
	"github.com/coursekit/quiz-engine/internal/store"
)

// AttemptPostgreSQL is the durable attempt repository. Rows are insert-only:
// the contract exposes no update or delete, so a saved attempt is permanent
// history.
type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) *AttemptPostgreSQL {
	return &AttemptPostgreSQL{db: db}
}

func (r *AttemptPostgreSQL) Save(ctx context.Context, attempt *models.Attempt) error {
	err := r.db.WithContext(ctx).Create(attempt).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrDuplicateAttempt
	}
	return fmt.Errorf("%w: save attempt %s: %v", store.ErrStorageUnavailable, attempt.ID, err)
}

func (r *AttemptPostgreSQL) AttemptsUsed(ctx context.Context, userID, quizID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count attempts for user %s quiz %s: %w", userID, quizID, err)
	}
	return int(count), nil
}

func (r *AttemptPostgreSQL) LatestAttempt(ctx context.Context, userID, quizID string) (*models.Attempt, error) {
	var attempt models.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("start_time DESC, attempt_number DESC").
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("latest attempt for user %s quiz %s: %w", userID, quizID, err)
	}
	return &attempt, nil
}

func (r *AttemptPostgreSQL) ListAttempts(ctx context.Context, userID, quizID string) ([]*models.Attempt, error) {
	var attempts []*models.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("start_time DESC, attempt_number DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("list attempts for user %s quiz %s: %w", userID, quizID, err)
	}
	return attempts, nil
}

// Migrate creates the quiz and attempt tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Quiz{}, &models.Question{}, &models.Attempt{})
}
