package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/coursekit/quiz-engine/internal/models"
	"github.com/coursekit/quiz-engine/internal/store"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) *QuizPostgreSQL {
	return &QuizPostgreSQL{db: db}
}

func (s *QuizPostgreSQL) GetQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.WithContext(ctx).
		Preload("Questions").
		First(&quiz, "id = ?", quizID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get quiz %s: %w", quizID, err)
	}
	// Preload order is not guaranteed; questions are ordered by position.
	sort.SliceStable(quiz.Questions, func(i, j int) bool {
		return quiz.Questions[i].Position < quiz.Questions[j].Position
	})
	return &quiz, nil
}

func (s *QuizPostgreSQL) PutQuiz(ctx context.Context, quiz *models.Quiz) error {
	if err := s.db.WithContext(ctx).Save(quiz).Error; err != nil {
		return fmt.Errorf("%w: put quiz %s: %v", store.ErrStorageUnavailable, quiz.ID, err)
	}
	return nil
}
