package services

import (
	"context"
	"fmt"
	"io"

	"github.com/coursekit/quiz-engine/internal/importer"
	"github.com/coursekit/quiz-engine/internal/models"
	"github.com/coursekit/quiz-engine/internal/store"
	"github.com/coursekit/quiz-engine/internal/utils"
)

// CacheInvalidator drops a cached quiz definition after the backing store
// changes. The Redis decorator in internal/cache implements it.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, quizID string) error
}

// QuizService serves quiz definitions and populates writable stores from
// spreadsheet imports. The attempt flow never writes definitions; import is
// an authoring-side operation.
type QuizService struct {
	quizzes   store.QuizStore
	writer    store.QuizWriter
	logger    utils.Logger
	validator *utils.Validator

	invalidator CacheInvalidator
}

// NewQuizService builds the service. writer may be nil when the backing
// store is read-only; imports then fail with a clear error.
func NewQuizService(quizzes store.QuizStore, writer store.QuizWriter, logger utils.Logger, validator *utils.Validator) *QuizService {
	s := &QuizService{
		quizzes:   quizzes,
		writer:    writer,
		logger:    logger,
		validator: validator,
	}
	if inv, ok := quizzes.(CacheInvalidator); ok {
		s.invalidator = inv
	}
	return s
}

// GetQuiz resolves a definition, mapping a store miss to ErrQuizNotFound.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrQuizNotFound, quizID)
		}
		return nil, fmt.Errorf("get quiz %s: %w", quizID, err)
	}
	return quiz, nil
}

// ImportQuiz reads a question workbook, attaches the parsed questions to the
// given definition, validates the result, and stores it. Rows that fail to
// parse are reported in the summary and skipped; the import only aborts when
// no valid question survives or the assembled quiz breaks an invariant.
func (s *QuizService) ImportQuiz(ctx context.Context, quiz *models.Quiz, workbook io.Reader) (*importer.Summary, error) {
	if s.writer == nil {
		return nil, fmt.Errorf("quiz store is read-only, import unavailable")
	}

	questions, summary, err := importer.ReadQuestions(workbook, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("import quiz %s: %w", quiz.ID, err)
	}
	if err := importer.PopulateQuiz(quiz, questions); err != nil {
		return summary, err
	}
	if err := s.validator.ValidateQuiz(quiz); err != nil {
		return summary, fmt.Errorf("imported quiz %s failed validation: %w", quiz.ID, err)
	}

	if err := s.writer.PutQuiz(ctx, quiz); err != nil {
		return summary, fmt.Errorf("store imported quiz %s: %w", quiz.ID, err)
	}
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, quiz.ID); err != nil {
			s.logger.Warn("stale quiz may be cached", "quiz_id", quiz.ID, "error", err)
		}
	}
	s.logger.Info("quiz imported",
		"quiz_id", quiz.ID,
		"questions", summary.SuccessCount,
		"rejected_rows", summary.ErrorCount)
	return summary, nil
}
