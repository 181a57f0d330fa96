package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursekit/quiz-engine/internal/models"
	"github.com/coursekit/quiz-engine/internal/services"
	"github.com/coursekit/quiz-engine/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	quizzes  *services.QuizService
	attempts *services.AttemptService
}

func NewQuizHandler(quizzes *services.QuizService, attempts *services.AttemptService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizzes:     quizzes,
		attempts:    attempts,
	}
}

// QuestionView is a question as shown during an attempt. Correct answers and
// explanations never leave the server before the attempt completes.
type QuestionView struct {
	ID       string              `json:"id"`
	Kind     models.QuestionKind `json:"kind"`
	Prompt   string              `json:"prompt"`
	Options  []string            `json:"options,omitempty"`
	Points   int                 `json:"points"`
	Position int                 `json:"position"`
}

// QuizView is the attempt-facing projection of a quiz definition.
type QuizView struct {
	ID                  string         `json:"id"`
	CourseID            string         `json:"course_id"`
	Title               string         `json:"title"`
	Description         *string        `json:"description,omitempty"`
	DurationMinutes     int            `json:"duration_minutes"`
	TimeLimited         bool           `json:"time_limited"`
	TimeWarningSeconds  int            `json:"time_warning_seconds"`
	TotalPoints         int            `json:"total_points"`
	PassingScorePercent int            `json:"passing_score_percent"`
	MaxAttempts         int            `json:"max_attempts"`
	AllowRetake         bool           `json:"allow_retake"`
	Questions           []QuestionView `json:"questions"`
}

func quizView(quiz *models.Quiz) QuizView {
	view := QuizView{
		ID:                  quiz.ID,
		CourseID:            quiz.CourseID,
		Title:               quiz.Title,
		Description:         quiz.Description,
		DurationMinutes:     quiz.DurationMinutes,
		TimeLimited:         quiz.TimeLimited,
		TimeWarningSeconds:  quiz.TimeWarningSeconds,
		TotalPoints:         quiz.TotalPoints,
		PassingScorePercent: quiz.PassingScorePercent,
		MaxAttempts:         quiz.MaxAttempts,
		AllowRetake:         quiz.AllowRetake,
		Questions:           make([]QuestionView, 0, len(quiz.Questions)),
	}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		view.Questions = append(view.Questions, QuestionView{
			ID:       q.ID,
			Kind:     q.Kind,
			Prompt:   q.Prompt,
			Options:  q.Options,
			Points:   q.Points,
			Position: q.Position,
		})
	}
	return view
}

// GetQuiz returns the attempt-facing quiz definition.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quiz, err := h.quizzes.GetQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizView(quiz))
}

// LatestReview returns the review of the caller's most recent saved attempt.
func (h *QuizHandler) LatestReview(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	result, err := h.attempts.LatestReview(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImportQuizRequest carries the definition metadata accompanying a question
// workbook upload.
type ImportQuizRequest struct {
	ID                  string `form:"id" validate:"required"`
	CourseID            string `form:"course_id" validate:"required"`
	Title               string `form:"title" validate:"required"`
	DurationMinutes     int    `form:"duration_minutes"`
	TimeLimited         bool   `form:"time_limited"`
	PassingScorePercent int    `form:"passing_score_percent" validate:"min=0,max=100"`
	MaxAttempts         int    `form:"max_attempts" validate:"min=1,max=10"`
	AllowRetake         bool   `form:"allow_retake"`
	ShowCorrectAnswers  bool   `form:"show_correct_answers"`
}

// ImportQuiz creates a quiz definition from multipart form metadata plus an
// xlsx question workbook under the "file" field.
func (h *QuizHandler) ImportQuiz(c *gin.Context) {
	var req ImportQuizRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid form data", Details: err.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "missing workbook file", Details: err.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "unreadable workbook file", Details: err.Error()})
		return
	}
	defer file.Close()

	quiz := &models.Quiz{
		ID:                  req.ID,
		CourseID:            req.CourseID,
		Title:               req.Title,
		DurationMinutes:     req.DurationMinutes,
		TimeLimited:         req.TimeLimited,
		PassingScorePercent: req.PassingScorePercent,
		MaxAttempts:         req.MaxAttempts,
		AllowRetake:         req.AllowRetake,
		ShowCorrectAnswers:  req.ShowCorrectAnswers,
	}

	summary, err := h.quizzes.ImportQuiz(c.Request.Context(), quiz, file)
	switch {
	case err == nil:
	case services.IsStorageUnavailable(err):
		h.handleServiceError(c, err)
		return
	case summary != nil:
		// The workbook parsed but the assembled quiz is unusable.
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: err.Error(), Details: summary})
		return
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "quiz imported", Data: summary})
}
