package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursekit/quiz-engine/internal/models"
	"github.com/coursekit/quiz-engine/internal/services"
	"github.com/coursekit/quiz-engine/internal/session"
	"github.com/coursekit/quiz-engine/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	service   *services.AttemptService
	validator *utils.Validator
}

func NewAttemptHandler(service *services.AttemptService, validator *utils.Validator, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

type StartAttemptRequest struct {
	QuizID string `json:"quiz_id" validate:"required"`
}

type SubmitAnswerRequest struct {
	QuestionID string          `json:"question_id" validate:"required"`
	Value      json.RawMessage `json:"value" validate:"required"`
}

// SessionView is the live-session snapshot returned to the driving UI.
type SessionView struct {
	AttemptID      string        `json:"attempt_id"`
	QuizID         string        `json:"quiz_id"`
	State          session.State `json:"state"`
	AttemptNumber  int           `json:"attempt_number"`
	CurrentIndex   int           `json:"current_index"`
	QuestionCount  int           `json:"question_count"`
	AnsweredCount  int           `json:"answered_count"`
	TimeLimited    bool          `json:"time_limited"`
	TimeRemaining  int           `json:"time_remaining"`
}

func sessionView(s *session.Session) SessionView {
	quiz := s.Quiz()
	return SessionView{
		AttemptID:     s.ID(),
		QuizID:        quiz.ID,
		State:         s.State(),
		AttemptNumber: s.AttemptNumber(),
		CurrentIndex:  s.CurrentIndex(),
		QuestionCount: len(quiz.Questions),
		AnsweredCount: s.AnsweredCount(),
		TimeLimited:   quiz.TimeLimited,
		TimeRemaining: s.TimeRemaining(),
	}
}

// StartAttempt opens a live session for the caller.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request payload", Details: err.Error()})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "validation failed", Details: err.Error()})
		return
	}

	sess, err := h.service.StartAttempt(c.Request.Context(), req.QuizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionView(sess))
}

// GetSession returns the live-session snapshot.
func (h *AttemptHandler) GetSession(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionView(sess))
}

// SubmitAnswer records (or overwrites) one answer; navigation stays put.
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request payload", Details: err.Error()})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "validation failed", Details: err.Error()})
		return
	}

	q := sess.Quiz().QuestionByID(req.QuestionID)
	if q == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "question not found"})
		return
	}
	value, err := models.ParseSubmittedValue(q, req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid answer value", Details: err.Error()})
		return
	}
	if err := sess.Answer(req.QuestionID, value); err != nil {
		if errors.Is(err, session.ErrNotInProgress) {
			c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
			return
		}
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionView(sess))
}

// Next moves to the following question (clamped at the end).
func (h *AttemptHandler) Next(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}
	sess.Next()
	c.JSON(http.StatusOK, sessionView(sess))
}

// Previous moves to the prior question (clamped at the start).
func (h *AttemptHandler) Previous(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}
	sess.Previous()
	c.JSON(http.StatusOK, sessionView(sess))
}

// Tick advances the countdown one second and reports expiry/warning state.
func (h *AttemptHandler) Tick(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}

	result, err := h.service.Tick(c.Request.Context(), sess.ID())
	if err != nil && !services.IsStorageUnavailable(err) {
		h.handleServiceError(c, err)
		return
	}
	// A failed save on expiry still reports the expiry; the result carries
	// the scored attempt and Saved() stays false.
	c.JSON(http.StatusOK, gin.H{
		"remaining": result.Remaining,
		"warning":   result.Warning,
		"expired":   result.Expired,
		"attempt":   result.Attempt,
		"saved":     sess.Saved(),
	})
}

// Submit finishes the attempt manually.
func (h *AttemptHandler) Submit(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}

	attempt, err := h.service.SubmitAttempt(c.Request.Context(), sess.ID())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, SuccessResponse{Message: "attempt submitted", Data: attempt})
	case errors.Is(err, services.ErrAlreadySubmitted):
		// Benign duplicate, e.g. the countdown won the race.
		c.JSON(http.StatusOK, SuccessResponse{Message: "attempt was already submitted", Data: attempt})
	case services.IsStorageUnavailable(err):
		// The user still gets their score; retry policy is the caller's.
		c.JSON(http.StatusOK, SuccessResponse{
			Message: "attempt scored but could not be saved",
			Data:    gin.H{"attempt": attempt, "saved": false},
		})
	default:
		h.handleServiceError(c, err)
	}
}

// Abandon discards a live session without consuming an attempt slot.
func (h *AttemptHandler) Abandon(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}
	h.service.Abandon(sess.ID())
	c.Status(http.StatusNoContent)
}

// TimeRemaining reports the countdown for a live session.
func (h *AttemptHandler) TimeRemaining(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"time_limited": sess.Quiz().TimeLimited,
		"remaining":    sess.TimeRemaining(),
	})
}

// CanStart is the pre-flight probe for the start button.
func (h *AttemptHandler) CanStart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	validation, err := h.service.CanStart(c.Request.Context(), c.Param("quiz_id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, validation)
}

// History lists the caller's saved attempts for a quiz.
func (h *AttemptHandler) History(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	summaries, err := h.service.AttemptHistory(c.Request.Context(), c.Param("quiz_id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// ownedSession resolves the :id session and verifies the caller owns it.
func (h *AttemptHandler) ownedSession(c *gin.Context) (*session.Session, bool) {
	userID, ok := h.userID(c)
	if !ok {
		return nil, false
	}
	sess, err := h.service.Session(c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return nil, false
	}
	if sess.UserID() != userID {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "attempt belongs to another user"})
		return nil, false
	}
	return sess, true
}
