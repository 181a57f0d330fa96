package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursekit/quiz-engine/internal/services"
	"github.com/coursekit/quiz-engine/internal/utils"
)

type HandlerManager struct {
	quizHandler    *QuizHandler
	attemptHandler *AttemptHandler
}

func NewHandlerManager(
	quizService *services.QuizService,
	attemptService *services.AttemptService,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:    NewQuizHandler(quizService, attemptService, logger),
		attemptHandler: NewAttemptHandler(attemptService, validator, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		quizzes := v1.Group("/quizzes")
		{
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.GET("/:id/review", hm.quizHandler.LatestReview)
			quizzes.POST("/import", hm.quizHandler.ImportQuiz)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.GET("/:id", hm.attemptHandler.GetSession)
			attempts.POST("/:id/answer", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/next", hm.attemptHandler.Next)
			attempts.POST("/:id/previous", hm.attemptHandler.Previous)
			attempts.POST("/:id/tick", hm.attemptHandler.Tick)
			attempts.POST("/:id/submit", hm.attemptHandler.Submit)
			attempts.POST("/:id/abandon", hm.attemptHandler.Abandon)
			attempts.GET("/:id/time-remaining", hm.attemptHandler.TimeRemaining)

			// Quiz-scoped routes
			attempts.GET("/can-start/:quiz_id", hm.attemptHandler.CanStart)
			attempts.GET("/history/:quiz_id", hm.attemptHandler.History)
		}
	}
}

// HealthCheck reports process liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "quiz-engine"})
}
