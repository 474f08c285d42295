package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blackdot/ems-assessment-service/internal/services"
	"github.com/blackdot/ems-assessment-service/internal/utils"
)

type HandlerManager struct {
	assessmentHandler *AssessmentHandler
	attemptHandler    *AttemptHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		assessmentHandler: NewAssessmentHandler(serviceManager.Assessment(), serviceManager.Attempt(), logger),
		attemptHandler:    NewAttemptHandler(serviceManager.Attempt(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(EmployeeIdentityMiddleware())
	{
		assessments := v1.Group("/assessments")
		{
			assessments.POST("", hm.assessmentHandler.CreateAssessment)
			assessments.GET("", hm.assessmentHandler.ListAssessments)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
			assessments.PUT("/:id", hm.assessmentHandler.UpdateAssessment)
			assessments.DELETE("/:id", hm.assessmentHandler.DeleteAssessment)
			assessments.GET("/:id/stats", hm.assessmentHandler.GetAssessmentStats)
			assessments.GET("/:id/results", hm.assessmentHandler.GetAssessmentResults)

			assessments.POST("/:id/questions", hm.assessmentHandler.AddQuestion)
			assessments.GET("/:id/questions", hm.assessmentHandler.ListQuestions)
			assessments.DELETE("/:id/questions/:question_id", hm.assessmentHandler.DeleteQuestion)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.POST("/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
		}

		results := v1.Group("/results")
		{
			results.GET("/me", hm.attemptHandler.GetMyResults)
			results.GET("/employees/:employee_id", hm.attemptHandler.GetEmployeeResults)
			results.GET("/quarters/:quarter/:year", hm.attemptHandler.GetQuarterlyResults)
		}
	}
}
