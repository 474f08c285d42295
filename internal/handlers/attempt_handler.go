package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blackdot/ems-assessment-service/internal/models"
	"github.com/blackdot/ems-assessment-service/internal/services"
	"github.com/blackdot/ems-assessment-service/internal/utils"
	"github.com/blackdot/ems-assessment-service/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartAttempt begins the employee's attempt for the current quarter.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	h.LogRequest(c, "Starting assessment attempt")

	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	employeeID := h.employeeID(c)
	if employeeID == "" {
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), &req, employeeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// SubmitAttempt grades and completes the employee's current attempt.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	h.LogRequest(c, "Submitting assessment attempt")

	var req validator.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	employeeID := h.employeeID(c)
	if employeeID == "" {
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), &req, employeeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAttempt returns a single attempt by ID.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetMyResults lists the acting employee's attempt history.
func (h *AttemptHandler) GetMyResults(c *gin.Context) {
	employeeID := h.employeeID(c)
	if employeeID == "" {
		return
	}

	results, err := h.attemptService.GetEmployeeResults(c.Request.Context(), employeeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: results, Total: int64(len(results))})
}

// GetEmployeeResults lists another employee's attempt history.
func (h *AttemptHandler) GetEmployeeResults(c *gin.Context) {
	employeeID := c.Param("employee_id")
	if employeeID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid employee_id parameter"})
		return
	}

	results, err := h.attemptService.GetEmployeeResults(c.Request.Context(), employeeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: results, Total: int64(len(results))})
}

// GetQuarterlyResults summarizes one quarter's attempts.
func (h *AttemptHandler) GetQuarterlyResults(c *gin.Context) {
	quarter := models.Quarter(c.Param("quarter"))
	switch quarter {
	case models.Q1, models.Q2, models.Q3, models.Q4:
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid quarter parameter"})
		return
	}

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2100 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid year parameter"})
		return
	}

	summary, err := h.attemptService.GetQuarterlyResults(c.Request.Context(), quarter, year)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
