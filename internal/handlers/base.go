package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blackdot/ems-assessment-service/internal/services"
	"github.com/blackdot/ems-assessment-service/internal/utils"
	"github.com/blackdot/ems-assessment-service/internal/validator"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps list responses that carry pagination metadata.
type SuccessResponse struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total,omitempty"`
}

// BaseHandler carries the helpers shared by all handlers.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

// parseIDParam reads a positive numeric path parameter; on failure it writes
// the 400 response itself and returns 0.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
		})
		return 0
	}
	return uint(id)
}

// employeeID resolves the acting employee from the request context; on
// failure it writes the 401 response itself and returns "".
func (h *BaseHandler) employeeID(c *gin.Context) string {
	id := c.GetString("employee_id")
	if id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Employee not identified",
		})
	}
	return id
}

// handleServiceError maps service sentinels to HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: verr,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrAssessmentNotFound),
		errors.Is(err, services.ErrEmployeeNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrAttemptAlreadyCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrAssessmentInactive),
		errors.Is(err, services.ErrAttemptNotStarted),
		errors.Is(err, services.ErrAttemptTimeLimitExceeded):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: err.Error()})
	default:
		utils.GetLogger(c, h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
