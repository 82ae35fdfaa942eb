package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	allocdomain "github.com/clinkerflow/clinkerflow/internal/allocation/domain"
	solverdomain "github.com/clinkerflow/clinkerflow/internal/solver/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	var remote *solverdomain.RemoteError
	if errors.As(err, &remote) {
		message := remote.Detail
		if message == "" {
			message = "optimization service error"
		}
		return http.StatusBadGateway, errorPayload{
			Type:    "remote_error",
			Message: message,
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, allocdomain.ErrNotPending),
		errors.Is(err, allocdomain.ErrDuplicateID),
		errors.Is(err, allocdomain.ErrSolverBusy):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case errors.Is(err, allocdomain.ErrUnknownRemoteCode):
		return http.StatusBadGateway, errorPayload{
			Type:    "remote_error",
			Message: "remote result references an unknown plant or unit",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, allocdomain.ErrNotPending):
		return "allocation is not pending"
	case errors.Is(err, allocdomain.ErrDuplicateID):
		return "allocation id already exists"
	case errors.Is(err, allocdomain.ErrSolverBusy):
		return "an optimization run is already in progress"
	default:
		return "conflict"
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, allocdomain.ErrInvalidQuantity),
		errors.Is(err, allocdomain.ErrInvalidSelection),
		errors.Is(err, allocdomain.ErrInvalidMode),
		errors.Is(err, allocdomain.ErrInvalidPeriod):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, allocdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if code == "invalid_selection" {
		return "selection"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_quantity":
		return "quantity must be greater than zero"
	case "invalid_selection":
		return "unknown plant or grinding unit"
	case "invalid_mode":
		return "unknown transport mode"
	case "invalid_period":
		return "period must be greater than zero"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog maps domain errors to the (type, code) pair used by
// the request logger.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	var remote *solverdomain.RemoteError
	switch {
	case asValidationErrors(err) != nil, isValidationError(err):
		return "validation", validationErrorCode(err)
	case isNotFoundError(err):
		return "not_found", "not_found"
	case errors.As(err, &remote):
		return "remote", "remote_error"
	case errors.Is(err, allocdomain.ErrSolverBusy):
		return "conflict", "solver_busy"
	case errors.Is(err, allocdomain.ErrNotPending):
		return "conflict", "not_pending"
	case errors.Is(err, allocdomain.ErrDuplicateID):
		return "conflict", "duplicate_id"
	default:
		return "internal", "internal_error"
	}
}
