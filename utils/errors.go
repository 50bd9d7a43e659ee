package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"patent-ip-platform/middleware"
)

// ErrorResponse is the error envelope every handler returns. RequestID lets
// a caller quote the failing request when reporting a problem.
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		RequestID: middleware.RequestID(c),
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}
