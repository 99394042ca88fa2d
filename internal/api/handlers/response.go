package handlers

import (
	"net/http"

	"expensely-backend/internal/auth"
	apperrors "expensely-backend/internal/errors"
	"expensely-backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error string `json:"error" example:"group not found"`
	Code  string `json:"code" example:"NOT_FOUND"`
}

// MessageResponse represents a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message" example:"Reminder sent successfully"`
}

// respondError writes err with the status of its taxonomy code. Internal
// errors are logged and their detail withheld from the client.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	code := apperrors.Code(err)
	message := err.Error()

	if status >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).
			WithError(err).
			WithField("path", c.FullPath()).
			Error("request failed")
		if code == apperrors.CodeInternal {
			message = "internal server error"
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}

// principal returns the authenticated caller, answering 401 when absent
func principal(c *gin.Context) (*auth.Principal, bool) {
	p, ok := auth.GetPrincipal(c)
	if !ok {
		respondError(c, apperrors.ErrUserEmailNotFound)
		return nil, false
	}
	return p, true
}
