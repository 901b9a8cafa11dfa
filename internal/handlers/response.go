package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planwatch/watch-backend/internal/watcherr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps core error kinds onto HTTP statuses.
func RespondServiceError(c *gin.Context, err error) {
	kind := watcherr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case watcherr.KindConstraintViolation, watcherr.KindUnsupportedFormat:
		status = http.StatusBadRequest
	case watcherr.KindPermissionDenied:
		status = http.StatusForbidden
	case watcherr.KindNotFound:
		status = http.StatusNotFound
	case watcherr.KindConflict:
		status = http.StatusConflict
	}
	RespondError(c, status, kind.String(), err)
}
