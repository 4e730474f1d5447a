package httperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openclaw/pokerhall/internal/logging"
	"github.com/openclaw/pokerhall/internal/models"
)

// Stable error codes returned to clients.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeInternal       = "INTERNAL_ERROR"
)

type Error struct {
	Status       int
	Code         string
	Message      string
	RequiredRole []models.Role
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidRequest, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string, required ...models.Role) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: message, RequiredRole: required}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeConflict, Message: message}
}

func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: message}
}

type body struct {
	Error payload `json:"error"`
}

type payload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RequiredRole any    `json:"required_role,omitempty"`
	Details      string `json:"details,omitempty"`
}

// Handler is the single top-level error handler: typed errors render their
// code and status, everything else becomes a generic 500. Error details leak
// only in development mode.
func Handler(development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var resp body
		status := http.StatusInternalServerError

		var appErr *Error
		var echoErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.Status
			resp.Error = payload{Code: appErr.Code, Message: appErr.Message}
			switch len(appErr.RequiredRole) {
			case 0:
			case 1:
				resp.Error.RequiredRole = appErr.RequiredRole[0]
			default:
				resp.Error.RequiredRole = appErr.RequiredRole
			}
		case errors.As(err, &echoErr):
			status = echoErr.Code
			resp.Error = payload{Code: codeForStatus(status), Message: fmt.Sprint(echoErr.Message)}
		default:
			logging.FromContext(c.Request().Context()).Error("unhandled error", "error", err)
			resp.Error = payload{Code: CodeInternal, Message: "Internal server error"}
			if development {
				resp.Error.Details = err.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, resp)
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeInvalidRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	}
	return CodeInternal
}
