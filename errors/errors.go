package errors

import (
	"net/http"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

// Error is the failure type every service operation returns. Status doubles
// as the error kind: 404 not-found, 403 forbidden, 409 conflict/illegal
// state, 400 invalid argument, 500 internal.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(message string, status int) *Error {
	return &Error{Message: message, Status: status}
}

var (
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
	InActiveUserError      = New("user inactive", http.StatusUnauthorized)
)

// NotFound reports a missing message, call, group or identity.
func NotFound(message string) *Error {
	return New(message, http.StatusNotFound)
}

// Forbidden reports a caller lacking the required relationship to the entity.
func Forbidden(message string) *Error {
	return New(message, http.StatusForbidden)
}

// Conflict reports an illegal state transition.
func Conflict(message string) *Error {
	return New(message, http.StatusConflict)
}

// BadRequest reports a malformed or self-contradictory request.
func BadRequest(message string) *Error {
	return New(message, http.StatusBadRequest)
}

// FromErr coerces any error into an *Error, defaulting to internal.
func FromErr(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return ErrInternalServerError
}

// ErrorHandler is wired into the login rate limiter.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error": "too many requests, try again later",
	})
}
