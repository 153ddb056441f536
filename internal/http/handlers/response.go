// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including structured error envelopes, consistent JSON serialization, and
// the single failure step every handler runs after a service call. The goal is
// to guarantee uniform responses for both success and failure cases.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - `failErr()` is the only place where service errors are logged and mapped
//     to HTTP status codes. Causes are logged, never returned to clients.
//   - `fail()` covers transport-level errors (unknown route, wrong method).
//
// Example error response:
//
//	HTTP/1.1 500 Internal Server Error
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "db_unavailable",
//	  "message": "database unavailable"
//	}
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "id": 1, "title": "Groceries" }
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-todo-backend/internal/http/middleware"
	"github.com/tbourn/go-todo-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable string (see errors.go constants).
//   - Message: A human-readable error description, safe for display to users.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"db_error"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"database error"`
}

// abort writes the error envelope and stops the handler chain.
func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// fail aborts the request with a structured error and logs server-side errors.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	abort(c, status, code, msg)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr logs err on lg and writes the mapped error envelope.
//
// Pool failures are logged at FATAL level (without exiting) since they mean
// the database is unreachable for every request. Storage failures are logged
// at error level, client errors at warn. Only the client-safe message of a
// services.Error reaches the response; anything else becomes a generic 500.
func failErr(c *gin.Context, lg *zerolog.Logger, err error) {
	status, code := statusFor(err)
	kind := services.KindOf(err)

	var ev *zerolog.Event
	switch kind {
	case services.KindPoolUnavailable:
		ev = lg.WithLevel(zerolog.FatalLevel)
	case services.KindBadRequest:
		ev = lg.Warn()
	default:
		ev = lg.Error()
	}

	cause := err
	if u := errors.Unwrap(err); u != nil {
		cause = u
	}
	msg := "internal server error"
	if kind != 0 {
		msg = err.Error()
	}

	ev.Str("kind", kind.String()).
		Str("cause", cause.Error()).
		Int("status", status).
		Msg(msg)

	abort(c, status, code, msg)
}

// statusFor maps a service error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch services.KindOf(err) {
	case services.KindBadRequest:
		return http.StatusBadRequest, ErrCodeBadRequest
	case services.KindPoolUnavailable:
		return http.StatusInternalServerError, ErrCodeDBUnavailable
	case services.KindDB:
		return http.StatusInternalServerError, ErrCodeDBError
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
