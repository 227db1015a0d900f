package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/labstack/echo/v4"
)

// APIError is the JSON error body returned by every endpoint.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errors raised by the adapter itself.
var (
	ErrBadRequest = &APIError{
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: "Invalid request",
	}
	ErrUnauthorized = &APIError{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: "Authentication required",
	}
	ErrInternalServer = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "Internal server error",
	}
)

// domainErrors maps scheduling errors to responses. The first match wins.
var domainErrors = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrMissingField, http.StatusBadRequest, "missing_field"},
	{domain.ErrInvalidTime, http.StatusBadRequest, "invalid_time"},
	{domain.ErrUnresolvedMentor, http.StatusBadRequest, "unresolved_mentor"},
	{domain.ErrInvalidField, http.StatusBadRequest, "invalid_field"},
	{domain.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{domain.ErrMissingConfirmedTime, http.StatusBadRequest, "missing_confirmed_time"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
}

// toAPIError converts any handler error to its response. Unknown errors and
// dependency failures become a generic internal error.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return fromHTTPError(httpErr)
	}

	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return &APIError{Status: m.status, Code: m.code, Message: err.Error()}
		}
	}
	return ErrInternalServer
}

func fromHTTPError(he *echo.HTTPError) *APIError {
	code := "http_error"
	switch he.Code {
	case http.StatusBadRequest:
		code = ErrBadRequest.Code
	case http.StatusUnauthorized:
		code = ErrUnauthorized.Code
	case http.StatusNotFound:
		code = "not_found"
	case http.StatusMethodNotAllowed:
		code = "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		code = "payload_too_large"
	}
	if he.Code >= http.StatusInternalServerError {
		return ErrInternalServer
	}
	return &APIError{Status: he.Code, Code: code, Message: fmt.Sprint(he.Message)}
}

// handleError is the echo HTTPErrorHandler.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := toAPIError(err)
	ctx := c.Request().Context()
	if apiErr.Status >= http.StatusInternalServerError {
		s.logger.ErrorContext(ctx, "request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err,
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(apiErr.Status)
	} else {
		writeErr = c.JSON(apiErr.Status, apiErr)
	}
	if writeErr != nil {
		s.logger.ErrorContext(ctx, "failed to write error response", "error", writeErr)
	}
}
