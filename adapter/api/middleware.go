package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/felixgeelhaar/mentora/pkg/observability"
	"github.com/labstack/echo/v4"
)

const (
	headerRequestID     = "X-Request-ID"
	headerCorrelationID = "X-Correlation-ID"

	callerKey = "caller"
)

// requestContext attaches request and correlation IDs to the request
// context and echoes them back to the client.
func requestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := observability.NewRequestContext(req.Context(), req.Header.Get(headerCorrelationID))
			c.SetRequest(req.WithContext(ctx))

			c.Response().Header().Set(headerRequestID, observability.RequestIDFromContext(ctx))
			c.Response().Header().Set(headerCorrelationID, observability.CorrelationIDFromContext(ctx))
			return next(c)
		}
	}
}

// accessLog logs each request and records HTTP metrics. Errors are rendered
// here so the logged status is the one the client receives.
func (s *Server) accessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			duration := time.Since(start)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			tags := []observability.Tag{
				observability.T("method", c.Request().Method),
				observability.T("route", route),
				observability.T("status", strconv.Itoa(status)),
			}
			s.metrics.Counter(observability.MetricHTTPRequests, 1, tags...)
			s.metrics.Timing(observability.MetricHTTPRequestDuration, duration, tags...)

			s.logger.InfoContext(c.Request().Context(), "http request",
				"method", c.Request().Method,
				"route", route,
				"status", status,
				observability.DurationKey, duration.Milliseconds(),
			)
			return nil
		}
	}
}

// authenticate resolves the bearer token to a directory user and stores the
// caller on the echo context.
func (s *Server) authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return ErrUnauthorized
			}
			userID, err := s.tokens.Verify(raw)
			if err != nil {
				return &APIError{Status: http.StatusUnauthorized, Code: ErrUnauthorized.Code, Message: "Invalid token"}
			}

			ctx := c.Request().Context()
			user, err := s.directory.FindByID(ctx, userID)
			if err != nil {
				return fmt.Errorf("%w: load caller: %w", domain.ErrDependencyFailure, err)
			}
			if user == nil {
				return &APIError{Status: http.StatusUnauthorized, Code: ErrUnauthorized.Code, Message: "Unknown user"}
			}

			c.SetRequest(c.Request().WithContext(observability.WithUserID(ctx, userID.String())))
			c.Set(callerKey, domain.Caller{ID: user.ID(), Role: user.Role()})
			return next(c)
		}
	}
}

// requireCapability rejects callers whose role lacks capability.
func requireCapability(capability identity.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !callerFrom(c).Role.Can(capability) {
				return &APIError{Status: http.StatusForbidden, Code: "forbidden", Message: "Role not allowed"}
			}
			return next(c)
		}
	}
}

func callerFrom(c echo.Context) domain.Caller {
	caller, _ := c.Get(callerKey).(domain.Caller)
	return caller
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
