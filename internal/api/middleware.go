package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"mensa/internal/auth"
	"mensa/internal/metrics"
	"mensa/internal/models"
)

const userContextKey = "mensa.user"

// requestLogger logs every request and feeds the HTTP counter. The
// route template (not the raw path) is used as the metric label to
// keep cardinality bounded.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		status := c.Response().Status
		route := c.Path()
		if route == "" {
			route = c.Request().URL.Path
		}
		metrics.IncHTTP(route, strconv.Itoa(status))

		evt := s.logger.Info()
		if status >= http.StatusInternalServerError {
			evt = s.logger.Error().Err(err)
		}
		evt.
			Str("method", c.Request().Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("remote", c.RealIP()).
			Msg("request")
		return nil
	}
}

// rateLimit rejects requests over the per-client budget. The key is
// client IP plus route template, so hammering one endpoint does not
// lock a client out of the rest of the API.
func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.RealIP() + ":" + c.Path()
		ok, err := s.limiter.Allow(c.Request().Context(), key)
		if err != nil {
			// Limiter backend failure must not take the API down.
			s.logger.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			return next(c)
		}
		if !ok {
			metrics.IncRateLimited()
			return respondError(c, http.StatusTooManyRequests, "too many requests")
		}
		return next(c)
	}
}

// authRequired resolves the session cookie into a user and stores it
// in the request context. The user row is re-read on every request so
// approval revocations take effect immediately.
func (s *Server) authRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(auth.CookieName)
		if err != nil || cookie.Value == "" {
			return respondError(c, http.StatusUnauthorized, "authentication required")
		}

		claims, err := s.tokens.Validate(cookie.Value)
		if err != nil {
			return respondError(c, http.StatusUnauthorized, "invalid or expired session")
		}

		user, err := s.repo.GetUserByID(c.Request().Context(), claims.UserID)
		if err != nil {
			return respondError(c, http.StatusUnauthorized, "invalid or expired session")
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

func (s *Server) managerOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !currentUser(c).Role.CanManage() {
			return respondError(c, http.StatusForbidden, "manager access required")
		}
		return next(c)
	}
}

func (s *Server) adminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !currentUser(c).Role.IsAdmin() {
			return respondError(c, http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

// currentUser returns the authenticated user. Only valid behind
// authRequired.
func currentUser(c echo.Context) *models.User {
	return c.Get(userContextKey).(*models.User)
}
