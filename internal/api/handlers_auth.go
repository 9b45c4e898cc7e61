package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	UniversityID int64  `json:"university_id"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Room         string `json:"room"`
}

// handleRegister creates a student account in pending state. The
// account cannot order until a manager approves it.
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	user, err := s.accounts.Register(c.Request().Context(), req.UniversityID, req.Email, req.Password, req.Name, req.Room)
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	user, err := s.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapError(c, err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return mapError(c, err)
	}

	c.SetCookie(s.sessionCookie(token, s.tokens.TTL()))
	return c.JSON(http.StatusOK, user)
}

func (s *Server) handleLogout(c echo.Context) error {
	c.SetCookie(s.sessionCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// handlePasswordResetRequest always answers 202: whether the email
// exists must not be observable.
func (s *Server) handlePasswordResetRequest(c echo.Context) error {
	var req passwordResetRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	if err := s.accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return mapError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

type passwordResetConfirm struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) handlePasswordResetConfirm(c echo.Context) error {
	var req passwordResetConfirm
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	if err := s.accounts.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
