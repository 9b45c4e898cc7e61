package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mensa/internal/models"
	"mensa/internal/schedule"
)

func (s *Server) handleUniversityList(c echo.Context) error {
	unis, err := s.repo.ListUniversities(c.Request().Context())
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, unis)
}

func (s *Server) handleUniversityCreate(c echo.Context) error {
	var uni models.University
	if err := c.Bind(&uni); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	if uni.Name == "" || uni.Code == "" {
		return respondError(c, http.StatusBadRequest, "name and code are required")
	}
	cfg := schedule.TimeConfig{
		Timezone:       uni.Timezone,
		CutoffTime:     uni.CutoffTime,
		MaxAdvanceDays: uni.MaxAdvanceDays,
	}
	if err := cfg.Validate(); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	uni.IsActive = true
	if err := s.repo.CreateUniversity(c.Request().Context(), &uni); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, uni)
}

type universityUpdateRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	IsActive bool   `json:"is_active"`
}

// Time-config fields (timezone, cutoff, advance window) are owned by
// the manager settings endpoint and are not accepted here.
func (s *Server) handleUniversityUpdate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	var req universityUpdateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}
	if req.Name == "" || req.Code == "" {
		return respondError(c, http.StatusBadRequest, "name and code are required")
	}

	uni := models.University{ID: id, Name: req.Name, Code: req.Code, IsActive: req.IsActive}
	if err := s.repo.UpdateUniversity(c.Request().Context(), &uni); err != nil {
		return mapError(c, err)
	}
	saved, err := s.repo.GetUniversity(c.Request().Context(), id)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, saved)
}

type managerCreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *Server) handleManagerCreate(c echo.Context) error {
	universityID, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	var req managerCreateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	user, err := s.accounts.CreateManager(c.Request().Context(), universityID, req.Email, req.Password, req.Name)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}
