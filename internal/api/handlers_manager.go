package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mensa/internal/schedule"
)

func (s *Server) handleApprovalList(c echo.Context) error {
	users, err := s.approvals.ListPending(c.Request().Context(), currentUser(c).UniversityID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) handleApprove(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	if err := s.approvals.Approve(c.Request().Context(), currentUser(c), id); err != nil {
		return mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleReject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	if err := s.approvals.Reject(c.Request().Context(), currentUser(c), id); err != nil {
		return mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type settingsPayload struct {
	Timezone       string `json:"timezone"`
	CutoffTime     string `json:"order_cutoff_time"`
	MaxAdvanceDays int    `json:"max_advance_days"`
}

func (s *Server) handleSettingsGet(c echo.Context) error {
	cfg, err := s.settings.Get(c.Request().Context(), currentUser(c).UniversityID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, settingsPayload{
		Timezone:       cfg.Timezone,
		CutoffTime:     cfg.CutoffTime,
		MaxAdvanceDays: cfg.MaxAdvanceDays,
	})
}

func (s *Server) handleSettingsUpdate(c echo.Context) error {
	var req settingsPayload
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	cfg := schedule.TimeConfig{
		Timezone:       req.Timezone,
		CutoffTime:     req.CutoffTime,
		MaxAdvanceDays: req.MaxAdvanceDays,
	}
	if err := s.settings.Update(c.Request().Context(), currentUser(c).UniversityID, cfg); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}
