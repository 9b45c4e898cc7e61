package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleCartList(c echo.Context) error {
	items, err := s.cart.List(c.Request().Context(), currentUser(c).ID, c.QueryParam("date"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

type cartAddRequest struct {
	VariantID    int64  `json:"variant_id"`
	Quantity     int64  `json:"quantity"`
	ScheduledFor string `json:"scheduled_for"` // YYYY-MM-DD
}

func (s *Server) handleCartAdd(c echo.Context) error {
	var req cartAddRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	item, err := s.cart.Add(c.Request().Context(), currentUser(c), req.VariantID, req.Quantity, req.ScheduledFor)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

type cartUpdateRequest struct {
	Quantity int64 `json:"quantity"`
}

// handleCartUpdate sets a line's quantity; zero removes the line.
func (s *Server) handleCartUpdate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	var req cartUpdateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	if err := s.cart.SetQuantity(c.Request().Context(), currentUser(c).ID, id, req.Quantity); err != nil {
		return mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCartRemove(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	if err := s.cart.Remove(c.Request().Context(), currentUser(c).ID, id); err != nil {
		return mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
