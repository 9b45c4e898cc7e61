package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mensa/internal/models"
)

// handleMenu returns the tenant's menu for one delivery date, each
// item annotated with its availability. Unmarked dates read as closed.
func (s *Server) handleMenu(c echo.Context) error {
	user := currentUser(c)

	entries, err := s.menu.MenuForDate(c.Request().Context(), user.UniversityID, c.QueryParam("date"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleMenuItemList(c echo.Context) error {
	items, err := s.menu.ListItems(c.Request().Context(), currentUser(c).UniversityID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleMenuItemCreate(c echo.Context) error {
	var item models.MenuItem
	if err := c.Bind(&item); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	if err := s.menu.CreateItem(c.Request().Context(), currentUser(c).UniversityID, &item); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (s *Server) handleMenuItemUpdate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	var item models.MenuItem
	if err := c.Bind(&item); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}
	item.ID = id

	if err := s.menu.UpdateItem(c.Request().Context(), currentUser(c).UniversityID, &item); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (s *Server) handleVariantCreate(c echo.Context) error {
	itemID, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	var v models.MenuItemVariant
	if err := c.Bind(&v); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}
	v.MenuItemID = itemID

	if err := s.menu.AddVariant(c.Request().Context(), currentUser(c).UniversityID, &v); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (s *Server) handleVariantUpdate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	var v models.MenuItemVariant
	if err := c.Bind(&v); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}
	v.ID = id

	if err := s.menu.UpdateVariant(c.Request().Context(), currentUser(c).UniversityID, &v); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

type availabilityRequest struct {
	MenuItemID int64  `json:"menu_item_id"`
	Date       string `json:"date"` // YYYY-MM-DD
	Available  bool   `json:"available"`
}

// handleAvailabilitySet marks an item orderable (or not) for a date.
// Managers may flip any date, including past ones.
func (s *Server) handleAvailabilitySet(c echo.Context) error {
	var req availabilityRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	err := s.menu.SetAvailability(c.Request().Context(), currentUser(c).UniversityID, req.MenuItemID, req.Date, req.Available)
	if err != nil {
		return mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
