package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"mensa/internal/models"
	"mensa/internal/report"
)

type checkoutRequest struct {
	ScheduledFor string `json:"scheduled_for"` // YYYY-MM-DD
}

// handleCheckout turns the user's cart for the requested date into an
// order. Window, cutoff and availability checks all happen in the
// service; any rejection leaves the cart untouched.
func (s *Server) handleCheckout(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	order, err := s.orders.Checkout(c.Request().Context(), currentUser(c), req.ScheduledFor)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (s *Server) handleOrderList(c echo.Context) error {
	orders, err := s.orders.ListOrders(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (s *Server) handleOrderGet(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	order, err := s.orders.GetOrder(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (s *Server) handleOrderCancel(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	order, err := s.orders.CancelOwn(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

func (s *Server) handleOrderStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid JSON body")
	}

	order, err := s.orders.UpdateStatus(c.Request().Context(), currentUser(c), id, req.Status)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// handleOrdersByRange lists a tenant's orders for a delivery-date
// range, lines included. Used by the kitchen view.
func (s *Server) handleOrdersByRange(c echo.Context) error {
	orders, err := s.orders.OrdersForReport(c.Request().Context(), currentUser(c).UniversityID,
		c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// handleOrderReport streams the same range as a spreadsheet download.
// ?format=csv switches from the default xlsx.
func (s *Server) handleOrderReport(c echo.Context) error {
	from, to := c.QueryParam("from"), c.QueryParam("to")

	orders, err := s.orders.OrdersForReport(c.Request().Context(), currentUser(c).UniversityID, from, to)
	if err != nil {
		return mapError(c, err)
	}

	var buf bytes.Buffer
	sheetName := fmt.Sprintf("Orders %s to %s", from, to)

	switch c.QueryParam("format") {
	case "", "xlsx":
		if err := report.OrdersXLSX(&buf, orders, sheetName); err != nil {
			return mapError(c, err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=orders_%s_%s.xlsx", from, to))
		return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	case "csv":
		if err := report.OrdersCSV(&buf, orders); err != nil {
			return mapError(c, err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=orders_%s_%s.csv", from, to))
		return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
	default:
		return respondError(c, http.StatusBadRequest, "format must be xlsx or csv")
	}
}
