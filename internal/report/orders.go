// Package report builds manager-facing order exports.
package report

import (
	"fmt"
	"io"

	"mensa/internal/models"
)

var orderColumns = []string{
	"Order", "Date", "Student", "Room", "Item", "Variant", "Qty", "Unit Price", "Subtotal", "Status", "Placed At",
}

// orderRowValues flattens one order line into a report row. Prices
// come from the order line snapshot, not the live menu.
func orderRowValues(o *models.Order, line *models.OrderItem) []interface{} {
	return []interface{}{
		o.Number,
		o.ScheduledFor.Format("2006-01-02"),
		o.UserName,
		o.UserRoom,
		line.ItemName,
		line.VariantName,
		line.Quantity,
		line.Price,
		line.Subtotal(),
		string(o.Status),
		o.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

// WriteOrders renders orders (one row per order line, a summary row
// per sheet) through the given writer.
func WriteOrders(w Writer, orders []models.Order, sheetName string) error {
	if sheetName == "" {
		sheetName = "Orders"
	}
	if err := w.AddSheet(sheetName); err != nil {
		return err
	}
	if err := w.WriteHeader(orderColumns); err != nil {
		return err
	}

	var total int64
	for i := range orders {
		o := &orders[i]
		for j := range o.Items {
			if err := w.WriteRow(orderRowValues(o, &o.Items[j])); err != nil {
				return err
			}
		}
		total += o.Total
	}

	return w.WriteRow([]interface{}{"Total", "", "", "", "", "", "", "", total, "", ""})
}

// OrdersXLSX writes the orders report as an xlsx workbook.
func OrdersXLSX(out io.Writer, orders []models.Order, sheetName string) error {
	w := NewExcelizeWriter()
	defer w.Close()
	if err := WriteOrders(w, orders, sheetName); err != nil {
		return fmt.Errorf("build xlsx report: %w", err)
	}
	return w.Save(out)
}

// OrdersCSV writes the orders report as CSV.
func OrdersCSV(out io.Writer, orders []models.Order) error {
	w := NewCSVWriter()
	defer w.Close()
	if err := WriteOrders(w, orders, "Orders"); err != nil {
		return fmt.Errorf("build csv report: %w", err)
	}
	return w.Save(out)
}
