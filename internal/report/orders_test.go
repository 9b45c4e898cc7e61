package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mensa/internal/models"
)

func sampleOrders() []models.Order {
	created := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	return []models.Order{
		{
			ID: 1, Number: "ord-1", ScheduledFor: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			Status: models.OrderPending, Total: 90, CreatedAt: created,
			UserName: "Anh", UserRoom: "B-204",
			Items: []models.OrderItem{
				{ItemName: "Pho", VariantName: "Regular", Price: 30, Quantity: 1},
				{ItemName: "Banh Mi", VariantName: "Large", Price: 30, Quantity: 2},
			},
		},
	}
}

func TestOrderRowValues(t *testing.T) {
	orders := sampleOrders()
	values := orderRowValues(&orders[0], &orders[0].Items[1])

	expected := []interface{}{
		"ord-1",
		"2025-03-15",
		"Anh",
		"B-204",
		"Banh Mi",
		"Large",
		int64(2),
		int64(30),
		int64(60),
		"pending",
		"2025-03-14 10:00:00",
	}
	require.Len(t, values, len(expected))
	for i, v := range values {
		assert.Equal(t, expected[i], v, "column %d", i)
	}
}

func TestOrdersCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, OrdersCSV(&buf, sampleOrders()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4) // header + 2 lines + total
	assert.Contains(t, lines[0], "Order,Date,Student")
	assert.Contains(t, lines[1], "Pho")
	assert.Contains(t, lines[2], "Banh Mi")
	assert.Contains(t, lines[3], "Total")
	assert.Contains(t, lines[3], "90")
}

func TestOrdersXLSX_Writes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, OrdersXLSX(&buf, sampleOrders(), "March"))
	assert.NotZero(t, buf.Len())
}
