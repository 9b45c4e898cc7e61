// Package sheets mirrors a tenant's orders into a Google Spreadsheet
// so kitchen staff can work from a live sheet. Sync is best effort
// and asynchronous; the ordering path never waits on it.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	gsheets "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"

	"mensa/internal/events"
	"mensa/internal/models"
)

// SheetsService appends and updates order rows in one spreadsheet.
type SheetsService struct {
	svc           *gsheets.Service
	spreadsheetID string
	sheetName     string
	logger        zerolog.Logger

	mu       sync.Mutex
	rowCache map[int64]int // order id -> sheet row
}

// New builds a service from a service-account credentials file.
func New(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *zerolog.Logger) (*SheetsService, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(data, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	svc, err := gsheets.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	if sheetName == "" {
		sheetName = "Orders"
	}
	return &SheetsService{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.With().Str("component", "sheets").Logger(),
		rowCache:      make(map[int64]int),
	}, nil
}

// orderRowValues is the spreadsheet row for one order.
func orderRowValues(o *models.Order) []interface{} {
	var items string
	for i, line := range o.Items {
		if i > 0 {
			items += "; "
		}
		items += fmt.Sprintf("%dx %s (%s)", line.Quantity, line.ItemName, line.VariantName)
	}
	return []interface{}{
		o.ID,
		o.Number,
		o.ScheduledFor.Format("2006-01-02"),
		o.UserName,
		o.UserRoom,
		items,
		o.Total,
		string(o.Status),
		o.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

// filterActiveOrders drops cancelled orders from a sync batch.
func (s *SheetsService) filterActiveOrders(orders []models.Order) []models.Order {
	active := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status != models.OrderCancelled {
			active = append(active, o)
		}
	}
	return active
}

// AppendOrder adds a row for the order and remembers where it landed.
func (s *SheetsService) AppendOrder(ctx context.Context, o *models.Order) error {
	resp, err := s.svc.Spreadsheets.Values.Append(
		s.spreadsheetID,
		s.sheetName,
		&gsheets.ValueRange{Values: [][]interface{}{orderRowValues(o)}},
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append order %d: %w", o.ID, err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		if row, ok := rowFromRange(resp.Updates.UpdatedRange); ok {
			s.setCachedRow(o.ID, row)
		}
	}
	return nil
}

// UpdateOrder rewrites the order's row in place when its position is
// known, appending otherwise.
func (s *SheetsService) UpdateOrder(ctx context.Context, o *models.Order) error {
	row, ok := s.getCachedRow(o.ID)
	if !ok {
		return s.AppendOrder(ctx, o)
	}

	rng := fmt.Sprintf("%s!A%d", s.sheetName, row)
	_, err := s.svc.Spreadsheets.Values.Update(
		s.spreadsheetID,
		rng,
		&gsheets.ValueRange{Values: [][]interface{}{orderRowValues(o)}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		s.deleteCacheRow(o.ID)
		return fmt.Errorf("update order %d: %w", o.ID, err)
	}
	return nil
}

// SyncOrders replaces the sheet contents with a fresh batch, skipping
// cancelled orders.
func (s *SheetsService) SyncOrders(ctx context.Context, orders []models.Order) error {
	active := s.filterActiveOrders(orders)

	values := [][]interface{}{
		{"ID", "Number", "Date", "Student", "Room", "Items", "Total", "Status", "Placed At"},
	}
	for i := range active {
		values = append(values, orderRowValues(&active[i]))
	}

	if _, err := s.svc.Spreadsheets.Values.Clear(
		s.spreadsheetID, s.sheetName, &gsheets.ClearValuesRequest{},
	).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}
	if _, err := s.svc.Spreadsheets.Values.Update(
		s.spreadsheetID,
		fmt.Sprintf("%s!A1", s.sheetName),
		&gsheets.ValueRange{Values: values},
	).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}

	s.ClearCache()
	s.mu.Lock()
	for i := range active {
		s.rowCache[active[i].ID] = i + 2 // header occupies row 1
	}
	s.mu.Unlock()
	return nil
}

func (s *SheetsService) getCachedRow(orderID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rowCache[orderID]
	return row, ok
}

func (s *SheetsService) setCachedRow(orderID int64, row int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache[orderID] = row
}

func (s *SheetsService) deleteCacheRow(orderID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rowCache, orderID)
}

// ClearCache drops all cached row positions.
func (s *SheetsService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache = make(map[int64]int)
}

// rowFromRange extracts the row number from an A1 range like
// "Orders!A5:I5".
func rowFromRange(a1 string) (int, bool) {
	row := 0
	seen := false
	for _, r := range a1 {
		if r >= '0' && r <= '9' {
			row = row*10 + int(r-'0')
			seen = true
			continue
		}
		if seen {
			break
		}
	}
	return row, seen && row > 0
}

// Subscribe syncs on order events. Each event is handled in its own
// goroutine so a slow Sheets call never blocks the publisher.
func (s *SheetsService) Subscribe(bus *events.EventBus) {
	handle := func(fn func(context.Context, *models.Order) error) events.EventHandler {
		return func(event events.Event) error {
			var order models.Order
			if err := json.Unmarshal(event.Payload, &order); err != nil {
				s.logger.Error().Err(err).Str("type", event.Type).Msg("decode event payload")
				return nil
			}
			go func() {
				if err := fn(context.Background(), &order); err != nil {
					s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("sheets sync failed")
				}
			}()
			return nil
		}
	}

	bus.Subscribe(events.TypeOrderCreated, handle(s.AppendOrder))
	bus.Subscribe(events.TypeOrderStatus, handle(s.UpdateOrder))
}
