package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mensa/internal/models"
	"mensa/internal/schedule"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateUniversity(ctx context.Context, u *models.University) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) GetUniversity(ctx context.Context, id int64) (*models.University, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.University), args.Error(1)
}
func (m *mockRepo) ListUniversities(ctx context.Context) ([]models.University, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.University), args.Error(1)
}
func (m *mockRepo) UpdateUniversity(ctx context.Context, u *models.University) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) GetTimeConfig(ctx context.Context, id int64) (schedule.TimeConfig, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(schedule.TimeConfig), args.Error(1)
}
func (m *mockRepo) UpdateTimeConfig(ctx context.Context, id int64, cfg schedule.TimeConfig) error {
	return m.Called(ctx, id, cfg).Error(0)
}
func (m *mockRepo) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) ListUsersByApproval(ctx context.Context, id int64, st models.ApprovalStatus) ([]models.User, error) {
	args := m.Called(ctx, id, st)
	return args.Get(0).([]models.User), args.Error(1)
}
func (m *mockRepo) UpdateApproval(ctx context.Context, id int64, st models.ApprovalStatus) error {
	return m.Called(ctx, id, st).Error(0)
}
func (m *mockRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}
func (m *mockRepo) CreateMenuItem(ctx context.Context, i *models.MenuItem) error {
	return m.Called(ctx, i).Error(0)
}
func (m *mockRepo) UpdateMenuItem(ctx context.Context, i *models.MenuItem) error {
	return m.Called(ctx, i).Error(0)
}
func (m *mockRepo) GetMenuItem(ctx context.Context, uid, iid int64) (*models.MenuItem, error) {
	args := m.Called(ctx, uid, iid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MenuItem), args.Error(1)
}
func (m *mockRepo) ListMenuItems(ctx context.Context, uid int64, activeOnly bool) ([]models.MenuItem, error) {
	args := m.Called(ctx, uid, activeOnly)
	return args.Get(0).([]models.MenuItem), args.Error(1)
}
func (m *mockRepo) CreateVariant(ctx context.Context, v *models.MenuItemVariant) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockRepo) UpdateVariant(ctx context.Context, v *models.MenuItemVariant) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockRepo) GetVariant(ctx context.Context, id int64) (*models.MenuItemVariant, *models.MenuItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.MenuItemVariant), args.Get(1).(*models.MenuItem), args.Error(2)
}
func (m *mockRepo) SetAvailability(ctx context.Context, iid int64, d time.Time, a bool) error {
	return m.Called(ctx, iid, d, a).Error(0)
}
func (m *mockRepo) GetAvailability(ctx context.Context, uid int64, d time.Time) (map[int64]bool, error) {
	args := m.Called(ctx, uid, d)
	return args.Get(0).(map[int64]bool), args.Error(1)
}
func (m *mockRepo) IsItemAvailable(ctx context.Context, iid int64, d time.Time) (bool, error) {
	args := m.Called(ctx, iid, d)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepo) AddCartItem(ctx context.Context, i *models.CartItem) error {
	return m.Called(ctx, i).Error(0)
}
func (m *mockRepo) GetCartItems(ctx context.Context, uid int64, d time.Time) ([]models.CartItem, error) {
	args := m.Called(ctx, uid, d)
	return args.Get(0).([]models.CartItem), args.Error(1)
}
func (m *mockRepo) RemoveCartItem(ctx context.Context, uid, cid int64) error {
	return m.Called(ctx, uid, cid).Error(0)
}
func (m *mockRepo) UpdateCartQuantity(ctx context.Context, uid, cid, q int64) error {
	return m.Called(ctx, uid, cid, q).Error(0)
}
func (m *mockRepo) CreateOrderWithCartClear(ctx context.Context, o *models.Order) error {
	return m.Called(ctx, o).Error(0)
}
func (m *mockRepo) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}
func (m *mockRepo) ListUserOrders(ctx context.Context, uid int64) ([]models.Order, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).([]models.Order), args.Error(1)
}
func (m *mockRepo) ListOrdersByDateRange(ctx context.Context, uid int64, f, t time.Time) ([]models.Order, error) {
	args := m.Called(ctx, uid, f, t)
	return args.Get(0).([]models.Order), args.Error(1)
}
func (m *mockRepo) UpdateOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}
func (m *mockRepo) CreatePasswordReset(ctx context.Context, r *models.PasswordReset) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockRepo) ConsumePasswordReset(ctx context.Context, h string, now time.Time) (*models.PasswordReset, error) {
	args := m.Called(ctx, h, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PasswordReset), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

var testCfg = schedule.TimeConfig{
	Timezone:       "Asia/Ho_Chi_Minh",
	CutoffTime:     "20:00",
	MaxAdvanceDays: 7,
}

func hcmTime(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	tm, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc)
	require.NoError(t, err)
	return tm
}

func newOrderService(repo Repository, bus EventBus, now time.Time) *OrderService {
	logger := zerolog.New(io.Discard)
	svc := NewOrderService(repo, bus, &logger)
	svc.now = func() time.Time { return now }
	return svc
}

func TestOrderService_Checkout(t *testing.T) {
	ctx := context.Background()
	student := &models.User{ID: 5, UniversityID: 1, Role: models.RoleStudent, Approval: models.ApprovalApproved}
	dateKey := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		// One item at price 30, ordered on 2025-03-14 10:00 local
		// for delivery 2025-03-15.
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newOrderService(repo, bus, hcmTime(t, "2025-03-14T10:00:00"))

		repo.On("GetTimeConfig", ctx, int64(1)).Return(testCfg, nil).Once()
		repo.On("GetCartItems", ctx, int64(5), dateKey).Return([]models.CartItem{
			{ID: 1, UserID: 5, VariantID: 11, ItemID: 3, ItemName: "Pho", ItemLabel: "Regular", Price: 30, Quantity: 1, ScheduledFor: dateKey},
		}, nil).Once()
		repo.On("IsItemAvailable", ctx, int64(3), dateKey).Return(true, nil).Once()
		repo.On("CreateOrderWithCartClear", ctx, mock.Anything).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

		order, err := svc.Checkout(ctx, student, "2025-03-15")
		require.NoError(t, err)
		assert.Equal(t, int64(30), order.Total)
		assert.Equal(t, models.OrderPending, order.Status)
		assert.Equal(t, dateKey, order.ScheduledFor)
		require.Len(t, order.Items, 1)
		assert.Equal(t, int64(30), order.Items[0].Price)
		assert.NotEmpty(t, order.Number)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("BadDate", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newOrderService(repo, new(mockEventBus), hcmTime(t, "2025-03-14T10:00:00"))

		_, err := svc.Checkout(ctx, student, "15-03-2025")
		assert.ErrorIs(t, err, ErrBadDate)
		repo.AssertNotCalled(t, "CreateOrderWithCartClear", mock.Anything, mock.Anything)
	})

	t.Run("WindowExceeded", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newOrderService(repo, new(mockEventBus), hcmTime(t, "2025-03-14T10:00:00"))
		repo.On("GetTimeConfig", ctx, int64(1)).Return(testCfg, nil).Once()

		_, err := svc.Checkout(ctx, student, "2025-03-22") // D+8
		assert.ErrorIs(t, err, ErrWindowExceeded)
		repo.AssertExpectations(t)
	})

	t.Run("WindowBoundaryAllowed", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newOrderService(repo, bus, hcmTime(t, "2025-03-14T10:00:00"))
		boundary := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC) // D+7

		repo.On("GetTimeConfig", ctx, int64(1)).Return(testCfg, nil).Once()
		repo.On("GetCartItems", ctx, int64(5), boundary).Return([]models.CartItem{
			{ID: 1, UserID: 5, VariantID: 11, ItemID: 3, Price: 30, Quantity: 1},
		}, nil).Once()
		repo.On("IsItemAvailable", ctx, int64(3), boundary).Return(true, nil).Once()
		repo.On("CreateOrderWithCartClear", ctx, mock.Anything).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

		_, err := svc.Checkout(ctx, student, "2025-03-21")
		assert.NoError(t, err)
	})

	t.Run("CutoffPassed", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newOrderService(repo, new(mockEventBus), hcmTime(t, "2025-03-14T20:01:00"))
		repo.On("GetTimeConfig", ctx, int64(1)).Return(testCfg, nil).Once()

		_, err := svc.Checkout(ctx, student, "2025-03-15")
		assert.ErrorIs(t, err, ErrCutoffPassed)
	})

	t.Run("SameDayRejected", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newOrderService(repo, new(mockEventBus), hcmTime(t, "2025-03-15T09:00:00"))
		repo.On("GetTimeConfig", ctx, int64(1)).Return(testCfg, nil).Once()

		_, err := svc.Checkout(ctx, student, "2025-03-15")
		assert.ErrorIs(t, err, ErrCutoffPassed)
	})

	t.Run("UnavailableLineBlocksWholeOrder", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newOrderService(repo, new(mockEventBus), hcmTime(t, "2025-03-14T10:00:00"))

		repo.On("GetTimeConfig", ctx, int64(1)).Return(testCfg, nil).Once()
		repo.On("GetCartItems", ctx, int64(5), dateKey).Return([]models.CartItem{
			{ID: 1, VariantID: 11, ItemID: 3, Price: 30, Quantity: 1},
			{ID: 2, VariantID: 12, ItemID: 4, Price: 45, Quantity: 2},
		}, nil).Once()
		repo.On("IsItemAvailable", ctx, int64(3), dateKey).Return(true, nil).Once()
		repo.On("IsItemAvailable", ctx, int64(4), dateKey).Return(false, nil).Once()

		_, err := svc.Checkout(ctx, student, "2025-03-15")
		assert.ErrorIs(t, err, ErrItemUnavailable)
		// Atomicity: nothing persisted, cart untouched.
		repo.AssertNotCalled(t, "CreateOrderWithCartClear", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("UnmarkedAvailabilityBlocksToo", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newOrderService(repo, new(mockEventBus), hcmTime(t, "2025-03-14T10:00:00"))

		repo.On("GetTimeConfig", ctx, int64(1)).Return(testCfg, nil).Once()
		repo.On("GetCartItems", ctx, int64(5), dateKey).Return([]models.CartItem{
			{ID: 1, VariantID: 11, ItemID: 3, Price: 30, Quantity: 1},
		}, nil).Once()
		// Default closed: absent rows read as false.
		repo.On("IsItemAvailable", ctx, int64(3), dateKey).Return(false, nil).Once()

		_, err := svc.Checkout(ctx, student, "2025-03-15")
		assert.ErrorIs(t, err, ErrItemUnavailable)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newOrderService(repo, new(mockEventBus), hcmTime(t, "2025-03-14T10:00:00"))

		repo.On("GetTimeConfig", ctx, int64(1)).Return(testCfg, nil).Once()
		repo.On("GetCartItems", ctx, int64(5), dateKey).Return([]models.CartItem{}, nil).Once()

		_, err := svc.Checkout(ctx, student, "2025-03-15")
		assert.ErrorIs(t, err, ErrCartEmpty)
	})

	t.Run("PendingStudentRejected", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newOrderService(repo, new(mockEventBus), hcmTime(t, "2025-03-14T10:00:00"))
		pending := &models.User{ID: 6, UniversityID: 1, Role: models.RoleStudent, Approval: models.ApprovalPending}

		_, err := svc.Checkout(ctx, pending, "2025-03-15")
		assert.ErrorIs(t, err, ErrNotApproved)
	})

	t.Run("NotificationFailureDoesNotFailCheckout", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newOrderService(repo, bus, hcmTime(t, "2025-03-14T10:00:00"))

		repo.On("GetTimeConfig", ctx, int64(1)).Return(testCfg, nil).Once()
		repo.On("GetCartItems", ctx, int64(5), dateKey).Return([]models.CartItem{
			{ID: 1, VariantID: 11, ItemID: 3, Price: 30, Quantity: 1},
		}, nil).Once()
		repo.On("IsItemAvailable", ctx, int64(3), dateKey).Return(true, nil).Once()
		repo.On("CreateOrderWithCartClear", ctx, mock.Anything).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

		_, err := svc.Checkout(ctx, student, "2025-03-15")
		assert.NoError(t, err)
	})
}

func TestOrderService_PriceSnapshot(t *testing.T) {
	// The order line keeps the price captured at checkout; the cart
	// line (standing in for the live variant) can change afterwards
	// without touching the order.
	ctx := context.Background()
	repo := new(mockRepo)
	bus := new(mockEventBus)
	svc := newOrderService(repo, bus, hcmTime(t, "2025-03-14T10:00:00"))
	student := &models.User{ID: 5, UniversityID: 1, Role: models.RoleStudent, Approval: models.ApprovalApproved}
	dateKey := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	line := models.CartItem{ID: 1, VariantID: 11, ItemID: 3, ItemName: "Pho", ItemLabel: "Large", Price: 30, Quantity: 2}
	repo.On("GetTimeConfig", ctx, int64(1)).Return(testCfg, nil).Once()
	repo.On("GetCartItems", ctx, int64(5), dateKey).Return([]models.CartItem{line}, nil).Once()
	repo.On("IsItemAvailable", ctx, int64(3), dateKey).Return(true, nil).Once()
	repo.On("CreateOrderWithCartClear", ctx, mock.Anything).Return(nil).Once()
	bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

	order, err := svc.Checkout(ctx, student, "2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, int64(60), order.Total)

	line.Price = 99 // manager edits the price later
	assert.Equal(t, int64(30), order.Items[0].Price)
	assert.Equal(t, int64(60), order.Total)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	manager := &models.User{ID: 2, UniversityID: 1, Role: models.RoleManager}

	t.Run("AllowedTransition", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newOrderService(repo, bus, time.Now())

		repo.On("GetOrder", ctx, int64(10)).Return(&models.Order{ID: 10, UniversityID: 1, Status: models.OrderPending}, nil).Once()
		repo.On("UpdateOrderStatus", ctx, int64(10), models.OrderPending, models.OrderConfirmed).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

		order, err := svc.UpdateStatus(ctx, manager, 10, models.OrderConfirmed)
		require.NoError(t, err)
		assert.Equal(t, models.OrderConfirmed, order.Status)
		repo.AssertExpectations(t)
	})

	t.Run("IllegalTransition", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newOrderService(repo, new(mockEventBus), time.Now())

		repo.On("GetOrder", ctx, int64(10)).Return(&models.Order{ID: 10, UniversityID: 1, Status: models.OrderDelivered}, nil).Once()

		_, err := svc.UpdateStatus(ctx, manager, 10, models.OrderConfirmed)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		repo.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ForeignTenant", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newOrderService(repo, new(mockEventBus), time.Now())

		repo.On("GetOrder", ctx, int64(10)).Return(&models.Order{ID: 10, UniversityID: 2, Status: models.OrderPending}, nil).Once()

		_, err := svc.UpdateStatus(ctx, manager, 10, models.OrderConfirmed)
		assert.ErrorIs(t, err, ErrWrongTenant)
	})
}
