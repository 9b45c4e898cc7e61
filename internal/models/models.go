package models

import (
	"time"
)

// Role is the closed set of user roles. Authorization decisions go
// through the predicates below, never through raw string comparison
// in handlers.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStudent:
		return true
	}
	return false
}

// CanManage reports whether the role may use manager endpoints
// (menu, availability, settings, approvals, reports).
func (r Role) CanManage() bool {
	return r == RoleAdmin || r == RoleManager
}

// IsAdmin reports whether the role may administer tenants and managers.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// ApprovalStatus tracks the student registration workflow.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// CanTransitionTo reports whether a status change is allowed:
// pending -> confirmed -> delivered, and pending/confirmed -> cancelled.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderConfirmed || next == OrderCancelled
	case OrderConfirmed:
		return next == OrderDelivered || next == OrderCancelled
	}
	return false
}

// University is the tenant. Timezone, CutoffTime and MaxAdvanceDays
// together form the scheduled-ordering time config consumed by the
// schedule package.
type University struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Code           string    `json:"code"`
	Timezone       string    `json:"timezone"`
	CutoffTime     string    `json:"order_cutoff_time"` // "HH:mm", local to Timezone
	MaxAdvanceDays int       `json:"max_advance_days"`  // 1..14
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type User struct {
	ID           int64          `json:"id"`
	UniversityID int64          `json:"university_id"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	Name         string         `json:"name"`
	Room         string         `json:"room,omitempty"`
	Role         Role           `json:"role"`
	Approval     ApprovalStatus `json:"approval_status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CanOrder reports whether the user may browse menus and place orders.
func (u *User) CanOrder() bool {
	return u.Role == RoleStudent && u.Approval == ApprovalApproved
}

type MenuItem struct {
	ID           int64     `json:"id"`
	UniversityID int64     `json:"university_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	IsActive     bool      `json:"is_active"`
	SortOrder    int64     `json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Variants []MenuItemVariant `json:"variants,omitempty"`
}

// MenuItemVariant is a priced serving of a menu item. Price is stored
// in minor currency units.
type MenuItemVariant struct {
	ID         int64  `json:"id"`
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	IsActive   bool   `json:"is_active"`
}

// Availability marks a menu item orderable for one calendar date.
// Date is always a UTC-midnight date key; nothing is orderable unless
// a row with IsAvailable=true exists for that (item, date).
type Availability struct {
	MenuItemID  int64     `json:"menu_item_id"`
	Date        time.Time `json:"date"`
	IsAvailable bool      `json:"is_available"`
}

// CartItem is one line of a student's cart, bound to the delivery
// date it was added for. ScheduledFor is a UTC-midnight date key.
type CartItem struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	VariantID    int64     `json:"variant_id"`
	Quantity     int64     `json:"quantity"`
	ScheduledFor time.Time `json:"scheduled_for"`
	CreatedAt    time.Time `json:"created_at"`

	// Joined for display and checkout; not columns of the cart table.
	ItemID    int64  `json:"menu_item_id,omitempty"`
	ItemName  string `json:"item_name,omitempty"`
	ItemLabel string `json:"variant_name,omitempty"`
	Price     int64  `json:"price,omitempty"`
}

type Order struct {
	ID           int64       `json:"id"`
	Number       string      `json:"number"`
	UniversityID int64       `json:"university_id"`
	UserID       int64       `json:"user_id"`
	ScheduledFor time.Time   `json:"scheduled_for"`
	Status       OrderStatus `json:"status"`
	Total        int64       `json:"total"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty"`

	// Joined for reports.
	UserName string `json:"user_name,omitempty"`
	UserRoom string `json:"user_room,omitempty"`
}

// OrderItem snapshots name and unit price at checkout time. Later
// menu or price edits never touch these rows.
type OrderItem struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"order_id"`
	VariantID   int64  `json:"variant_id"`
	ItemName    string `json:"item_name"`
	VariantName string `json:"variant_name"`
	Price       int64  `json:"price"`
	Quantity    int64  `json:"quantity"`
}

// Subtotal is Quantity times the snapshotted unit price.
func (i OrderItem) Subtotal() int64 {
	return i.Price * i.Quantity
}

// PasswordReset holds a hashed reset token. The raw token is only
// ever shown to the mailer; the table stores its SHA-256.
type PasswordReset struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
