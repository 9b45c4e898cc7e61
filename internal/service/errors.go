package service

import (
	"errors"

	"mensa/internal/schedule"
)

// Expected, user-facing rejections. Handlers map these to 4xx
// responses; they are never logged as server errors.
var (
	// ErrBadDate mirrors the normalizer's parse failure.
	ErrBadDate = schedule.ErrBadDate

	// ErrWindowExceeded: delivery date beyond the tenant's advance window.
	ErrWindowExceeded = errors.New("selected date is beyond allowed window")

	// ErrCutoffPassed: the day-before cutoff for the delivery date elapsed.
	ErrCutoffPassed = errors.New("cutoff time has passed for the selected date")

	// ErrItemUnavailable: a cart line is not marked available for the date.
	ErrItemUnavailable = errors.New("some items are not available for the selected date")

	// ErrCartEmpty: nothing in the cart for the requested date.
	ErrCartEmpty = errors.New("cart is empty for the selected date")

	// ErrNotApproved: the student's registration is not approved yet.
	ErrNotApproved = errors.New("account is awaiting approval")

	// ErrInvalidCredentials: login failure, deliberately unspecific.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrWrongTenant: the resource belongs to another university.
	ErrWrongTenant = errors.New("resource belongs to another university")

	// ErrInvalidTransition: order status change not allowed from the
	// current state.
	ErrInvalidTransition = errors.New("order status transition not allowed")

	// ErrValidation marks input validation failures. Match with
	// errors.Is; the concrete message comes from validation().
	ErrValidation = errors.New("validation failed")
)

type validationError struct{ msg string }

func (e *validationError) Error() string        { return e.msg }
func (e *validationError) Is(target error) bool { return target == ErrValidation }

func validation(msg string) error { return &validationError{msg: msg} }

// IsRejection reports whether err is one of the expected user-facing
// rejections rather than an unexpected server error.
func IsRejection(err error) bool {
	for _, e := range []error{
		ErrBadDate, ErrWindowExceeded, ErrCutoffPassed, ErrItemUnavailable,
		ErrCartEmpty, ErrNotApproved, ErrInvalidCredentials, ErrWrongTenant,
		ErrInvalidTransition, ErrValidation,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
