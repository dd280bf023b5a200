package domain

import (
	"errors"
	"fmt"
)

// Error kinds the rota core distinguishes. Callers match them with errors.Is.
var (
	ErrInvalidRange            = errors.New("end must not be before start")
	ErrOverlapsApprovedHoliday = errors.New("overlaps an approved holiday")
	ErrOverlapsPendingRequest  = errors.New("overlaps a pending holiday request")
	ErrHolidayConflict         = errors.New("staff member is on holiday that day")
	ErrDuplicatePending        = errors.New("shift already has a pending swap request")
	ErrNotFound                = errors.New("not found")
	ErrStoreFailure            = errors.New("store failure")

	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyResolved = errors.New("request has already been resolved")
	ErrForbidden       = errors.New("not allowed")
	ErrNotShiftOwner   = errors.New("shift is not held by the requesting staff member")
	ErrIneligibleStaff = errors.New("staff member cannot take this shift")
	ErrSelfApproval    = errors.New("cannot review your own request")
	ErrCascadeDeclined = errors.New("removal of overlapping shifts was not confirmed")
	ErrSlotOccupied    = errors.New("staff member already has a shift that day")
	ErrBusy            = errors.New("another review for this staff member is in progress")
)

// CascadeError reports how many shifts a holiday would remove when the caller declined
// (or has not yet confirmed) their removal.
type CascadeError struct {
	Count int
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("holiday overlaps %d shift(s); removal must be confirmed", e.Count)
}

func (e *CascadeError) Unwrap() error {
	return ErrCascadeDeclined
}

// StoreError wraps a failure of the entity store. It matches both ErrStoreFailure and the cause.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreFailure, e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreFailure, e.Err}
}
