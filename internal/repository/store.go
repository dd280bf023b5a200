package repository

import (
	"context"
	"time"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/domain"
)

// ShiftFilter selects shifts whose start time lies in [From, To). Zero bounds are open and
// a nil IDs matches any shift.
type ShiftFilter struct {
	IDs     []int64
	StaffID *int64
	From    time.Time
	To      time.Time
}

// HolidayFilter selects holidays intersecting [From, To] (inclusive). Zero bounds are open.
type HolidayFilter struct {
	StaffID *int64
	From    calendar.Date
	To      calendar.Date
}

// HolidayRequestFilter selects holiday requests; an empty Status matches every status.
type HolidayRequestFilter struct {
	StaffID *int64
	Status  domain.RequestStatus
	From    calendar.Date
	To      calendar.Date
}

type SwapRequestFilter struct {
	ShiftID     *int64
	RequestedBy *int64
	Status      domain.RequestStatus
}

// Querier is the tenant-scoped read/write surface over the rota entities. Point reads
// return domain.ErrNotFound when the id does not resolve inside the tenant; every other
// failure of the underlying store is a *domain.StoreError.
type Querier interface {
	GetAccountByID(ctx context.Context, id int64) (*domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	InsertAccount(ctx context.Context, account *domain.Account) error
	InsertTenant(ctx context.Context, tenant *domain.Tenant) error
	GetMembership(ctx context.Context, tenantID, accountID int64) (*domain.Membership, error)
	UpsertMembership(ctx context.Context, membership *domain.Membership) error

	GetStaff(ctx context.Context, tenantID, id int64) (*domain.Staff, error)
	GetStaffByLinkedUser(ctx context.Context, tenantID, accountID int64) (*domain.Staff, error)
	ListStaff(ctx context.Context, tenantID int64) ([]*domain.Staff, error)
	InsertStaff(ctx context.Context, staff *domain.Staff) error
	DeleteStaff(ctx context.Context, tenantID, id int64) error

	GetShift(ctx context.Context, tenantID, id int64) (*domain.Shift, error)
	ListShifts(ctx context.Context, tenantID int64, filter ShiftFilter) ([]*domain.Shift, error)
	InsertShift(ctx context.Context, shift *domain.Shift) error
	UpdateShift(ctx context.Context, shift *domain.Shift) error
	DeleteShift(ctx context.Context, tenantID, id int64) error
	DeleteShifts(ctx context.Context, tenantID int64, ids []int64) error

	ListHolidays(ctx context.Context, tenantID int64, filter HolidayFilter) ([]*domain.Holiday, error)
	InsertHoliday(ctx context.Context, holiday *domain.Holiday) error

	GetHolidayRequest(ctx context.Context, tenantID, id int64) (*domain.HolidayRequest, error)
	ListHolidayRequests(ctx context.Context, tenantID int64, filter HolidayRequestFilter) ([]*domain.HolidayRequest, error)
	InsertHolidayRequest(ctx context.Context, request *domain.HolidayRequest) error
	UpdateHolidayRequest(ctx context.Context, request *domain.HolidayRequest) error

	GetSwapRequest(ctx context.Context, tenantID, id int64) (*domain.SwapRequest, error)
	ListSwapRequests(ctx context.Context, tenantID int64, filter SwapRequestFilter) ([]*domain.SwapRequest, error)
	InsertSwapRequest(ctx context.Context, request *domain.SwapRequest) error
	UpdateSwapRequest(ctx context.Context, request *domain.SwapRequest) error
}

// Store adds transactions: fn runs against a Querier whose writes commit together or not at all.
type Store interface {
	Querier
	WithTx(ctx context.Context, fn func(q Querier) error) error
}
