package memory

import (
	"github.com/rotadesk/backend/internal/domain"
)

type membershipKey struct {
	tenantID  int64
	accountID int64
}

// state is one consistent snapshot of every table.
type state struct {
	nextID int64

	tenants         map[int64]*domain.Tenant
	accounts        map[int64]*domain.Account
	memberships     map[membershipKey]*domain.Membership
	staff           map[int64]*domain.Staff
	shifts          map[int64]*domain.Shift
	holidays        map[int64]*domain.Holiday
	holidayRequests map[int64]*domain.HolidayRequest
	swapRequests    map[int64]*domain.SwapRequest
}

func newState() *state {
	return &state{
		tenants:         map[int64]*domain.Tenant{},
		accounts:        map[int64]*domain.Account{},
		memberships:     map[membershipKey]*domain.Membership{},
		staff:           map[int64]*domain.Staff{},
		shifts:          map[int64]*domain.Shift{},
		holidays:        map[int64]*domain.Holiday{},
		holidayRequests: map[int64]*domain.HolidayRequest{},
		swapRequests:    map[int64]*domain.SwapRequest{},
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// clone copies the maps; the rows are immutable once stored, so they are shared.
func (s *state) clone() *state {
	c := &state{
		nextID:          s.nextID,
		tenants:         make(map[int64]*domain.Tenant, len(s.tenants)),
		accounts:        make(map[int64]*domain.Account, len(s.accounts)),
		memberships:     make(map[membershipKey]*domain.Membership, len(s.memberships)),
		staff:           make(map[int64]*domain.Staff, len(s.staff)),
		shifts:          make(map[int64]*domain.Shift, len(s.shifts)),
		holidays:        make(map[int64]*domain.Holiday, len(s.holidays)),
		holidayRequests: make(map[int64]*domain.HolidayRequest, len(s.holidayRequests)),
		swapRequests:    make(map[int64]*domain.SwapRequest, len(s.swapRequests)),
	}
	for k, v := range s.tenants {
		c.tenants[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.memberships {
		c.memberships[k] = v
	}
	for k, v := range s.staff {
		c.staff[k] = v
	}
	for k, v := range s.shifts {
		c.shifts[k] = v
	}
	for k, v := range s.holidays {
		c.holidays[k] = v
	}
	for k, v := range s.holidayRequests {
		c.holidayRequests[k] = v
	}
	for k, v := range s.swapRequests {
		c.swapRequests[k] = v
	}
	return c
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyStaff(s *domain.Staff) *domain.Staff {
	c := *s
	c.LinkedUserID = cloneInt64(s.LinkedUserID)
	if s.Role != nil {
		role := *s.Role
		c.Role = &role
	}
	return &c
}

func copyShift(s *domain.Shift) *domain.Shift {
	c := *s
	c.StaffID = cloneInt64(s.StaffID)
	return &c
}

func copyHoliday(h *domain.Holiday) *domain.Holiday {
	c := *h
	c.Reason = cloneString(h.Reason)
	c.CreatedBy = cloneInt64(h.CreatedBy)
	return &c
}

func copyHolidayRequest(r *domain.HolidayRequest) *domain.HolidayRequest {
	c := *r
	c.Note = cloneString(r.Note)
	c.ReviewedBy = cloneInt64(r.ReviewedBy)
	if r.ReviewedAt != nil {
		t := *r.ReviewedAt
		c.ReviewedAt = &t
	}
	return &c
}

func copySwapRequest(r *domain.SwapRequest) *domain.SwapRequest {
	c := *r
	c.RequestedWith = cloneInt64(r.RequestedWith)
	c.ReviewedBy = cloneInt64(r.ReviewedBy)
	if r.ReviewedAt != nil {
		t := *r.ReviewedAt
		c.ReviewedAt = &t
	}
	return &c
}
