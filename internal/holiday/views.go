package holiday

import (
	"context"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/repository"
)

// RequestView is a request together with the name of the staff member who raised it.
type RequestView struct {
	*domain.HolidayRequest
	StaffName string `json:"staffName"`
}

// ManagerRequests splits the tenant's requests into the pending queue and the reviewed history.
type ManagerRequests struct {
	Pending  []RequestView `json:"pending"`
	Reviewed []RequestView `json:"reviewed"`
}

// StaffRequests lists the caller's own requests, newest first.
func (w *Workflow) StaffRequests(ctx context.Context, actor domain.Actor) ([]*domain.HolidayRequest, error) {
	if actor.StaffID == nil {
		return nil, domain.ErrForbidden
	}

	return w.store.ListHolidayRequests(ctx, actor.TenantID, repository.HolidayRequestFilter{StaffID: actor.StaffID})
}

// ManagerRequests lists every request of the tenant in pending and reviewed buckets, each newest first.
func (w *Workflow) ManagerRequests(ctx context.Context, actor domain.Actor) (*ManagerRequests, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}

	requests, err := w.store.ListHolidayRequests(ctx, actor.TenantID, repository.HolidayRequestFilter{})
	if err != nil {
		return nil, err
	}
	names, err := staffNames(ctx, w.store, actor.TenantID)
	if err != nil {
		return nil, err
	}

	buckets := &ManagerRequests{
		Pending:  []RequestView{},
		Reviewed: []RequestView{},
	}
	for _, r := range requests {
		view := RequestView{HolidayRequest: r, StaffName: names[r.StaffID]}
		if r.Status == domain.StatusPending {
			buckets.Pending = append(buckets.Pending, view)
		} else {
			buckets.Reviewed = append(buckets.Reviewed, view)
		}
	}

	return buckets, nil
}

// ListHolidays returns holidays intersecting [from, to]. Staff only see their own.
func (w *Workflow) ListHolidays(ctx context.Context, actor domain.Actor, from, to calendar.Date) ([]*domain.Holiday, error) {
	filter := repository.HolidayFilter{From: from, To: to}
	if !actor.IsManager() {
		if actor.StaffID == nil {
			return nil, domain.ErrForbidden
		}
		filter.StaffID = actor.StaffID
	}

	return w.store.ListHolidays(ctx, actor.TenantID, filter)
}

func staffNames(ctx context.Context, q repository.Querier, tenantID int64) (map[int64]string, error) {
	staff, err := q.ListStaff(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(staff))
	for _, s := range staff {
		names[s.ID] = s.Name
	}
	return names, nil
}
