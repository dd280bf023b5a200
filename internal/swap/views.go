package swap

import (
	"context"
	"fmt"
	"time"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/repository"
)

// OpenTarget is shown in place of a target name when any colleague may take the shift.
const OpenTarget = "open"

// View is a swap request with the details needed to display it.
type View struct {
	*domain.SwapRequest
	ShiftDay           calendar.Date `json:"shiftDay"`
	ShiftStart         string        `json:"shiftStart"`
	ShiftEnd           string        `json:"shiftEnd"`
	RoleTag            string        `json:"roleTag"`
	ShiftLabel         string        `json:"shiftLabel"`
	RequesterName      string        `json:"requesterName"`
	RequesterAccountID *int64        `json:"requesterAccountID"`
	TargetName         string        `json:"targetName"`
}

type ManagerSwaps struct {
	Pending  []View `json:"pending"`
	Resolved []View `json:"resolved"`
}

func shiftLabel(shift *domain.Shift, loc *time.Location) string {
	return fmt.Sprintf("%s %s-%s",
		shift.StartTime.In(loc).Format("Mon 02 Jan"),
		calendar.ClockOf(shift.StartTime, loc),
		calendar.ClockOf(shift.EndTime, loc),
	)
}

// StaffSwaps lists the swaps the caller created, newest first.
func (w *Workflow) StaffSwaps(ctx context.Context, actor domain.Actor) ([]View, error) {
	if actor.StaffID == nil {
		return nil, domain.ErrForbidden
	}

	requests, err := w.store.ListSwapRequests(ctx, actor.TenantID, repository.SwapRequestFilter{RequestedBy: actor.StaffID})
	if err != nil {
		return nil, err
	}

	return w.views(ctx, actor.TenantID, requests)
}

// ManagerSwaps lists every swap of the tenant split into pending and resolved, newest first.
func (w *Workflow) ManagerSwaps(ctx context.Context, actor domain.Actor) (*ManagerSwaps, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}

	requests, err := w.store.ListSwapRequests(ctx, actor.TenantID, repository.SwapRequestFilter{})
	if err != nil {
		return nil, err
	}
	views, err := w.views(ctx, actor.TenantID, requests)
	if err != nil {
		return nil, err
	}

	buckets := &ManagerSwaps{Pending: []View{}, Resolved: []View{}}
	for _, v := range views {
		if v.Status == domain.StatusPending {
			buckets.Pending = append(buckets.Pending, v)
		} else {
			buckets.Resolved = append(buckets.Resolved, v)
		}
	}

	return buckets, nil
}

func (w *Workflow) views(ctx context.Context, tenantID int64, requests []*domain.SwapRequest) ([]View, error) {
	staff, err := w.store.ListStaff(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.Staff, len(staff))
	for _, s := range staff {
		byID[s.ID] = s
	}

	shiftIDs := make([]int64, 0, len(requests))
	for _, r := range requests {
		shiftIDs = append(shiftIDs, r.ShiftID)
	}
	shifts := map[int64]*domain.Shift{}
	if len(shiftIDs) > 0 {
		rows, err := w.store.ListShifts(ctx, tenantID, repository.ShiftFilter{IDs: shiftIDs})
		if err != nil {
			return nil, err
		}
		for _, s := range rows {
			shifts[s.ID] = s
		}
	}

	loc := w.rota.Location()
	views := make([]View, 0, len(requests))
	for _, r := range requests {
		v := View{SwapRequest: r, TargetName: OpenTarget}

		if requester, ok := byID[r.RequestedBy]; ok {
			v.RequesterName = requester.Name
			v.RequesterAccountID = requester.LinkedUserID
		}
		if r.RequestedWith != nil {
			if target, ok := byID[*r.RequestedWith]; ok {
				v.TargetName = target.Name
			}
		}

		// a deleted shift keeps the request visible without its details
		if shift, ok := shifts[r.ShiftID]; ok {
			v.ShiftDay = calendar.DateIn(shift.StartTime, loc)
			v.ShiftStart = calendar.ClockOf(shift.StartTime, loc).String()
			v.ShiftEnd = calendar.ClockOf(shift.EndTime, loc).String()
			v.RoleTag = shift.RoleTag
			v.ShiftLabel = shiftLabel(shift, loc)
		}

		views = append(views, v)
	}

	return views, nil
}

// OfferableShifts lists the caller's shifts starting from now that have no pending swap.
func (w *Workflow) OfferableShifts(ctx context.Context, actor domain.Actor) ([]*domain.Shift, error) {
	if actor.StaffID == nil {
		return nil, domain.ErrForbidden
	}

	shifts, err := w.store.ListShifts(ctx, actor.TenantID, repository.ShiftFilter{
		StaffID: actor.StaffID,
		From:    w.now(),
	})
	if err != nil {
		return nil, err
	}

	pending, err := w.store.ListSwapRequests(ctx, actor.TenantID, repository.SwapRequestFilter{Status: domain.StatusPending})
	if err != nil {
		return nil, err
	}
	offered := make(map[int64]struct{}, len(pending))
	for _, r := range pending {
		offered[r.ShiftID] = struct{}{}
	}

	offerable := make([]*domain.Shift, 0, len(shifts))
	for _, s := range shifts {
		if _, ok := offered[s.ID]; !ok {
			offerable = append(offerable, s)
		}
	}

	return offerable, nil
}

// EligibleTargets lists the colleagues a shift may be offered to: non-managers other than the caller.
func (w *Workflow) EligibleTargets(ctx context.Context, actor domain.Actor) ([]*domain.Staff, error) {
	staff, err := w.store.ListStaff(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}

	targets := make([]*domain.Staff, 0, len(staff))
	for _, s := range staff {
		if s.IsManager() {
			continue
		}
		if actor.StaffID != nil && s.ID == *actor.StaffID {
			continue
		}
		targets = append(targets, s)
	}

	return targets, nil
}
