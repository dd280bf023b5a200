// Package rota owns the weekly shift grid: placing, moving and removing shifts, managing the
// staff list and building the manager and staff views of a week.
package rota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/lock"
	"github.com/rotadesk/backend/internal/metrics"
	"github.com/rotadesk/backend/internal/overlap"
	"github.com/rotadesk/backend/internal/repository"
)

// Manager writes shifts under the same per-staff lock holiday approval takes, so a shift and
// an approved holiday never land on the same day for one person.
type Manager struct {
	store  repository.Store
	loc    *time.Location
	locker lock.Locker
	logger *slog.Logger
}

func NewManager(store repository.Store, loc *time.Location, locker lock.Locker, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		loc:    loc,
		locker: locker,
		logger: logger,
	}
}

// Location is the timezone shift days are computed in.
func (m *Manager) Location() *time.Location {
	return m.loc
}

// ShiftInput places one shift for a staff member on a day, times in the rota timezone.
type ShiftInput struct {
	StaffID int64
	Day     calendar.Date
	Start   calendar.Clock
	End     calendar.Clock
	RoleTag string
}

// CreateOrUpdateShift writes the shift for (StaffID, Day). An existing shift for that pair
// is replaced in place.
func (m *Manager) CreateOrUpdateShift(ctx context.Context, actor domain.Actor, in ShiftInput) (*domain.Shift, error) {
	shift, err := m.createOrUpdateShift(ctx, actor, in)
	metrics.RecordDecision(metrics.WorkflowRota, "upsert_shift", err)
	return shift, err
}

func (m *Manager) createOrUpdateShift(ctx context.Context, actor domain.Actor, in ShiftInput) (*domain.Shift, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}
	if in.Day.IsZero() {
		return nil, fmt.Errorf("%w: day is required", domain.ErrInvalidInput)
	}

	span := overlap.TimeRange{
		Start: calendar.At(in.Day, in.Start, m.loc),
		End:   calendar.At(in.Day, in.End, m.loc),
	}
	if !span.Valid() {
		return nil, domain.ErrInvalidRange
	}

	release, err := m.LockStaff(ctx, actor.TenantID, in.StaffID)
	if err != nil {
		return nil, err
	}
	defer release()

	var saved *domain.Shift
	err = m.store.WithTx(ctx, func(q repository.Querier) error {
		if err := m.checkAssignable(ctx, q, actor.TenantID, in.StaffID, in.Day); err != nil {
			return err
		}

		existing, err := m.shiftsOnDay(ctx, q, actor.TenantID, in.StaffID, in.Day)
		if err != nil {
			return err
		}

		if len(existing) == 0 {
			saved = &domain.Shift{
				TenantID:  actor.TenantID,
				StaffID:   &in.StaffID,
				StartTime: span.Start,
				EndTime:   span.End,
				RoleTag:   in.RoleTag,
			}
			return q.InsertShift(ctx, saved)
		}

		saved = existing[0]
		saved.StartTime, saved.EndTime, saved.RoleTag = span.Start, span.End, in.RoleTag
		if err := q.UpdateShift(ctx, saved); err != nil {
			return err
		}

		// rows written before the one-per-day rule was enforced
		extra := make([]int64, 0, len(existing)-1)
		for _, s := range existing[1:] {
			extra = append(extra, s.ID)
		}
		return q.DeleteShifts(ctx, actor.TenantID, extra)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("shift saved",
		slog.Int64("tenant", actor.TenantID),
		slog.Int64("shift", saved.ID),
		slog.Int64("staff", in.StaffID),
		slog.String("day", in.Day.String()),
	)

	return saved, nil
}

// DeleteShift removes a shift. Deleting a shift that does not exist succeeds.
func (m *Manager) DeleteShift(ctx context.Context, actor domain.Actor, shiftID int64) error {
	if !actor.IsManager() {
		return domain.ErrForbidden
	}

	if err := m.store.DeleteShift(ctx, actor.TenantID, shiftID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	return nil
}

// Destination describes where a shift goes. A nil StaffID keeps the current owner unless
// Open is set, which leaves the shift unassigned. A nil Day keeps the shift's day.
type Destination struct {
	StaffID *int64
	Day     *calendar.Date
	Open    bool
}

// owner resolves the staff member holding the shift after the move.
func (d Destination) owner(shift *domain.Shift) *int64 {
	switch {
	case d.Open:
		return nil
	case d.StaffID != nil:
		return d.StaffID
	default:
		return shift.StaffID
	}
}

// ReassignShift moves a shift to another staff member, onto another day, or both. Changing
// the day keeps the wall-clock start and end times.
func (m *Manager) ReassignShift(ctx context.Context, actor domain.Actor, shiftID int64, dest Destination) (*domain.Shift, error) {
	moved, err := m.reassignShift(ctx, actor, shiftID, dest)
	metrics.RecordDecision(metrics.WorkflowRota, "reassign_shift", err)
	if err != nil {
		return nil, err
	}

	m.logger.Info("shift reassigned",
		slog.Int64("tenant", actor.TenantID),
		slog.Int64("shift", moved.ID),
		slog.Any("staff", moved.StaffID),
	)

	return moved, nil
}

func (m *Manager) reassignShift(ctx context.Context, actor domain.Actor, shiftID int64, dest Destination) (*domain.Shift, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}
	if dest.Open && dest.StaffID != nil {
		return nil, fmt.Errorf("%w: an open shift has no staff member", domain.ErrInvalidInput)
	}

	shift, err := m.store.GetShift(ctx, actor.TenantID, shiftID)
	if err != nil {
		return nil, err
	}
	if owner := dest.owner(shift); owner != nil {
		release, err := m.LockStaff(ctx, actor.TenantID, *owner)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var moved *domain.Shift
	err = m.store.WithTx(ctx, func(q repository.Querier) error {
		shift, err := q.GetShift(ctx, actor.TenantID, shiftID)
		if err != nil {
			return err
		}

		if err := m.Move(ctx, q, shift, dest); err != nil {
			return err
		}
		moved = shift
		return nil
	})
	if err != nil {
		return nil, err
	}

	return moved, nil
}

// Move applies a reassignment to shift inside a running transaction and persists it. The
// owner after the move must be a non-manager staff member with no approved holiday and no
// other shift on the destination day. Callers hold that owner's staff lock.
func (m *Manager) Move(ctx context.Context, q repository.Querier, shift *domain.Shift, dest Destination) error {
	day := calendar.DateIn(shift.StartTime, m.loc)
	if dest.Day != nil && !dest.Day.Equal(day) {
		delta := day.DaysUntil(*dest.Day)
		startClock := calendar.ClockOf(shift.StartTime, m.loc)
		endClock := calendar.ClockOf(shift.EndTime, m.loc)
		endDay := calendar.DateIn(shift.EndTime, m.loc)

		shift.StartTime = calendar.At(day.AddDays(delta), startClock, m.loc)
		shift.EndTime = calendar.At(endDay.AddDays(delta), endClock, m.loc)
		day = *dest.Day
	}

	owner := dest.owner(shift)
	if owner != nil {
		if err := m.checkAssignable(ctx, q, shift.TenantID, *owner, day); err != nil {
			return err
		}

		others, err := m.shiftsOnDay(ctx, q, shift.TenantID, *owner, day)
		if err != nil {
			return err
		}
		for _, other := range others {
			if other.ID != shift.ID {
				return domain.ErrSlotOccupied
			}
		}

		id := *owner
		owner = &id
	}
	shift.StaffID = owner

	return q.UpdateShift(ctx, shift)
}

// LockStaff takes the per-staff lock shared by shift writes and holiday approval.
func (m *Manager) LockStaff(ctx context.Context, tenantID, staffID int64) (func(), error) {
	release, err := m.locker.Acquire(ctx, lock.StaffKey(tenantID, staffID))
	if errors.Is(err, lock.ErrLocked) {
		return nil, domain.ErrBusy
	}
	if err != nil {
		return nil, domain.NewStoreError("acquire staff lock", err)
	}
	return release, nil
}

// checkAssignable verifies staffID can hold a shift on day.
func (m *Manager) checkAssignable(ctx context.Context, q repository.Querier, tenantID, staffID int64, day calendar.Date) error {
	staff, err := q.GetStaff(ctx, tenantID, staffID)
	if err != nil {
		return err
	}
	if staff.IsManager() {
		return domain.ErrIneligibleStaff
	}

	holidays, err := q.ListHolidays(ctx, tenantID, repository.HolidayFilter{
		StaffID: &staffID,
		From:    day,
		To:      day,
	})
	if err != nil {
		return err
	}
	if len(holidays) > 0 {
		return domain.ErrHolidayConflict
	}

	return nil
}

func (m *Manager) shiftsOnDay(ctx context.Context, q repository.Querier, tenantID, staffID int64, day calendar.Date) ([]*domain.Shift, error) {
	from, to := calendar.DayBounds(day, m.loc)
	return q.ListShifts(ctx, tenantID, repository.ShiftFilter{
		StaffID: &staffID,
		From:    from,
		To:      to,
	})
}

// ShiftsForWeek lists the shifts of the week containing weekStart, ordered by day then start
// time. Staff callers only ever see their own shifts; managers see one member's or, with a
// nil staffID, everybody's.
func (m *Manager) ShiftsForWeek(ctx context.Context, actor domain.Actor, staffID *int64, weekStart calendar.Date) ([]*domain.Shift, error) {
	if !actor.IsManager() {
		if actor.StaffID == nil {
			return nil, domain.ErrForbidden
		}
		staffID = actor.StaffID
	}

	from, to := m.weekBounds(weekStart)
	shifts, err := m.store.ListShifts(ctx, actor.TenantID, repository.ShiftFilter{
		StaffID: staffID,
		From:    from,
		To:      to,
	})
	if err != nil {
		return nil, err
	}

	m.sortShifts(shifts)
	return shifts, nil
}

func (m *Manager) weekBounds(weekStart calendar.Date) (time.Time, time.Time) {
	monday := calendar.WeekStart(weekStart)
	return calendar.RangeBounds(monday, monday.AddDays(calendar.DaysPerWeek-1), m.loc)
}

func (m *Manager) sortShifts(shifts []*domain.Shift) {
	sort.SliceStable(shifts, func(i, j int) bool {
		di := calendar.DateIn(shifts[i].StartTime, m.loc)
		dj := calendar.DateIn(shifts[j].StartTime, m.loc)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return shifts[i].StartTime.Before(shifts[j].StartTime)
	})
}
