package rota

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/lock"
	"github.com/rotadesk/backend/internal/repository"
	"github.com/rotadesk/backend/internal/repository/memory"
)

type fixture struct {
	store   *memory.Store
	locker  *lock.MemoryLocker
	manager *Manager
	boss    domain.Actor
	alice   *domain.Staff
	bob     *domain.Staff
	chef    *domain.Staff
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	store := memory.NewStore()
	tenant := &domain.Tenant{Name: "Kitchen"}
	require.NoError(t, store.InsertTenant(ctx, tenant))

	managerRole := domain.RoleManager
	staffRole := domain.RoleStaff
	chef := &domain.Staff{TenantID: tenant.ID, Name: "Chef", Role: &managerRole}
	alice := &domain.Staff{TenantID: tenant.ID, Name: "Alice", Role: &staffRole}
	bob := &domain.Staff{TenantID: tenant.ID, Name: "Bob", Role: &staffRole}
	for _, s := range []*domain.Staff{chef, alice, bob} {
		require.NoError(t, store.InsertStaff(ctx, s))
	}

	locker := lock.NewMemoryLocker()
	return &fixture{
		store:   store,
		locker:  locker,
		manager: NewManager(store, loc, locker, slog.New(slog.NewTextHandler(io.Discard, nil))),
		boss:    domain.Actor{TenantID: tenant.ID, AccountID: 100, Role: domain.RoleManager, StaffID: &chef.ID},
		alice:   alice,
		bob:     bob,
		chef:    chef,
	}
}

func (f *fixture) staffActor(s *domain.Staff) domain.Actor {
	return domain.Actor{TenantID: f.boss.TenantID, AccountID: 200 + s.ID, Role: domain.RoleStaff, StaffID: &s.ID}
}

func (f *fixture) shift(t *testing.T, s *domain.Staff, day, start, end string) *domain.Shift {
	t.Helper()
	shift, err := f.manager.CreateOrUpdateShift(context.Background(), f.boss, ShiftInput{
		StaffID: s.ID,
		Day:     calendar.MustParseDate(day),
		Start:   mustClock(t, start),
		End:     mustClock(t, end),
		RoleTag: "FOH",
	})
	require.NoError(t, err)
	return shift
}

func (f *fixture) holiday(t *testing.T, s *domain.Staff, start, end string) {
	t.Helper()
	require.NoError(t, f.store.InsertHoliday(context.Background(), &domain.Holiday{
		TenantID:  f.boss.TenantID,
		StaffID:   s.ID,
		StartDate: calendar.MustParseDate(start),
		EndDate:   calendar.MustParseDate(end),
	}))
}

func mustClock(t *testing.T, s string) calendar.Clock {
	t.Helper()
	c, err := calendar.ParseClock(s)
	require.NoError(t, err)
	return c
}

func TestCreateShiftOnHolidayFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holiday(t, f.alice, "2025-06-10", "2025-06-12")

	_, err := f.manager.CreateOrUpdateShift(ctx, f.boss, ShiftInput{
		StaffID: f.alice.ID,
		Day:     calendar.MustParseDate("2025-06-11"),
		Start:   mustClock(t, "11:30"),
		End:     mustClock(t, "19:00"),
	})
	assert.ErrorIs(t, err, domain.ErrHolidayConflict)

	shifts, err := f.store.ListShifts(ctx, f.boss.TenantID, repository.ShiftFilter{})
	require.NoError(t, err)
	assert.Empty(t, shifts, "no shift row may be written")
}

func TestCreateOrUpdateShiftReplacesSameDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.shift(t, f.alice, "2025-06-15", "11:30", "19:00")
	second := f.shift(t, f.alice, "2025-06-15", "09:00", "17:00")

	assert.Equal(t, first.ID, second.ID, "one shift per staff member per day")

	stored, err := f.store.GetShift(ctx, f.boss.TenantID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "09:00", calendar.ClockOf(stored.StartTime, f.manager.Location()).String())
	assert.Equal(t, "17:00", calendar.ClockOf(stored.EndTime, f.manager.Location()).String())
}

func TestCreateShiftValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := calendar.MustParseDate("2025-06-15")

	_, err := f.manager.CreateOrUpdateShift(ctx, f.boss, ShiftInput{
		StaffID: f.alice.ID, Day: day, Start: mustClock(t, "19:00"), End: mustClock(t, "11:30"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = f.manager.CreateOrUpdateShift(ctx, f.boss, ShiftInput{
		StaffID: f.chef.ID, Day: day, Start: mustClock(t, "11:30"), End: mustClock(t, "19:00"),
	})
	assert.ErrorIs(t, err, domain.ErrIneligibleStaff)

	_, err = f.manager.CreateOrUpdateShift(ctx, f.staffActor(f.alice), ShiftInput{
		StaffID: f.alice.ID, Day: day, Start: mustClock(t, "11:30"), End: mustClock(t, "19:00"),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.manager.CreateOrUpdateShift(ctx, f.boss, ShiftInput{
		StaffID: 999, Day: day, Start: mustClock(t, "11:30"), End: mustClock(t, "19:00"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteShiftIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shift := f.shift(t, f.alice, "2025-06-15", "11:30", "19:00")

	require.NoError(t, f.manager.DeleteShift(ctx, f.boss, shift.ID))
	require.NoError(t, f.manager.DeleteShift(ctx, f.boss, shift.ID))

	_, err := f.store.GetShift(ctx, f.boss.TenantID, shift.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReassignShiftKeepsWallClockOnNewDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Sat 29 Mar 2025 is the day before the clocks go forward in London.
	shift := f.shift(t, f.alice, "2025-03-29", "11:30", "19:00")

	newDay := calendar.MustParseDate("2025-03-31")
	moved, err := f.manager.ReassignShift(ctx, f.boss, shift.ID, Destination{StaffID: &f.bob.ID, Day: &newDay})
	require.NoError(t, err)

	loc := f.manager.Location()
	assert.True(t, moved.HeldBy(f.bob.ID))
	assert.Equal(t, "2025-03-31", calendar.DateIn(moved.StartTime, loc).String())
	assert.Equal(t, "11:30", calendar.ClockOf(moved.StartTime, loc).String())
	assert.Equal(t, "19:00", calendar.ClockOf(moved.EndTime, loc).String())
}

func TestReassignShiftGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shift := f.shift(t, f.alice, "2025-06-15", "11:30", "19:00")

	f.holiday(t, f.bob, "2025-06-15", "2025-06-15")
	_, err := f.manager.ReassignShift(ctx, f.boss, shift.ID, Destination{StaffID: &f.bob.ID})
	assert.ErrorIs(t, err, domain.ErrHolidayConflict)

	f.shift(t, f.bob, "2025-06-16", "09:00", "12:00")
	monday := calendar.MustParseDate("2025-06-16")
	_, err = f.manager.ReassignShift(ctx, f.boss, shift.ID, Destination{StaffID: &f.bob.ID, Day: &monday})
	assert.ErrorIs(t, err, domain.ErrSlotOccupied)

	_, err = f.manager.ReassignShift(ctx, f.boss, shift.ID, Destination{StaffID: &f.chef.ID})
	assert.ErrorIs(t, err, domain.ErrIneligibleStaff)

	stored, err := f.store.GetShift(ctx, f.boss.TenantID, shift.ID)
	require.NoError(t, err)
	assert.True(t, stored.HeldBy(f.alice.ID), "failed moves leave the shift untouched")

	_, err = f.manager.ReassignShift(ctx, f.boss, shift.ID, Destination{StaffID: &f.bob.ID, Open: true})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	open, err := f.manager.ReassignShift(ctx, f.boss, shift.ID, Destination{Open: true})
	require.NoError(t, err)
	assert.Nil(t, open.StaffID)
}

func TestReassignShiftDayOnlyKeepsHolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shift := f.shift(t, f.alice, "2025-06-10", "11:30", "19:00")
	f.holiday(t, f.alice, "2025-06-13", "2025-06-13")

	thursday := calendar.MustParseDate("2025-06-12")
	moved, err := f.manager.ReassignShift(ctx, f.boss, shift.ID, Destination{Day: &thursday})
	require.NoError(t, err)
	assert.True(t, moved.HeldBy(f.alice.ID))
	assert.Equal(t, "2025-06-12", calendar.DateIn(moved.StartTime, f.manager.Location()).String())

	// the holder's holiday still applies when only the day changes
	friday := calendar.MustParseDate("2025-06-13")
	_, err = f.manager.ReassignShift(ctx, f.boss, shift.ID, Destination{Day: &friday})
	assert.ErrorIs(t, err, domain.ErrHolidayConflict)

	stored, err := f.store.GetShift(ctx, f.boss.TenantID, shift.ID)
	require.NoError(t, err)
	assert.True(t, stored.HeldBy(f.alice.ID))
	assert.Equal(t, "2025-06-12", calendar.DateIn(stored.StartTime, f.manager.Location()).String())
}

func TestShiftWritesTakeStaffLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alices := f.shift(t, f.alice, "2025-06-10", "11:30", "19:00")
	bobs := f.shift(t, f.bob, "2025-06-11", "11:30", "19:00")

	// a holiday approval for Alice is in flight
	release, err := f.locker.Acquire(ctx, lock.StaffKey(f.boss.TenantID, f.alice.ID))
	require.NoError(t, err)

	_, err = f.manager.CreateOrUpdateShift(ctx, f.boss, ShiftInput{
		StaffID: f.alice.ID,
		Day:     calendar.MustParseDate("2025-06-12"),
		Start:   mustClock(t, "11:30"),
		End:     mustClock(t, "19:00"),
	})
	assert.ErrorIs(t, err, domain.ErrBusy)

	_, err = f.manager.ReassignShift(ctx, f.boss, bobs.ID, Destination{StaffID: &f.alice.ID})
	assert.ErrorIs(t, err, domain.ErrBusy)

	thursday := calendar.MustParseDate("2025-06-12")
	_, err = f.manager.ReassignShift(ctx, f.boss, alices.ID, Destination{Day: &thursday})
	assert.ErrorIs(t, err, domain.ErrBusy)

	// Bob's own shifts are not held up
	_, err = f.manager.ReassignShift(ctx, f.boss, bobs.ID, Destination{Day: &thursday})
	require.NoError(t, err)

	release()
	_, err = f.manager.ReassignShift(ctx, f.boss, alices.ID, Destination{Day: &thursday})
	require.NoError(t, err)
}

func TestShiftsForWeekScopesStaffToThemselves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.shift(t, f.alice, "2025-06-12", "11:30", "19:00")
	f.shift(t, f.alice, "2025-06-10", "15:00", "22:00")
	f.shift(t, f.bob, "2025-06-10", "09:00", "12:00")
	f.shift(t, f.alice, "2025-06-16", "11:30", "19:00") // next week

	wednesday := calendar.MustParseDate("2025-06-11")
	mine, err := f.manager.ShiftsForWeek(ctx, f.staffActor(f.alice), &f.bob.ID, wednesday)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2025-06-10", calendar.DateIn(mine[0].StartTime, f.manager.Location()).String())
	assert.Equal(t, "2025-06-12", calendar.DateIn(mine[1].StartTime, f.manager.Location()).String())

	all, err := f.manager.ShiftsForWeek(ctx, f.boss, nil, wednesday)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].HeldBy(f.bob.ID), "same day sorts by start time")
}

func TestWeekRota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.shift(t, f.alice, "2025-06-09", "11:30", "19:00")
	f.shift(t, f.alice, "2025-06-10", "09:00", "12:15")
	bobs := f.shift(t, f.bob, "2025-06-11", "11:30", "19:00")
	_, err := f.manager.ReassignShift(ctx, f.boss, bobs.ID, Destination{Open: true})
	require.NoError(t, err)
	f.holiday(t, f.bob, "2025-06-13", "2025-06-20")

	rota, err := f.manager.WeekRota(ctx, f.boss, calendar.MustParseDate("2025-06-12"))
	require.NoError(t, err)

	assert.Equal(t, "2025-06-09", rota.WeekStart.String())
	require.Len(t, rota.Rows, 3)

	var alice, bob StaffRow
	for _, row := range rota.Rows {
		switch row.Staff.ID {
		case f.alice.ID:
			alice = row
		case f.bob.ID:
			bob = row
		}
	}

	assert.Equal(t, "10.75", alice.Hours.String())
	assert.Len(t, alice.Cells[0].Shifts, 1)
	assert.Len(t, alice.Cells[1].Shifts, 1)
	assert.False(t, bob.Cells[3].OnHoliday)
	assert.True(t, bob.Cells[4].OnHoliday)
	assert.True(t, bob.Cells[6].OnHoliday)
	assert.Len(t, rota.OpenShifts[2].Shifts, 1)
	assert.Equal(t, "7.5", rota.OpenHours.String())
	assert.Equal(t, "10.75", rota.TotalHours.String(), "open shifts stay out of the assigned total")

	_, err = f.manager.WeekRota(ctx, f.staffActor(f.alice), calendar.MustParseDate("2025-06-12"))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMyWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.shift(t, f.alice, "2025-06-09", "11:30", "19:00")
	f.shift(t, f.bob, "2025-06-09", "11:30", "19:00")
	f.holiday(t, f.alice, "2025-06-14", "2025-06-15")
	require.NoError(t, f.store.InsertHolidayRequest(ctx, &domain.HolidayRequest{
		TenantID:  f.boss.TenantID,
		StaffID:   f.alice.ID,
		StartDate: calendar.MustParseDate("2025-06-12"),
		EndDate:   calendar.MustParseDate("2025-06-12"),
		Status:    domain.StatusPending,
	}))

	week, err := f.manager.MyWeek(ctx, f.staffActor(f.alice), calendar.MustParseDate("2025-06-09"))
	require.NoError(t, err)

	assert.Len(t, week.Days[0].Shifts, 1)
	assert.True(t, week.Days[5].OnHoliday)
	assert.Len(t, week.Holidays, 1)
	assert.Len(t, week.PendingRequests, 1)
	assert.Equal(t, "7.5", week.Hours.String())
}

func TestDeleteStaffRemovesShifts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.shift(t, f.alice, "2025-06-09", "11:30", "19:00")
	f.shift(t, f.bob, "2025-06-09", "11:30", "19:00")

	require.NoError(t, f.manager.DeleteStaff(ctx, f.boss, f.alice.ID))

	shifts, err := f.store.ListShifts(ctx, f.boss.TenantID, repository.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.True(t, shifts[0].HeldBy(f.bob.ID))

	assert.ErrorIs(t, f.manager.DeleteStaff(ctx, f.boss, f.alice.ID), domain.ErrNotFound)
}

func TestCreateStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.CreateStaff(ctx, f.boss, StaffInput{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	staff, err := f.manager.CreateStaff(ctx, f.boss, StaffInput{Name: " Dana "})
	require.NoError(t, err)
	assert.Equal(t, "Dana", staff.Name)
	assert.Nil(t, staff.Role)

	list, err := f.manager.ListStaff(ctx, f.staffActor(f.alice))
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob", "Chef", "Dana"}, []string{list[0].Name, list[1].Name, list[2].Name, list[3].Name})
}
