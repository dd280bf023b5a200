package rota

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/repository"
)

// DayCell is one staff member's slot on one day of the grid.
type DayCell struct {
	Date      calendar.Date   `json:"date"`
	Shifts    []*domain.Shift `json:"shifts"`
	OnHoliday bool            `json:"onHoliday"`
}

type StaffRow struct {
	Staff *domain.Staff   `json:"staff"`
	Cells []DayCell       `json:"cells"`
	Hours decimal.Decimal `json:"hours"`
}

// WeekRota is the manager's view of a week: one row per staff member plus the open shifts.
// TotalHours counts assigned shifts only; open shifts are summed in OpenHours.
type WeekRota struct {
	WeekStart  calendar.Date   `json:"weekStart"`
	Days       []calendar.Date `json:"days"`
	Rows       []StaffRow      `json:"rows"`
	OpenShifts []DayCell       `json:"openShifts"`
	OpenHours  decimal.Decimal `json:"openHours"`
	TotalHours decimal.Decimal `json:"totalHours"`
}

// MyWeek is a staff member's view of a week.
type MyWeek struct {
	WeekStart       calendar.Date            `json:"weekStart"`
	Days            []DayCell                `json:"days"`
	Holidays        []*domain.Holiday        `json:"holidays"`
	PendingRequests []*domain.HolidayRequest `json:"pendingRequests"`
	Hours           decimal.Decimal          `json:"hours"`
}

// Hours converts a duration to hours rounded to two places.
func Hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Minute)).Div(decimal.NewFromInt(60)).Round(2)
}

func emptyCells(days []calendar.Date) []DayCell {
	cells := make([]DayCell, len(days))
	for i, d := range days {
		cells[i] = DayCell{Date: d, Shifts: []*domain.Shift{}}
	}
	return cells
}

func markHolidays(cells []DayCell, holidays []*domain.Holiday) {
	for i := range cells {
		for _, h := range holidays {
			if h.Range().Contains(cells[i].Date) {
				cells[i].OnHoliday = true
				break
			}
		}
	}
}

// WeekRota builds the manager grid for the week containing weekStart.
func (m *Manager) WeekRota(ctx context.Context, actor domain.Actor, weekStart calendar.Date) (*WeekRota, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}

	monday := calendar.WeekStart(weekStart)
	days := calendar.WeekDays(monday)
	from, to := m.weekBounds(monday)

	staff, err := m.store.ListStaff(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	shifts, err := m.store.ListShifts(ctx, actor.TenantID, repository.ShiftFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	holidays, err := m.store.ListHolidays(ctx, actor.TenantID, repository.HolidayFilter{From: monday, To: days[len(days)-1]})
	if err != nil {
		return nil, err
	}
	m.sortShifts(shifts)

	holidaysByStaff := map[int64][]*domain.Holiday{}
	for _, h := range holidays {
		holidaysByStaff[h.StaffID] = append(holidaysByStaff[h.StaffID], h)
	}

	rota := &WeekRota{
		WeekStart:  monday,
		Days:       days,
		Rows:       make([]StaffRow, 0, len(staff)),
		OpenShifts: emptyCells(days),
		OpenHours:  decimal.Zero,
		TotalHours: decimal.Zero,
	}

	rowIndex := map[int64]int{}
	for _, s := range staff {
		cells := emptyCells(days)
		markHolidays(cells, holidaysByStaff[s.ID])
		rowIndex[s.ID] = len(rota.Rows)
		rota.Rows = append(rota.Rows, StaffRow{Staff: s, Cells: cells, Hours: decimal.Zero})
	}

	for _, shift := range shifts {
		idx := calendar.DayIndex(calendar.DateIn(shift.StartTime, m.loc))
		hours := Hours(shift.EndTime.Sub(shift.StartTime))

		if shift.StaffID == nil {
			rota.OpenShifts[idx].Shifts = append(rota.OpenShifts[idx].Shifts, shift)
			rota.OpenHours = rota.OpenHours.Add(hours)
			continue
		}

		row, ok := rowIndex[*shift.StaffID]
		if !ok {
			continue
		}
		cell := &rota.Rows[row].Cells[idx]
		cell.Shifts = append(cell.Shifts, shift)
		rota.Rows[row].Hours = rota.Rows[row].Hours.Add(hours)
		rota.TotalHours = rota.TotalHours.Add(hours)
	}

	return rota, nil
}

// MyWeek builds the calling staff member's own week.
func (m *Manager) MyWeek(ctx context.Context, actor domain.Actor, weekStart calendar.Date) (*MyWeek, error) {
	if actor.StaffID == nil {
		return nil, domain.ErrForbidden
	}
	staffID := *actor.StaffID

	monday := calendar.WeekStart(weekStart)
	days := calendar.WeekDays(monday)
	sunday := days[len(days)-1]

	shifts, err := m.ShiftsForWeek(ctx, actor, &staffID, monday)
	if err != nil {
		return nil, err
	}
	holidays, err := m.store.ListHolidays(ctx, actor.TenantID, repository.HolidayFilter{StaffID: &staffID, From: monday, To: sunday})
	if err != nil {
		return nil, err
	}
	pending, err := m.store.ListHolidayRequests(ctx, actor.TenantID, repository.HolidayRequestFilter{
		StaffID: &staffID,
		Status:  domain.StatusPending,
		From:    monday,
		To:      sunday,
	})
	if err != nil {
		return nil, err
	}

	week := &MyWeek{
		WeekStart:       monday,
		Days:            emptyCells(days),
		Holidays:        holidays,
		PendingRequests: pending,
		Hours:           decimal.Zero,
	}
	markHolidays(week.Days, holidays)

	for _, shift := range shifts {
		idx := calendar.DayIndex(calendar.DateIn(shift.StartTime, m.loc))
		week.Days[idx].Shifts = append(week.Days[idx].Shifts, shift)
		week.Hours = week.Hours.Add(Hours(shift.EndTime.Sub(shift.StartTime)))
	}

	return week, nil
}
