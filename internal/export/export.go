// Package export renders the weekly rota as a spreadsheet.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/rota"
)

const sheetName = "Rota"

// Filename is the download name for the week starting at weekStart.
func Filename(weekStart calendar.Date) string {
	return fmt.Sprintf("rota_%s.xlsx", weekStart)
}

// WeekRota writes one row per staff member and one column per day with the weekly hours
// per member, then a row of open shifts and a row with the assigned total.
func WeekRota(week *rota.WeekRota, loc *time.Location) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	hoursCol := colName(1 + calendar.DaysPerWeek)
	_ = f.SetColWidth(sheetName, "A", "A", 18)
	_ = f.SetColWidth(sheetName, "B", colName(calendar.DaysPerWeek), 16)
	_ = f.SetColWidth(sheetName, hoursCol, hoursCol, 10)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	holidayStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FCE4D6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Week of %s", week.WeekStart))
	_ = f.MergeCell(sheetName, "A1", cell(hoursCol, 1))
	_ = f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	row := 2
	_ = f.SetCellValue(sheetName, cell("A", row), "Staff")
	for i, d := range week.Days {
		_ = f.SetCellValue(sheetName, cell(colName(1+i), row), fmt.Sprintf("%s %s", calendar.DayLabel(i), d.In(loc).Format("02 Jan")))
	}
	_ = f.SetCellValue(sheetName, cell(hoursCol, row), "Hours")
	_ = f.SetCellStyle(sheetName, cell("A", row), cell(hoursCol, row), headerStyle)

	row = 3
	for _, r := range week.Rows {
		_ = f.SetCellValue(sheetName, cell("A", row), r.Staff.Name)
		for i, c := range r.Cells {
			ref := cell(colName(1+i), row)
			_ = f.SetCellValue(sheetName, ref, cellText(c, loc))
			if c.OnHoliday {
				_ = f.SetCellStyle(sheetName, ref, ref, holidayStyle)
			}
		}
		hours, _ := r.Hours.Float64()
		_ = f.SetCellFloat(sheetName, cell(hoursCol, row), hours, -1, 64)
		row++
	}

	_ = f.SetCellValue(sheetName, cell("A", row), "Open shifts")
	for i, c := range week.OpenShifts {
		_ = f.SetCellValue(sheetName, cell(colName(1+i), row), cellText(c, loc))
	}
	open, _ := week.OpenHours.Float64()
	_ = f.SetCellFloat(sheetName, cell(hoursCol, row), open, -1, 64)

	row++
	_ = f.SetCellValue(sheetName, cell("A", row), "Total")
	total, _ := week.TotalHours.Float64()
	_ = f.SetCellFloat(sheetName, cell(hoursCol, row), total, -1, 64)
	_ = f.SetCellStyle(sheetName, cell("A", row), cell(hoursCol, row), headerStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return buf, nil
}

func cellText(c rota.DayCell, loc *time.Location) string {
	if c.OnHoliday {
		return "Holiday"
	}

	parts := make([]string, 0, len(c.Shifts))
	for _, s := range c.Shifts {
		text := fmt.Sprintf("%s-%s", calendar.ClockOf(s.StartTime, loc), calendar.ClockOf(s.EndTime, loc))
		if s.RoleTag != "" {
			text += " " + s.RoleTag
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
