package etl

import (
	"fmt"
	"time"

	"procsync/internal/warehouse"
)

// The fiscal year begins in April. A date in April 2025 through March 2026
// belongs to fiscal year 2025, fiscal quarter 1 being April through June.
const fiscalStartMonth = 4

// TimeKey encodes a date as the YYYYMMDD integer key of dim_time
func TimeKey(t time.Time) int64 {
	return int64(t.Year())*10000 + int64(t.Month())*100 + int64(t.Day())
}

// FiscalYear returns the fiscal year a date belongs to
func FiscalYear(t time.Time) int {
	return FiscalYearOf(t.Year(), int(t.Month()))
}

// FiscalYearOf returns the fiscal year for a calendar year and month
func FiscalYearOf(year, month int) int {
	if month >= fiscalStartMonth {
		return year
	}
	return year - 1
}

// FiscalQuarter returns the fiscal quarter (1-4) a date belongs to
func FiscalQuarter(t time.Time) int {
	return ((int(t.Month())-fiscalStartMonth+12)%12)/3 + 1
}

// calendarQuarter returns the calendar quarter (1-4)
func calendarQuarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// BuildCalendar materializes one dim_time row per day over [start, end],
// inclusive. The range is gap-free by construction.
func BuildCalendar(start, end time.Time) []warehouse.TimeRow {
	start = truncateToDay(start)
	end = truncateToDay(end)

	var rows []warehouse.TimeRow
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		_, week := d.ISOWeek()
		rows = append(rows, warehouse.TimeRow{
			TimeKey:       TimeKey(d),
			DateActual:    d.Format(warehouse.DateFormat),
			Year:          d.Year(),
			Quarter:       calendarQuarter(d),
			Month:         int(d.Month()),
			FiscalYear:    FiscalYear(d),
			FiscalQuarter: FiscalQuarter(d),
			MonthName:     d.Month().String(),
			QuarterName:   fmt.Sprintf("Q%d", calendarQuarter(d)),
			DayOfWeek:     d.Weekday().String(),
			WeekOfYear:    week,
		})
	}
	return rows
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
