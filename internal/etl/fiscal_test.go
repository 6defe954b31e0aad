package etl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestTimeKey(t *testing.T) {
	assert.Equal(t, int64(20250401), TimeKey(date(2025, 4, 1)))
	assert.Equal(t, int64(20251231), TimeKey(date(2025, 12, 31)))
	assert.Equal(t, int64(20260101), TimeKey(date(2026, 1, 1)))
}

func TestFiscalYear(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"first day of fiscal year", date(2025, 4, 1), 2025},
		{"last day of fiscal year", date(2026, 3, 31), 2025},
		{"march belongs to prior fiscal year", date(2025, 3, 15), 2024},
		{"december stays in its calendar year", date(2025, 12, 25), 2025},
		{"january rolls back", date(2025, 1, 1), 2024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FiscalYear(tt.date))
		})
	}
}

func TestFiscalQuarter(t *testing.T) {
	tests := []struct {
		month int
		want  int
	}{
		{4, 1}, {5, 1}, {6, 1},
		{7, 2}, {8, 2}, {9, 2},
		{10, 3}, {11, 3}, {12, 3},
		{1, 4}, {2, 4}, {3, 4},
	}

	for _, tt := range tests {
		got := FiscalQuarter(date(2025, tt.month, 15))
		assert.Equal(t, tt.want, got, "month %d", tt.month)
	}
}

func TestBuildCalendar(t *testing.T) {
	rows := BuildCalendar(date(2025, 3, 30), date(2025, 4, 2))
	require.Len(t, rows, 4)

	assert.Equal(t, int64(20250330), rows[0].TimeKey)
	assert.Equal(t, int64(20250402), rows[3].TimeKey)

	// Fiscal boundary crosses inside this range
	assert.Equal(t, 2024, rows[0].FiscalYear)
	assert.Equal(t, 4, rows[0].FiscalQuarter)
	assert.Equal(t, 2025, rows[2].FiscalYear)
	assert.Equal(t, 1, rows[2].FiscalQuarter)

	assert.Equal(t, "2025-04-01", rows[2].DateActual)
	assert.Equal(t, "April", rows[2].MonthName)
	assert.Equal(t, "Q2", rows[2].QuarterName)
	assert.Equal(t, "Tuesday", rows[2].DayOfWeek)
}

func TestBuildCalendarSingleDay(t *testing.T) {
	rows := BuildCalendar(date(2025, 6, 15), date(2025, 6, 15))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(20250615), rows[0].TimeKey)
}

func TestBuildCalendarLeapYear(t *testing.T) {
	rows := BuildCalendar(date(2024, 2, 1), date(2024, 3, 1))
	require.Len(t, rows, 30)
	assert.Equal(t, int64(20240229), rows[28].TimeKey)
}
