package warehouse

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	return NewServiceWithDB(db), mock
}

func TestInsertTimeRows(t *testing.T) {
	svc, mock := newMockService(t)

	rows := []TimeRow{
		{TimeKey: 20250615, DateActual: "2025-06-15", Year: 2025, Quarter: 2,
			Month: 6, FiscalYear: 2025, FiscalQuarter: 1, MonthName: "June",
			QuarterName: "Q2", DayOfWeek: "Sunday", WeekOfYear: 24},
		{TimeKey: 20250616, DateActual: "2025-06-16", Year: 2025, Quarter: 2,
			Month: 6, FiscalYear: 2025, FiscalQuarter: 1, MonthName: "June",
			QuarterName: "Q2", DayOfWeek: "Monday", WeekOfYear: 25},
	}

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT OR IGNORE INTO dim_time")
	mock.ExpectExec("INSERT OR IGNORE INTO dim_time").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT OR IGNORE INTO dim_time").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	inserted, err := svc.InsertTimeRows(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTimeRowsIdempotent(t *testing.T) {
	svc, mock := newMockService(t)

	// Second insert over the same key affects zero rows and is not counted
	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT OR IGNORE INTO dim_time")
	mock.ExpectExec("INSERT OR IGNORE INTO dim_time").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	inserted, err := svc.InsertTimeRows(context.Background(),
		[]TimeRow{{TimeKey: 20250615, DateActual: "2025-06-15"}})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
}

func TestInsertTimeRowsNotConnected(t *testing.T) {
	svc := NewService(Config{Path: "analytics.db"})

	_, err := svc.InsertTimeRows(context.Background(), nil)
	assert.Error(t, err)
}

func TestTimeKeys(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT time_key FROM dim_time").
		WillReturnRows(sqlmock.NewRows([]string{"time_key"}).
			AddRow(20250615).
			AddRow(20250616))

	keys, err := TimeKeys(context.Background(), db)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	_, ok := keys[20250615]
	assert.True(t, ok)
}

func TestTimeRange(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"min", "max", "count"}).
			AddRow(20150101, 20301231, 5844))

	min, max, ok, err := TimeRange(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(20150101), min)
	assert.Equal(t, int64(20301231), max)
}

func TestTimeRangeEmpty(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"min", "max", "count"}).
			AddRow(0, 0, 0))

	_, _, ok, err := TimeRange(context.Background(), db)
	require.NoError(t, err)
	assert.False(t, ok)
}
