package warehouse

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procsync/pkg/errors"
)

func TestLoadedTransactionIDs(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT source_transaction_id").
		WillReturnRows(sqlmock.NewRows([]string{"source_transaction_id"}).
			AddRow("1001").
			AddRow("1002"))

	ids, err := LoadedTransactionIDs(context.Background(), db)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	_, ok := ids["1001"]
	assert.True(t, ok)
	_, ok = ids["9999"]
	assert.False(t, ok)
}

func TestInsertFact(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO fact_spend_analytics").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := InsertFact(context.Background(), db, FactRow{
		VendorKey:           1,
		CommodityKey:        7,
		TimeKey:             20250615,
		SpendAmount:         1000,
		TransactionCount:    1,
		SourceTransactionID: "1001",
		LoadDate:            "2025-06-15",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertFactUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO fact_spend_analytics").
		WillReturnError(fmt.Errorf("UNIQUE constraint failed: fact_spend_analytics.source_transaction_id"))

	err := InsertFact(context.Background(), db, FactRow{SourceTransactionID: "1001"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConstraintViolation, errors.GetErrorCode(err))
}

func TestFactCountsByFiscalYear(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("JOIN dim_time").
		WillReturnRows(sqlmock.NewRows([]string{"fiscal_year", "count"}).
			AddRow(2024, 120).
			AddRow(2025, 85))

	counts, err := FactCountsByFiscalYear(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{2024: 120, 2025: 85}, counts)
}

func TestOrphanedFactCount(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("LEFT JOIN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := OrphanedFactCount(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestTotalFactSpend(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(123456.78))

	total, err := TotalFactSpend(context.Background(), db)
	require.NoError(t, err)
	assert.InDelta(t, 123456.78, total, 1e-9)
}
