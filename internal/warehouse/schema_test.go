package warehouse

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	svc, mock := newMockService(t)

	for range schemaStatements {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, svc.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequiredTables(t *testing.T) {
	tables := RequiredTables()

	assert.Contains(t, tables, "dim_vendors")
	assert.Contains(t, tables, "dim_commodities")
	assert.Contains(t, tables, "dim_time")
	assert.Contains(t, tables, "fact_spend_analytics")
	assert.Contains(t, tables, "etl_run_history")
}

func TestTableExists(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery("sqlite_master").
		WithArgs("dim_vendors").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := svc.TableExists(context.Background(), "dim_vendors")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTableExistsMissing(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery("sqlite_master").
		WithArgs("dim_contracts").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := svc.TableExists(context.Background(), "dim_contracts")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTableCount(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5844))

	count, err := svc.TableCount(context.Background(), "dim_time")
	require.NoError(t, err)
	assert.Equal(t, 5844, count)
}
