package etl

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procsync/internal/source"
	"procsync/pkg/errors"
)

var vendorColumns = []string{
	"vendor_key", "vendor_id", "vendor_name", "vendor_tier",
	"diversity_classification", "risk_rating", "esg_score", "country", "region",
	"effective_start_date", "effective_end_date", "is_current_record",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testRunContext(mode Mode) *RunContext {
	rc := NewRunContext(mode)
	rc.RunDate = date(2025, 6, 15)
	return rc
}

func TestApplyVendorNew(t *testing.T) {
	db, mock := newMockDB(t)
	rc := testRunContext(ModeDaily)

	mock.ExpectQuery("SELECT vendor_key").
		WithArgs("VEND-001").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO dim_vendors").
		WillReturnResult(sqlmock.NewResult(1, 1))

	change, err := ApplyVendor(context.Background(), db, rc, baseVendor())
	require.NoError(t, err)
	assert.Equal(t, NotExists, change)
	assert.Equal(t, 1, rc.Counts.VendorsInserted)
	assert.Equal(t, 0, rc.Counts.VendorsVersioned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyVendorUnchanged(t *testing.T) {
	db, mock := newMockDB(t)
	rc := testRunContext(ModeDaily)

	mock.ExpectQuery("SELECT vendor_key").
		WithArgs("VEND-001").
		WillReturnRows(sqlmock.NewRows(vendorColumns).
			AddRow(1, "VEND-001", "Acme Industrial", "Strategic",
				"None", "High", 72.5, "Germany", "EMEA",
				"2025-01-01", nil, true))

	change, err := ApplyVendor(context.Background(), db, rc, baseVendor())
	require.NoError(t, err)
	assert.Equal(t, Unchanged, change)
	assert.Equal(t, 1, rc.Counts.VendorsUnchanged)
	assert.Equal(t, 0, rc.Counts.VendorsProcessed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyVendorChanged(t *testing.T) {
	db, mock := newMockDB(t)
	rc := testRunContext(ModeDaily)

	mock.ExpectQuery("SELECT vendor_key").
		WithArgs("VEND-001").
		WillReturnRows(sqlmock.NewRows(vendorColumns).
			AddRow(1, "VEND-001", "Acme Industrial", "Preferred",
				"None", "High", 72.5, "Germany", "EMEA",
				"2025-01-01", nil, true))

	// Superseded row closes the day before the new version starts
	mock.ExpectExec("UPDATE dim_vendors").
		WithArgs("2025-06-14", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO dim_vendors").
		WillReturnResult(sqlmock.NewResult(2, 1))

	change, err := ApplyVendor(context.Background(), db, rc, baseVendor())
	require.NoError(t, err)
	assert.Equal(t, Changed, change)
	assert.Equal(t, 1, rc.Counts.VendorsVersioned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCommodityNew(t *testing.T) {
	db, mock := newMockDB(t)
	rc := testRunContext(ModeDaily)

	mock.ExpectQuery("SELECT commodity_key").
		WithArgs("COMM-010").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO dim_commodities").
		WillReturnResult(sqlmock.NewResult(1, 1))

	change, err := ApplyCommodity(context.Background(), db, rc, source.Commodity{
		CommodityID:    "COMM-010",
		Description:    "Hydraulic pumps",
		ParentCategory: "Industrial Equipment",
	})
	require.NoError(t, err)
	assert.Equal(t, NotExists, change)
	assert.Equal(t, 1, rc.Counts.CommoditiesInserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyVendorDefaultsMissingRisk(t *testing.T) {
	db, mock := newMockDB(t)
	rc := testRunContext(ModeDaily)

	src := baseVendor()
	src.RiskRating = sql.NullString{}

	mock.ExpectQuery("SELECT vendor_key").
		WithArgs("VEND-001").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO dim_vendors").
		WithArgs("VEND-001", "Acme Industrial", "Strategic", "None",
			DefaultRiskRating, src.ESGScore, "Germany", "EMEA",
			"2025-06-15").
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := ApplyVendor(context.Background(), db, rc, src)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckDimensionIntegrityClean(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT vendor_id FROM dim_vendors").
		WillReturnRows(sqlmock.NewRows([]string{"vendor_id"}))
	mock.ExpectQuery("SELECT commodity_id FROM dim_commodities").
		WillReturnRows(sqlmock.NewRows([]string{"commodity_id"}))

	require.NoError(t, CheckDimensionIntegrity(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckDimensionIntegrityDuplicateVendor(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT vendor_id FROM dim_vendors").
		WillReturnRows(sqlmock.NewRows([]string{"vendor_id"}).AddRow("VEND-001"))

	err := CheckDimensionIntegrity(context.Background(), db)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIntegrityViolation, errors.GetErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyVendorPropagatesLookupError(t *testing.T) {
	db, mock := newMockDB(t)
	rc := testRunContext(ModeDaily)

	mock.ExpectQuery("SELECT vendor_key").
		WithArgs("VEND-001").
		WillReturnError(sql.ErrConnDone)

	_, err := ApplyVendor(context.Background(), db, rc, baseVendor())
	require.Error(t, err)
	assert.Equal(t, 0, rc.Counts.VendorsProcessed())
}
