package warehouse

import (
	"context"

	"procsync/pkg/errors"
)

// TimeRow is a pre-materialized dim_time calendar entry. Rows are generated
// once by the bootstrap and immutable afterwards.
type TimeRow struct {
	TimeKey       int64
	DateActual    string
	Year          int
	Quarter       int
	Month         int
	FiscalYear    int
	FiscalQuarter int
	MonthName     string
	QuarterName   string
	DayOfWeek     string
	WeekOfYear    int
}

// InsertTimeRows persists calendar rows inside a single transaction.
// INSERT OR IGNORE keeps the operation idempotent over an existing range.
func (s *Service) InsertTimeRows(ctx context.Context, rows []TimeRow) (int, error) {
	if !s.connected {
		return 0, errors.New(errors.ErrCodeConnectionFailed, "Not connected to analytics database")
	}

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO dim_time (
			time_key, date_actual, year, quarter, month,
			fiscal_year, fiscal_quarter, month_name, quarter_name,
			day_of_week, week_of_year
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return 0, errors.SQLError("Failed to prepare time dimension insert",
			"INSERT OR IGNORE INTO dim_time", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range rows {
		res, err := stmt.ExecContext(ctx,
			r.TimeKey, r.DateActual, r.Year, r.Quarter, r.Month,
			r.FiscalYear, r.FiscalQuarter, r.MonthName, r.QuarterName,
			r.DayOfWeek, r.WeekOfYear)
		if err != nil {
			tx.Rollback()
			return 0, errors.SQLError("Failed to insert time dimension row",
				"INSERT OR IGNORE INTO dim_time", err).
				WithContext("time_key", r.TimeKey)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSQLTransaction,
			"Failed to commit time dimension rows")
	}
	return inserted, nil
}

// TimeKeys returns the set of existing time keys. The fact loader uses this
// for reference resolution instead of one query per transaction.
func TimeKeys(ctx context.Context, q DBTX) (map[int64]struct{}, error) {
	rows, err := q.QueryContext(ctx, `SELECT time_key FROM dim_time`)
	if err != nil {
		return nil, errors.SQLError("Failed to load time keys",
			"SELECT time_key FROM dim_time", err)
	}
	defer rows.Close()

	keys := make(map[int64]struct{})
	for rows.Next() {
		var key int64
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys[key] = struct{}{}
	}
	return keys, rows.Err()
}

// TimeRange returns the min and max time keys present, or ok=false when the
// dimension is empty.
func TimeRange(ctx context.Context, q DBTX) (min, max int64, ok bool, err error) {
	row := q.QueryRowContext(ctx,
		`SELECT COALESCE(MIN(time_key), 0), COALESCE(MAX(time_key), 0), COUNT(*) FROM dim_time`)
	var count int
	if err := row.Scan(&min, &max, &count); err != nil {
		return 0, 0, false, errors.SQLError("Failed to read time dimension range",
			"SELECT MIN, MAX FROM dim_time", err)
	}
	return min, max, count > 0, nil
}
