package warehouse

import (
	"context"
	"database/sql"
	"time"

	"procsync/pkg/errors"
)

// RunRecord is the persisted outcome of one ETL run, consumed by external
// monitoring and by `procsync status`.
type RunRecord struct {
	RunID                string
	Mode                 string
	Status               string
	StartTime            time.Time
	EndTime              sql.NullTime
	VendorsProcessed     int
	CommoditiesProcessed int
	FactsLoaded          int
	RowsSkipped          int
	ReconciliationStatus string
	ErrorSummary         string
}

// InsertRunRecord persists the outcome of a finished run
func (s *Service) InsertRunRecord(ctx context.Context, rec RunRecord) error {
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to analytics database")
	}

	var endTime interface{}
	if rec.EndTime.Valid {
		endTime = rec.EndTime.Time.Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO etl_run_history (
			run_id, mode, status, start_time, end_time,
			vendors_processed, commodities_processed, facts_loaded, rows_skipped,
			reconciliation_status, error_summary
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Mode, rec.Status, rec.StartTime.Format(time.RFC3339), endTime,
		rec.VendorsProcessed, rec.CommoditiesProcessed, rec.FactsLoaded, rec.RowsSkipped,
		rec.ReconciliationStatus, rec.ErrorSummary)
	if err != nil {
		return errors.SQLError("Failed to record run outcome",
			"INSERT INTO etl_run_history", err).WithContext("run_id", rec.RunID)
	}
	return nil
}

// PruneRunHistory deletes run records older than the cutoff. Monthly
// maintenance runs call this to keep the audit table bounded.
func (s *Service) PruneRunHistory(ctx context.Context, before time.Time) (int64, error) {
	if !s.connected {
		return 0, errors.New(errors.ErrCodeConnectionFailed, "Not connected to analytics database")
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM etl_run_history WHERE start_time < ?`, before.Format(time.RFC3339))
	if err != nil {
		return 0, errors.SQLError("Failed to prune run history",
			"DELETE FROM etl_run_history", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RecentRuns returns the most recent run records, newest first
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if !s.connected {
		return nil, errors.New(errors.ErrCodeConnectionFailed, "Not connected to analytics database")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, mode, status, start_time, end_time,
		       vendors_processed, commodities_processed, facts_loaded, rows_skipped,
		       COALESCE(reconciliation_status, ''), COALESCE(error_summary, '')
		FROM etl_run_history
		ORDER BY start_time DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.SQLError("Failed to read run history",
			"SELECT ... FROM etl_run_history", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var start string
		var end sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.Mode, &rec.Status, &start, &end,
			&rec.VendorsProcessed, &rec.CommoditiesProcessed, &rec.FactsLoaded,
			&rec.RowsSkipped, &rec.ReconciliationStatus, &rec.ErrorSummary); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, start); err == nil {
			rec.StartTime = t
		}
		if end.Valid {
			if t, err := time.Parse(time.RFC3339, end.String); err == nil {
				rec.EndTime = sql.NullTime{Time: t, Valid: true}
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
