package warehouse

import (
	"context"

	"procsync/pkg/errors"
)

// Star schema DDL, mirroring the analytics database this tool targets. The
// unique index on source_transaction_id is the backstop for exactly-once
// fact loads.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS dim_vendors (
		vendor_key INTEGER PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		vendor_name TEXT,
		vendor_tier TEXT,
		diversity_classification TEXT,
		risk_rating TEXT,
		esg_score REAL,
		country TEXT,
		region TEXT,
		effective_start_date DATE NOT NULL,
		effective_end_date DATE,
		is_current_record BOOLEAN NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dim_vendors_natural
		ON dim_vendors(vendor_id, is_current_record)`,
	`CREATE TABLE IF NOT EXISTS dim_commodities (
		commodity_key INTEGER PRIMARY KEY,
		commodity_id TEXT NOT NULL,
		commodity_description TEXT,
		parent_category TEXT,
		sub_category TEXT,
		business_criticality TEXT,
		sourcing_complexity TEXT,
		category_manager TEXT,
		effective_start_date DATE NOT NULL,
		effective_end_date DATE,
		is_current_record BOOLEAN NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dim_commodities_natural
		ON dim_commodities(commodity_id, is_current_record)`,
	`CREATE TABLE IF NOT EXISTS dim_time (
		time_key INTEGER PRIMARY KEY,
		date_actual DATE NOT NULL,
		year INTEGER NOT NULL,
		quarter INTEGER NOT NULL,
		month INTEGER NOT NULL,
		fiscal_year INTEGER NOT NULL,
		fiscal_quarter INTEGER NOT NULL,
		month_name TEXT NOT NULL,
		quarter_name TEXT NOT NULL,
		day_of_week TEXT NOT NULL,
		week_of_year INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fact_spend_analytics (
		fact_key INTEGER PRIMARY KEY,
		vendor_key INTEGER NOT NULL,
		commodity_key INTEGER NOT NULL,
		contract_key INTEGER,
		time_key INTEGER NOT NULL,
		business_unit_key INTEGER,
		spend_amount REAL NOT NULL,
		transaction_count INTEGER NOT NULL DEFAULT 1,
		quantity REAL,
		unit_price REAL,
		delivery_performance_score REAL,
		quality_score REAL,
		compliance_score REAL,
		risk_weighted_spend REAL,
		esg_weighted_spend REAL,
		savings_amount REAL,
		discount_amount REAL,
		source_transaction_id TEXT NOT NULL,
		load_date DATE NOT NULL,
		FOREIGN KEY (vendor_key) REFERENCES dim_vendors(vendor_key),
		FOREIGN KEY (commodity_key) REFERENCES dim_commodities(commodity_key),
		FOREIGN KEY (time_key) REFERENCES dim_time(time_key)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_fact_source_txn
		ON fact_spend_analytics(source_transaction_id)`,
	`CREATE TABLE IF NOT EXISTS etl_run_history (
		run_id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		vendors_processed INTEGER NOT NULL DEFAULT 0,
		commodities_processed INTEGER NOT NULL DEFAULT 0,
		facts_loaded INTEGER NOT NULL DEFAULT 0,
		rows_skipped INTEGER NOT NULL DEFAULT 0,
		reconciliation_status TEXT,
		error_summary TEXT
	)`,
}

// EnsureSchema creates the star schema tables if they do not exist yet.
// Bootstrap only; the per-run core treats the schema as given.
func (s *Service) EnsureSchema(ctx context.Context) error {
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to analytics database")
	}

	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.SQLError("Failed to create schema object", stmt, err)
		}
	}
	return nil
}

// RequiredTables lists the star schema tables the verifier checks for
func RequiredTables() []string {
	return []string{"dim_vendors", "dim_commodities", "dim_time", "fact_spend_analytics", "etl_run_history"}
}

// TableExists reports whether a table is present in the analytics database
func (s *Service) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).
		Scan(&count)
	if err != nil {
		return false, errors.SQLError("Failed to inspect schema", "SELECT FROM sqlite_master", err)
	}
	return count > 0, nil
}

// TableCount returns the number of rows in a table. The name must come from
// a fixed list, never user input.
func (s *Service) TableCount(ctx context.Context, name string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+name).Scan(&count)
	if err != nil {
		return 0, errors.SQLError("Failed to count rows", "SELECT COUNT(*) FROM "+name, err)
	}
	return count, nil
}
