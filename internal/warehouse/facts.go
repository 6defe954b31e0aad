package warehouse

import (
	"context"
	"database/sql"
	"time"

	"procsync/pkg/errors"
)

// FactRow is a fact_spend_analytics row ready for insertion
type FactRow struct {
	VendorKey                int64
	CommodityKey             int64
	ContractKey              sql.NullInt64
	TimeKey                  int64
	BusinessUnitKey          sql.NullInt64
	SpendAmount              float64
	TransactionCount         int
	Quantity                 sql.NullFloat64
	UnitPrice                sql.NullFloat64
	DeliveryPerformanceScore sql.NullFloat64
	QualityScore             sql.NullFloat64
	ComplianceScore          sql.NullFloat64
	RiskWeightedSpend        sql.NullFloat64
	ESGWeightedSpend         sql.NullFloat64
	SavingsAmount            sql.NullFloat64
	DiscountAmount           sql.NullFloat64
	SourceTransactionID      string
	LoadDate                 string
}

// LoadedTransactionIDs returns the set of source transaction ids already in
// the fact table. Set membership replaces the old NOT IN subquery so the
// exactly-once check is one scan instead of one per row.
func LoadedTransactionIDs(ctx context.Context, q DBTX) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT source_transaction_id FROM fact_spend_analytics`)
	if err != nil {
		return nil, errors.SQLError("Failed to load fact transaction ids",
			"SELECT source_transaction_id FROM fact_spend_analytics", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// InsertFact inserts one fact row. The unique index on
// source_transaction_id backs up the in-memory exactly-once check.
func InsertFact(ctx context.Context, q DBTX, f FactRow) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO fact_spend_analytics (
			vendor_key, commodity_key, contract_key, time_key, business_unit_key,
			spend_amount, transaction_count, quantity, unit_price,
			delivery_performance_score, quality_score, compliance_score,
			risk_weighted_spend, esg_weighted_spend, savings_amount, discount_amount,
			source_transaction_id, load_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.VendorKey, f.CommodityKey, f.ContractKey, f.TimeKey, f.BusinessUnitKey,
		f.SpendAmount, f.TransactionCount, f.Quantity, f.UnitPrice,
		f.DeliveryPerformanceScore, f.QualityScore, f.ComplianceScore,
		f.RiskWeightedSpend, f.ESGWeightedSpend, f.SavingsAmount, f.DiscountAmount,
		f.SourceTransactionID, f.LoadDate)
	if err != nil {
		return errors.SQLError("Failed to insert fact row",
			"INSERT INTO fact_spend_analytics", err).
			WithContext("source_transaction_id", f.SourceTransactionID)
	}
	return nil
}

// FactCount returns the total number of fact rows
func FactCount(ctx context.Context, q DBTX) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM fact_spend_analytics`).Scan(&count)
	if err != nil {
		return 0, errors.SQLError("Failed to count facts",
			"SELECT COUNT(*) FROM fact_spend_analytics", err)
	}
	return count, nil
}

// TotalFactSpend returns the aggregate spend amount across all facts
func TotalFactSpend(ctx context.Context, q DBTX) (float64, error) {
	var total float64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(spend_amount), 0) FROM fact_spend_analytics`).Scan(&total)
	if err != nil {
		return 0, errors.SQLError("Failed to sum fact spend",
			"SELECT SUM(spend_amount) FROM fact_spend_analytics", err)
	}
	return total, nil
}

// FactCountsByFiscalYear returns per-fiscal-year fact counts via the time
// dimension.
func FactCountsByFiscalYear(ctx context.Context, q DBTX) (map[int]int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.fiscal_year, COUNT(*)
		FROM fact_spend_analytics f
		JOIN dim_time t ON t.time_key = f.time_key
		GROUP BY t.fiscal_year`)
	if err != nil {
		return nil, errors.SQLError("Failed to group facts by fiscal year",
			"SELECT ... JOIN dim_time", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var fy, count int
		if err := rows.Scan(&fy, &count); err != nil {
			return nil, err
		}
		counts[fy] = count
	}
	return counts, rows.Err()
}

// OrphanedFactCount counts fact rows whose foreign keys do not resolve to
// any dimension row, current or historical.
func OrphanedFactCount(ctx context.Context, q DBTX) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM fact_spend_analytics f
		LEFT JOIN dim_vendors v ON v.vendor_key = f.vendor_key
		LEFT JOIN dim_commodities c ON c.commodity_key = f.commodity_key
		LEFT JOIN dim_time t ON t.time_key = f.time_key
		WHERE v.vendor_key IS NULL OR c.commodity_key IS NULL OR t.time_key IS NULL`).
		Scan(&count)
	if err != nil {
		return 0, errors.SQLError("Failed to count orphaned facts",
			"SELECT ... LEFT JOIN", err)
	}
	return count, nil
}

// FactLoadDate formats a run date for the load_date audit column
func FactLoadDate(runDate time.Time) string {
	return runDate.Format(DateFormat)
}
