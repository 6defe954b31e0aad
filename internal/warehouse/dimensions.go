package warehouse

import (
	"context"
	"database/sql"
	"time"

	"procsync/pkg/errors"
)

// VendorRow is a dim_vendors row
type VendorRow struct {
	VendorKey               int64
	VendorID                string
	VendorName              string
	VendorTier              string
	DiversityClassification string
	RiskRating              string
	ESGScore                sql.NullFloat64
	Country                 string
	Region                  string
	EffectiveStartDate      string
	EffectiveEndDate        sql.NullString
	IsCurrent               bool
}

// CommodityRow is a dim_commodities row
type CommodityRow struct {
	CommodityKey        int64
	CommodityID         string
	Description         string
	ParentCategory      string
	SubCategory         string
	BusinessCriticality string
	SourcingComplexity  string
	CategoryManager     string
	EffectiveStartDate  string
	EffectiveEndDate    sql.NullString
	IsCurrent           bool
}

// DateFormat is the ISO date layout used across both stores
const DateFormat = "2006-01-02"

// CurrentVendor returns the current dimension row for a natural key, or nil
// if the key has never been seen.
func CurrentVendor(ctx context.Context, q DBTX, vendorID string) (*VendorRow, error) {
	row := q.QueryRowContext(ctx, `
		SELECT vendor_key, vendor_id, vendor_name, vendor_tier,
		       diversity_classification, risk_rating, esg_score, country, region,
		       effective_start_date, effective_end_date, is_current_record
		FROM dim_vendors
		WHERE vendor_id = ? AND is_current_record = 1`, vendorID)

	var v VendorRow
	var riskRating sql.NullString
	err := row.Scan(&v.VendorKey, &v.VendorID, &v.VendorName, &v.VendorTier,
		&v.DiversityClassification, &riskRating, &v.ESGScore, &v.Country, &v.Region,
		&v.EffectiveStartDate, &v.EffectiveEndDate, &v.IsCurrent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.SQLError("Failed to look up current vendor row",
			"SELECT ... FROM dim_vendors", err).WithContext("vendor_id", vendorID)
	}
	v.RiskRating = riskRating.String
	return &v, nil
}

// InsertVendorVersion inserts a new current row for a vendor, effective from
// startDate.
func InsertVendorVersion(ctx context.Context, q DBTX, v VendorRow, startDate time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO dim_vendors (
			vendor_id, vendor_name, vendor_tier, diversity_classification,
			risk_rating, esg_score, country, region,
			effective_start_date, effective_end_date, is_current_record
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, 1)`,
		v.VendorID, v.VendorName, v.VendorTier, v.DiversityClassification,
		v.RiskRating, v.ESGScore, v.Country, v.Region,
		startDate.Format(DateFormat))
	if err != nil {
		return errors.SQLError("Failed to insert vendor version",
			"INSERT INTO dim_vendors", err).WithContext("vendor_id", v.VendorID)
	}
	return nil
}

// CloseVendorVersion expires the current row for a vendor as of endDate
func CloseVendorVersion(ctx context.Context, q DBTX, vendorKey int64, endDate time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE dim_vendors
		SET is_current_record = 0, effective_end_date = ?
		WHERE vendor_key = ? AND is_current_record = 1`,
		endDate.Format(DateFormat), vendorKey)
	if err != nil {
		return errors.SQLError("Failed to close vendor version",
			"UPDATE dim_vendors", err).WithContext("vendor_key", vendorKey)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.New(errors.ErrCodeInvalidState, "No current vendor row to close").
			WithContext("vendor_key", vendorKey)
	}
	return nil
}

// CurrentCommodity returns the current dimension row for a natural key, or
// nil if the key has never been seen.
func CurrentCommodity(ctx context.Context, q DBTX, commodityID string) (*CommodityRow, error) {
	row := q.QueryRowContext(ctx, `
		SELECT commodity_key, commodity_id, commodity_description, parent_category,
		       sub_category, business_criticality, sourcing_complexity, category_manager,
		       effective_start_date, effective_end_date, is_current_record
		FROM dim_commodities
		WHERE commodity_id = ? AND is_current_record = 1`, commodityID)

	var c CommodityRow
	err := row.Scan(&c.CommodityKey, &c.CommodityID, &c.Description, &c.ParentCategory,
		&c.SubCategory, &c.BusinessCriticality, &c.SourcingComplexity, &c.CategoryManager,
		&c.EffectiveStartDate, &c.EffectiveEndDate, &c.IsCurrent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.SQLError("Failed to look up current commodity row",
			"SELECT ... FROM dim_commodities", err).WithContext("commodity_id", commodityID)
	}
	return &c, nil
}

// InsertCommodityVersion inserts a new current row for a commodity
func InsertCommodityVersion(ctx context.Context, q DBTX, c CommodityRow, startDate time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO dim_commodities (
			commodity_id, commodity_description, parent_category, sub_category,
			business_criticality, sourcing_complexity, category_manager,
			effective_start_date, effective_end_date, is_current_record
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, 1)`,
		c.CommodityID, c.Description, c.ParentCategory, c.SubCategory,
		c.BusinessCriticality, c.SourcingComplexity, c.CategoryManager,
		startDate.Format(DateFormat))
	if err != nil {
		return errors.SQLError("Failed to insert commodity version",
			"INSERT INTO dim_commodities", err).WithContext("commodity_id", c.CommodityID)
	}
	return nil
}

// CloseCommodityVersion expires the current row for a commodity as of endDate
func CloseCommodityVersion(ctx context.Context, q DBTX, commodityKey int64, endDate time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE dim_commodities
		SET is_current_record = 0, effective_end_date = ?
		WHERE commodity_key = ? AND is_current_record = 1`,
		endDate.Format(DateFormat), commodityKey)
	if err != nil {
		return errors.SQLError("Failed to close commodity version",
			"UPDATE dim_commodities", err).WithContext("commodity_key", commodityKey)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.New(errors.ErrCodeInvalidState, "No current commodity row to close").
			WithContext("commodity_key", commodityKey)
	}
	return nil
}

// DuplicateCurrentVendors returns natural keys that violate the single
// current row invariant. Run inside the phase transaction so a violation can
// still be rolled back.
func DuplicateCurrentVendors(ctx context.Context, q DBTX) ([]string, error) {
	return duplicateCurrentKeys(ctx, q, `
		SELECT vendor_id FROM dim_vendors
		WHERE is_current_record = 1
		GROUP BY vendor_id HAVING COUNT(*) > 1`)
}

// DuplicateCurrentCommodities returns commodity keys violating the invariant
func DuplicateCurrentCommodities(ctx context.Context, q DBTX) ([]string, error) {
	return duplicateCurrentKeys(ctx, q, `
		SELECT commodity_id FROM dim_commodities
		WHERE is_current_record = 1
		GROUP BY commodity_id HAVING COUNT(*) > 1`)
}

func duplicateCurrentKeys(ctx context.Context, q DBTX, query string) ([]string, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.SQLError("Failed to check current-row invariant", query, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// VendorRef is the slice of a current vendor row the fact loader needs:
// the surrogate key plus the attributes that weight fact measures.
type VendorRef struct {
	VendorKey  int64
	RiskRating string
	ESGScore   sql.NullFloat64
}

// CurrentVendorRefs maps natural keys to surrogate keys and weighting
// attributes for all current vendor rows. Used by the fact loader for
// reference resolution.
func CurrentVendorRefs(ctx context.Context, q DBTX) (map[string]VendorRef, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT vendor_id, vendor_key, COALESCE(risk_rating, ''), esg_score
		FROM dim_vendors WHERE is_current_record = 1`)
	if err != nil {
		return nil, errors.SQLError("Failed to load vendor references",
			"SELECT ... FROM dim_vendors", err)
	}
	defer rows.Close()

	refs := make(map[string]VendorRef)
	for rows.Next() {
		var id string
		var ref VendorRef
		if err := rows.Scan(&id, &ref.VendorKey, &ref.RiskRating, &ref.ESGScore); err != nil {
			return nil, err
		}
		refs[id] = ref
	}
	return refs, rows.Err()
}

// CurrentCommodityKeys maps natural keys to surrogate keys for all current
// commodity rows.
func CurrentCommodityKeys(ctx context.Context, q DBTX) (map[string]int64, error) {
	return currentKeyMap(ctx, q,
		`SELECT commodity_id, commodity_key FROM dim_commodities WHERE is_current_record = 1`)
}

func currentKeyMap(ctx context.Context, q DBTX, query string) (map[string]int64, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.SQLError("Failed to load surrogate key map", query, err)
	}
	defer rows.Close()

	keys := make(map[string]int64)
	for rows.Next() {
		var naturalKey string
		var surrogateKey int64
		if err := rows.Scan(&naturalKey, &surrogateKey); err != nil {
			return nil, err
		}
		keys[naturalKey] = surrogateKey
	}
	return keys, rows.Err()
}

// CurrentVendorCount returns the number of current vendor rows
func CurrentVendorCount(ctx context.Context, q DBTX) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dim_vendors WHERE is_current_record = 1`).Scan(&count)
	if err != nil {
		return 0, errors.SQLError("Failed to count current vendors",
			"SELECT COUNT(*) FROM dim_vendors", err)
	}
	return count, nil
}
