package source

import "database/sql"

// Vendor is a vendor master row from the operational database
type Vendor struct {
	VendorID                string          `db:"vendor_id"`
	VendorName              string          `db:"vendor_name"`
	VendorTier              string          `db:"vendor_tier"`
	DiversityClassification string          `db:"diversity_classification"`
	RiskRating              sql.NullString  `db:"risk_rating"`
	ESGScore                sql.NullFloat64 `db:"esg_score"`
	Country                 string          `db:"country"`
	Region                  string          `db:"region"`
	IsActive                bool            `db:"is_active"`
}

// Commodity is a commodity master row from the operational database
type Commodity struct {
	CommodityID         string `db:"commodity_id"`
	Description         string `db:"commodity_description"`
	ParentCategory      string `db:"parent_category"`
	SubCategory         string `db:"sub_category"`
	BusinessCriticality string `db:"business_criticality"`
	SourcingComplexity  string `db:"sourcing_complexity"`
	CategoryManager     string `db:"category_manager"`
	IsActive            bool   `db:"is_active"`
}

// SpendTransaction is a single spend transaction from the operational database.
// TransactionID is assigned monotonically by the operational system and is the
// audit link carried into the fact table.
type SpendTransaction struct {
	TransactionID            int64           `db:"transaction_id"`
	VendorID                 string          `db:"vendor_id"`
	CommodityID              string          `db:"commodity_id"`
	ContractID               sql.NullString  `db:"contract_id"`
	TotalAmount              float64         `db:"total_amount"`
	Quantity                 sql.NullFloat64 `db:"quantity"`
	UnitPrice                sql.NullFloat64 `db:"unit_price"`
	DeliveryPerformanceScore sql.NullFloat64 `db:"delivery_performance_score"`
	QualityScore             sql.NullFloat64 `db:"quality_score"`
	ComplianceScore          sql.NullFloat64 `db:"compliance_score"`
	SavingsAmount            sql.NullFloat64 `db:"savings_amount"`
	DiscountAmount           sql.NullFloat64 `db:"discount_amount"`
	TransactionType          string          `db:"transaction_type"`
	AwardDate                string          `db:"award_date"` // ISO date, validated by the loader
}

// MonthCount is a per-calendar-month transaction count used by reconciliation
type MonthCount struct {
	Year  int `db:"year"`
	Month int `db:"month"`
	Count int `db:"count"`
}
