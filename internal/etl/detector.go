package etl

import (
	"database/sql"
	"math"
	"strings"

	"procsync/internal/source"
	"procsync/internal/warehouse"
)

// ChangeType classifies a source record against the current analytics row
type ChangeType int

const (
	// NotExists means no current row exists for the natural key
	NotExists ChangeType = iota
	// Unchanged means every tracked attribute matches
	Unchanged
	// Changed means at least one tracked attribute differs
	Changed
)

func (c ChangeType) String() string {
	switch c {
	case NotExists:
		return "NOT_EXISTS"
	case Unchanged:
		return "UNCHANGED"
	case Changed:
		return "CHANGED"
	}
	return "UNKNOWN"
}

// DefaultRiskRating is substituted for a missing risk rating on both sides
// of a comparison, so a null-vs-default mismatch never reads as a change.
const DefaultRiskRating = "Medium"

const scoreEpsilon = 1e-9

// Text attributes are trimmed before comparison; case differences are
// treated as real changes.
func normText(s string) string {
	return strings.TrimSpace(s)
}

func normRisk(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultRiskRating
	}
	return s
}

func normNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return normText(ns.String)
}

func scoresEqual(a, b sql.NullFloat64) bool {
	if a.Valid != b.Valid {
		return false
	}
	if !a.Valid {
		return true
	}
	return math.Abs(a.Float64-b.Float64) < scoreEpsilon
}

// ClassifyVendor compares a source vendor against its current analytics row.
// Pure function; the versioner acts on the result.
func ClassifyVendor(src source.Vendor, current *warehouse.VendorRow) ChangeType {
	if current == nil {
		return NotExists
	}

	switch {
	case normText(src.VendorName) != normText(current.VendorName),
		normText(src.VendorTier) != normText(current.VendorTier),
		normText(src.DiversityClassification) != normText(current.DiversityClassification),
		normRisk(normNullString(src.RiskRating)) != normRisk(current.RiskRating),
		!scoresEqual(src.ESGScore, current.ESGScore),
		normText(src.Country) != normText(current.Country),
		normText(src.Region) != normText(current.Region):
		return Changed
	}
	return Unchanged
}

// ClassifyCommodity compares a source commodity against its current
// analytics row.
func ClassifyCommodity(src source.Commodity, current *warehouse.CommodityRow) ChangeType {
	if current == nil {
		return NotExists
	}

	switch {
	case normText(src.Description) != normText(current.Description),
		normText(src.ParentCategory) != normText(current.ParentCategory),
		normText(src.SubCategory) != normText(current.SubCategory),
		normText(src.BusinessCriticality) != normText(current.BusinessCriticality),
		normText(src.SourcingComplexity) != normText(current.SourcingComplexity),
		normText(src.CategoryManager) != normText(current.CategoryManager):
		return Changed
	}
	return Unchanged
}
