package etl

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"procsync/internal/source"
	"procsync/internal/warehouse"
)

func baseVendor() source.Vendor {
	return source.Vendor{
		VendorID:                "VEND-001",
		VendorName:              "Acme Industrial",
		VendorTier:              "Strategic",
		DiversityClassification: "None",
		RiskRating:              sql.NullString{String: "High", Valid: true},
		ESGScore:                sql.NullFloat64{Float64: 72.5, Valid: true},
		Country:                 "Germany",
		Region:                  "EMEA",
	}
}

func baseVendorRow() *warehouse.VendorRow {
	return &warehouse.VendorRow{
		VendorKey:               1,
		VendorID:                "VEND-001",
		VendorName:              "Acme Industrial",
		VendorTier:              "Strategic",
		DiversityClassification: "None",
		RiskRating:              "High",
		ESGScore:                sql.NullFloat64{Float64: 72.5, Valid: true},
		Country:                 "Germany",
		Region:                  "EMEA",
		IsCurrent:               true,
	}
}

func TestClassifyVendor(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*source.Vendor, *warehouse.VendorRow)
		noRow  bool
		want   ChangeType
	}{
		{
			name:   "identical attributes",
			mutate: func(*source.Vendor, *warehouse.VendorRow) {},
			want:   Unchanged,
		},
		{
			name:  "no current row",
			noRow: true,
			want:  NotExists,
		},
		{
			name: "name changed",
			mutate: func(s *source.Vendor, _ *warehouse.VendorRow) {
				s.VendorName = "Acme Industrial GmbH"
			},
			want: Changed,
		},
		{
			name: "tier changed",
			mutate: func(s *source.Vendor, _ *warehouse.VendorRow) {
				s.VendorTier = "Preferred"
			},
			want: Changed,
		},
		{
			name: "whitespace only difference is not a change",
			mutate: func(s *source.Vendor, _ *warehouse.VendorRow) {
				s.VendorName = "  Acme Industrial  "
			},
			want: Unchanged,
		},
		{
			name: "case difference is a change",
			mutate: func(s *source.Vendor, _ *warehouse.VendorRow) {
				s.VendorName = "ACME INDUSTRIAL"
			},
			want: Changed,
		},
		{
			name: "null risk rating matches stored default",
			mutate: func(s *source.Vendor, r *warehouse.VendorRow) {
				s.RiskRating = sql.NullString{}
				r.RiskRating = "Medium"
			},
			want: Unchanged,
		},
		{
			name: "risk rating changed",
			mutate: func(s *source.Vendor, _ *warehouse.VendorRow) {
				s.RiskRating = sql.NullString{String: "Low", Valid: true}
			},
			want: Changed,
		},
		{
			name: "esg score drift within epsilon",
			mutate: func(s *source.Vendor, _ *warehouse.VendorRow) {
				s.ESGScore = sql.NullFloat64{Float64: 72.5 + 1e-12, Valid: true}
			},
			want: Unchanged,
		},
		{
			name: "esg score changed",
			mutate: func(s *source.Vendor, _ *warehouse.VendorRow) {
				s.ESGScore = sql.NullFloat64{Float64: 68.0, Valid: true}
			},
			want: Changed,
		},
		{
			name: "esg score becomes null",
			mutate: func(s *source.Vendor, _ *warehouse.VendorRow) {
				s.ESGScore = sql.NullFloat64{}
			},
			want: Changed,
		},
		{
			name: "country changed",
			mutate: func(s *source.Vendor, _ *warehouse.VendorRow) {
				s.Country = "Austria"
			},
			want: Changed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := baseVendor()
			row := baseVendorRow()
			if tt.mutate != nil {
				tt.mutate(&src, row)
			}
			if tt.noRow {
				row = nil
			}
			assert.Equal(t, tt.want, ClassifyVendor(src, row))
		})
	}
}

func TestClassifyCommodity(t *testing.T) {
	src := source.Commodity{
		CommodityID:         "COMM-010",
		Description:         "Hydraulic pumps",
		ParentCategory:      "Industrial Equipment",
		SubCategory:         "Fluid Handling",
		BusinessCriticality: "High",
		SourcingComplexity:  "Complex",
		CategoryManager:     "J. Tan",
	}
	row := &warehouse.CommodityRow{
		CommodityKey:        7,
		CommodityID:         "COMM-010",
		Description:         "Hydraulic pumps",
		ParentCategory:      "Industrial Equipment",
		SubCategory:         "Fluid Handling",
		BusinessCriticality: "High",
		SourcingComplexity:  "Complex",
		CategoryManager:     "J. Tan",
		IsCurrent:           true,
	}

	assert.Equal(t, Unchanged, ClassifyCommodity(src, row))
	assert.Equal(t, NotExists, ClassifyCommodity(src, nil))

	changed := src
	changed.CategoryManager = "L. Ortiz"
	assert.Equal(t, Changed, ClassifyCommodity(changed, row))

	changed = src
	changed.BusinessCriticality = "Medium"
	assert.Equal(t, Changed, ClassifyCommodity(changed, row))
}

func TestChangeTypeString(t *testing.T) {
	assert.Equal(t, "NOT_EXISTS", NotExists.String())
	assert.Equal(t, "UNCHANGED", Unchanged.String())
	assert.Equal(t, "CHANGED", Changed.String())
}
