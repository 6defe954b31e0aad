package etl

import (
	"context"
	"strings"

	"procsync/internal/source"
	"procsync/internal/warehouse"
	"procsync/pkg/errors"
)

// ApplyVendor runs the SCD2 protocol for one source vendor inside the
// dimension-phase transaction. The caller guarantees at most one invocation
// per natural key per run; close and insert therefore commit or roll back
// together with the rest of the phase.
func ApplyVendor(ctx context.Context, q warehouse.DBTX, rc *RunContext, src source.Vendor) (ChangeType, error) {
	current, err := warehouse.CurrentVendor(ctx, q, src.VendorID)
	if err != nil {
		return Unchanged, err
	}

	classification := ClassifyVendor(src, current)

	switch classification {
	case NotExists:
		if err := warehouse.InsertVendorVersion(ctx, q, vendorRowFromSource(src), rc.RunDate); err != nil {
			return classification, err
		}
		rc.Counts.VendorsInserted++

	case Changed:
		// Close the superseded row the day before the new version
		// becomes effective, keeping the history partition gap-free.
		endDate := rc.RunDate.AddDate(0, 0, -1)
		if err := warehouse.CloseVendorVersion(ctx, q, current.VendorKey, endDate); err != nil {
			return classification, err
		}
		if err := warehouse.InsertVendorVersion(ctx, q, vendorRowFromSource(src), rc.RunDate); err != nil {
			return classification, err
		}
		rc.Counts.VendorsVersioned++

	case Unchanged:
		rc.Counts.VendorsUnchanged++
	}

	return classification, nil
}

// ApplyCommodity runs the SCD2 protocol for one source commodity
func ApplyCommodity(ctx context.Context, q warehouse.DBTX, rc *RunContext, src source.Commodity) (ChangeType, error) {
	current, err := warehouse.CurrentCommodity(ctx, q, src.CommodityID)
	if err != nil {
		return Unchanged, err
	}

	classification := ClassifyCommodity(src, current)

	switch classification {
	case NotExists:
		if err := warehouse.InsertCommodityVersion(ctx, q, commodityRowFromSource(src), rc.RunDate); err != nil {
			return classification, err
		}
		rc.Counts.CommoditiesInserted++

	case Changed:
		endDate := rc.RunDate.AddDate(0, 0, -1)
		if err := warehouse.CloseCommodityVersion(ctx, q, current.CommodityKey, endDate); err != nil {
			return classification, err
		}
		if err := warehouse.InsertCommodityVersion(ctx, q, commodityRowFromSource(src), rc.RunDate); err != nil {
			return classification, err
		}
		rc.Counts.CommoditiesVersioned++

	case Unchanged:
		rc.Counts.CommoditiesUnchanged++
	}

	return classification, nil
}

// CheckDimensionIntegrity verifies the single-current-row invariant after a
// dimension phase. Must run inside the phase transaction so a violation can
// still roll the phase back.
func CheckDimensionIntegrity(ctx context.Context, q warehouse.DBTX) error {
	vendorDups, err := warehouse.DuplicateCurrentVendors(ctx, q)
	if err != nil {
		return err
	}
	if len(vendorDups) > 0 {
		return errors.IntegrityError(
			"Duplicate current rows in dim_vendors", strings.Join(vendorDups, ","))
	}

	commodityDups, err := warehouse.DuplicateCurrentCommodities(ctx, q)
	if err != nil {
		return err
	}
	if len(commodityDups) > 0 {
		return errors.IntegrityError(
			"Duplicate current rows in dim_commodities", strings.Join(commodityDups, ","))
	}

	return nil
}

func vendorRowFromSource(src source.Vendor) warehouse.VendorRow {
	return warehouse.VendorRow{
		VendorID:                normText(src.VendorID),
		VendorName:              normText(src.VendorName),
		VendorTier:              normText(src.VendorTier),
		DiversityClassification: normText(src.DiversityClassification),
		RiskRating:              normRisk(normNullString(src.RiskRating)),
		ESGScore:                src.ESGScore,
		Country:                 normText(src.Country),
		Region:                  normText(src.Region),
		IsCurrent:               true,
	}
}

func commodityRowFromSource(src source.Commodity) warehouse.CommodityRow {
	return warehouse.CommodityRow{
		CommodityID:         normText(src.CommodityID),
		Description:         normText(src.Description),
		ParentCategory:      normText(src.ParentCategory),
		SubCategory:         normText(src.SubCategory),
		BusinessCriticality: normText(src.BusinessCriticality),
		SourcingComplexity:  normText(src.SourcingComplexity),
		CategoryManager:     normText(src.CategoryManager),
		IsCurrent:           true,
	}
}
