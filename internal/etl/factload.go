package etl

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"procsync/internal/source"
	"procsync/internal/warehouse"
	"procsync/pkg/errors"
)

// Risk multipliers applied to spend when deriving risk_weighted_spend
var riskMultipliers = map[string]float64{
	"Low":    0.25,
	"Medium": 0.5,
	"High":   1.0,
}

// LoadFacts maps a batch of source transactions to fact rows inside the
// fact-phase transaction. Unresolved references and malformed dates are
// skipped and counted, never failing the run; already-loaded transactions
// are no-ops, making a rerun over the same window idempotent.
func LoadFacts(ctx context.Context, q warehouse.DBTX, rc *RunContext, txns []source.SpendTransaction) error {
	vendorRefs, err := warehouse.CurrentVendorRefs(ctx, q)
	if err != nil {
		return err
	}
	commodityKeys, err := warehouse.CurrentCommodityKeys(ctx, q)
	if err != nil {
		return err
	}
	timeKeys, err := warehouse.TimeKeys(ctx, q)
	if err != nil {
		return err
	}
	loaded, err := warehouse.LoadedTransactionIDs(ctx, q)
	if err != nil {
		return err
	}

	for _, txn := range txns {
		sourceID := strconv.FormatInt(txn.TransactionID, 10)

		// Exactly-once: a transaction already in the fact table is
		// skipped without comment. The unique index on
		// source_transaction_id backs this check up.
		if _, ok := loaded[sourceID]; ok {
			rc.Counts.FactsAlreadyLoaded++
			continue
		}

		awardDate, err := time.Parse(warehouse.DateFormat, txn.AwardDate)
		if err != nil {
			rc.RecordSkip(errors.DataQualityError(errors.ErrCodeMalformedDate,
				fmt.Sprintf("Unparseable award date %q", txn.AwardDate), sourceID))
			continue
		}

		vendor, ok := vendorRefs[txn.VendorID]
		if !ok {
			rc.RecordSkip(errors.DataQualityError(errors.ErrCodeUnresolvedVendor,
				fmt.Sprintf("No current vendor dimension row for %q", txn.VendorID), sourceID))
			continue
		}

		commodityKey, ok := commodityKeys[txn.CommodityID]
		if !ok {
			rc.RecordSkip(errors.DataQualityError(errors.ErrCodeUnresolvedCommodity,
				fmt.Sprintf("No current commodity dimension row for %q", txn.CommodityID), sourceID))
			continue
		}

		timeKey := TimeKey(awardDate)
		if _, ok := timeKeys[timeKey]; !ok {
			rc.RecordSkip(errors.DataQualityError(errors.ErrCodeUnresolvedTimeKey,
				fmt.Sprintf("No time dimension row for key %d", timeKey), sourceID))
			continue
		}

		fact := buildFactRow(txn, vendor, commodityKey, timeKey, rc.RunDate)
		fact.SourceTransactionID = sourceID

		if err := warehouse.InsertFact(ctx, q, fact); err != nil {
			// A constraint violation on one row is a data quality
			// problem, not a reason to abandon the batch.
			if errors.GetErrorCode(err) == errors.ErrCodeConstraintViolation {
				rc.RecordSkip(errors.DataQualityError(errors.ErrCodeConstraintViolation,
					"Constraint violation on fact insert", sourceID))
				continue
			}
			return err
		}

		loaded[sourceID] = struct{}{}
		rc.Counts.FactsLoaded++
	}

	return nil
}

func buildFactRow(txn source.SpendTransaction, vendor warehouse.VendorRef,
	commodityKey, timeKey int64, runDate time.Time) warehouse.FactRow {

	fact := warehouse.FactRow{
		VendorKey:                vendor.VendorKey,
		CommodityKey:             commodityKey,
		TimeKey:                  timeKey,
		SpendAmount:              txn.TotalAmount,
		TransactionCount:         1,
		Quantity:                 txn.Quantity,
		UnitPrice:                txn.UnitPrice,
		DeliveryPerformanceScore: txn.DeliveryPerformanceScore,
		QualityScore:             txn.QualityScore,
		ComplianceScore:          txn.ComplianceScore,
		SavingsAmount:            txn.SavingsAmount,
		DiscountAmount:           txn.DiscountAmount,
		ContractKey:              contractKeyFromID(txn.ContractID),
		LoadDate:                 warehouse.FactLoadDate(runDate),
	}

	multiplier, ok := riskMultipliers[normRisk(vendor.RiskRating)]
	if !ok {
		multiplier = riskMultipliers[DefaultRiskRating]
	}
	fact.RiskWeightedSpend = sql.NullFloat64{Float64: txn.TotalAmount * multiplier, Valid: true}

	if vendor.ESGScore.Valid {
		fact.ESGWeightedSpend = sql.NullFloat64{
			Float64: txn.TotalAmount * vendor.ESGScore.Float64 / 100,
			Valid:   true,
		}
	}

	return fact
}

// contractKeyFromID derives a numeric contract key from an operational
// contract id such as "CON-1042". A transaction with no contract stays NULL,
// which is how maverick spend is identified downstream.
func contractKeyFromID(contractID sql.NullString) sql.NullInt64 {
	if !contractID.Valid {
		return sql.NullInt64{}
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, contractID.String)
	if digits == "" {
		return sql.NullInt64{}
	}
	key, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: key, Valid: true}
}
