package etl

import (
	"context"
	"fmt"
	"math"
	"sort"

	"procsync/internal/source"
	"procsync/internal/warehouse"
	"procsync/pkg/models"
)

// CheckResult is the outcome of one reconciliation comparison
type CheckResult struct {
	Name     string
	Expected float64
	Actual   float64
	Variance float64
	Passed   bool
}

// ReconciliationStatus classifies a whole reconciliation pass
type ReconciliationStatus string

const (
	ReconciliationPass ReconciliationStatus = "PASS"
	ReconciliationFail ReconciliationStatus = "FAIL"
)

// Report aggregates all reconciliation checks for a run
type Report struct {
	Checks []CheckResult
	Status ReconciliationStatus
}

// Failed returns the checks whose variance exceeded tolerance
func (r *Report) Failed() []CheckResult {
	var failed []CheckResult
	for _, c := range r.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

// Validator runs post-load comparisons between the two stores. It never
// mutates either one.
type Validator struct {
	src *source.Reader
	wh  *warehouse.Service
	tol models.Tolerance
}

// NewValidator creates a reconciliation validator
func NewValidator(src *source.Reader, wh *warehouse.Service, tol models.Tolerance) *Validator {
	return &Validator{src: src, wh: wh, tol: tol}
}

// Run executes every reconciliation check and classifies the result
func (v *Validator) Run(ctx context.Context) (*Report, error) {
	report := &Report{Status: ReconciliationPass}

	// Active operational vendors vs current dimension rows
	opVendors, err := v.src.ActiveVendorCount(ctx)
	if err != nil {
		return nil, err
	}
	anVendors, err := warehouse.CurrentVendorCount(ctx, v.wh.DB())
	if err != nil {
		return nil, err
	}
	report.add(v.check("vendor count", float64(opVendors), float64(anVendors)))

	// Aggregate spend
	opSpend, err := v.src.TotalSpend(ctx)
	if err != nil {
		return nil, err
	}
	anSpend, err := warehouse.TotalFactSpend(ctx, v.wh.DB())
	if err != nil {
		return nil, err
	}
	report.add(v.check("total spend amount", opSpend, anSpend))

	// Per-fiscal-year transaction counts
	monthCounts, err := v.src.TransactionCountsByMonth(ctx)
	if err != nil {
		return nil, err
	}
	opByFY := make(map[int]int)
	for _, mc := range monthCounts {
		opByFY[FiscalYearOf(mc.Year, mc.Month)] += mc.Count
	}
	anByFY, err := warehouse.FactCountsByFiscalYear(ctx, v.wh.DB())
	if err != nil {
		return nil, err
	}
	for _, fy := range fiscalYears(opByFY, anByFY) {
		report.add(v.check(fmt.Sprintf("transaction count FY%d", fy),
			float64(opByFY[fy]), float64(anByFY[fy])))
	}

	// Orphaned facts must never exist
	orphans, err := warehouse.OrphanedFactCount(ctx, v.wh.DB())
	if err != nil {
		return nil, err
	}
	report.add(v.check("orphaned fact rows", 0, float64(orphans)))

	return report, nil
}

func (v *Validator) check(name string, expected, actual float64) CheckResult {
	variance := actual - expected
	return CheckResult{
		Name:     name,
		Expected: expected,
		Actual:   actual,
		Variance: variance,
		Passed:   v.withinTolerance(expected, variance),
	}
}

// A check passes when the variance is within the absolute threshold or,
// for non-zero expectations, within the percentage threshold.
func (v *Validator) withinTolerance(expected, variance float64) bool {
	if math.Abs(variance) <= v.tol.Absolute {
		return true
	}
	if expected != 0 {
		return math.Abs(variance)/math.Abs(expected)*100 <= v.tol.Percent
	}
	return false
}

func (r *Report) add(c CheckResult) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Status = ReconciliationFail
	}
}

func fiscalYears(a, b map[int]int) []int {
	seen := make(map[int]struct{})
	for fy := range a {
		seen[fy] = struct{}{}
	}
	for fy := range b {
		seen[fy] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for fy := range seen {
		years = append(years, fy)
	}
	sort.Ints(years)
	return years
}
