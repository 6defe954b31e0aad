package etl

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode selects the scope of a run
type Mode string

const (
	// ModeDaily loads dimensions and a trailing window of transactions
	ModeDaily Mode = "daily"
	// ModeWeekly is a comprehensive run over the full transaction history
	ModeWeekly Mode = "weekly"
	// ModeMonthly is a comprehensive run plus maintenance (run history pruning)
	ModeMonthly Mode = "monthly"
)

// ParseMode validates a mode string
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDaily:
		return ModeDaily, nil
	case ModeWeekly:
		return ModeWeekly, nil
	case ModeMonthly:
		return ModeMonthly, nil
	}
	return "", fmt.Errorf("unknown mode %q (expected daily, weekly or monthly)", s)
}

// Comprehensive reports whether the mode processes the full transaction
// history instead of a trailing window.
func (m Mode) Comprehensive() bool {
	return m == ModeWeekly || m == ModeMonthly
}

// Maintenance reports whether the mode runs post-load maintenance
func (m Mode) Maintenance() bool {
	return m == ModeMonthly
}

// RunCounts accumulates per-table row counts for the run record
type RunCounts struct {
	VendorsInserted      int
	VendorsVersioned     int
	VendorsUnchanged     int
	CommoditiesInserted  int
	CommoditiesVersioned int
	CommoditiesUnchanged int
	FactsLoaded          int
	FactsAlreadyLoaded   int
	RowsSkipped          int
}

// VendorsProcessed is the total number of vendor writes this run
func (c RunCounts) VendorsProcessed() int {
	return c.VendorsInserted + c.VendorsVersioned
}

// CommoditiesProcessed is the total number of commodity writes this run
func (c RunCounts) CommoditiesProcessed() int {
	return c.CommoditiesInserted + c.CommoditiesVersioned
}

// RunContext carries the state of one ETL run through every phase. It
// replaces the ambient globals of the original system: run date, mode,
// accumulated counts and the data-quality error list all live here.
type RunContext struct {
	RunID     string
	Mode      Mode
	RunDate   time.Time
	StartTime time.Time
	Counts    RunCounts
	Skipped   []error
}

// NewRunContext creates a run context for the given mode, dated today
func NewRunContext(mode Mode) *RunContext {
	now := time.Now().UTC()
	return &RunContext{
		RunID:     uuid.NewString(),
		Mode:      mode,
		RunDate:   truncateToDay(now),
		StartTime: now,
	}
}

// RecordSkip logs a per-row data quality error without failing the run
func (rc *RunContext) RecordSkip(err error) {
	rc.Counts.RowsSkipped++
	rc.Skipped = append(rc.Skipped, err)
}

// SkipSummary condenses the data quality errors for the run record
func (rc *RunContext) SkipSummary(max int) string {
	if len(rc.Skipped) == 0 {
		return ""
	}
	var b strings.Builder
	for i, err := range rc.Skipped {
		if i >= max {
			fmt.Fprintf(&b, "... and %d more", len(rc.Skipped)-max)
			break
		}
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(firstLine(err.Error()))
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
