package etl

import (
	"context"
	"database/sql"
	"time"

	"procsync/internal/source"
	"procsync/internal/warehouse"
	"procsync/pkg/errors"
	"procsync/pkg/models"
)

// RunState is a stage of the orchestrator state machine
type RunState string

const (
	StateNotStarted              RunState = "NOT_STARTED"
	StateValidatingPrerequisites RunState = "VALIDATING_PREREQUISITES"
	StateLoadingDimensions       RunState = "LOADING_DIMENSIONS"
	StateLoadingFacts            RunState = "LOADING_FACTS"
	StateValidatingResults       RunState = "VALIDATING_RESULTS"
	StateCompleted               RunState = "COMPLETED"
	StateFailed                  RunState = "FAILED"
)

// RunResult is everything a caller needs after a run: the persisted record,
// the reconciliation report and the full run context.
type RunResult struct {
	Record  warehouse.RunRecord
	Report  *Report
	State   RunState
	Context *RunContext
}

// Runner sequences the ETL phases: prerequisites, dimension load, fact
// load, reconciliation. Transitions are strictly sequential; each load
// phase runs inside its own transaction so a failure rolls the phase back
// and leaves the store as the last committed phase left it.
type Runner struct {
	cfg   *models.Config
	src   *source.Reader
	wh    *warehouse.Service
	state RunState

	// Trace of state transitions, mainly for tests and verbose output
	Transitions []RunState
}

// NewRunner creates a run orchestrator over connected source and sink
func NewRunner(cfg *models.Config, src *source.Reader, wh *warehouse.Service) *Runner {
	return &Runner{cfg: cfg, src: src, wh: wh, state: StateNotStarted}
}

// State returns the current orchestrator state
func (r *Runner) State() RunState {
	return r.state
}

func (r *Runner) setState(s RunState) {
	r.state = s
	r.Transitions = append(r.Transitions, s)
}

// Execute performs one full ETL run in the given mode
func (r *Runner) Execute(ctx context.Context, mode Mode) (*RunResult, error) {
	if timeout := r.runTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rc := NewRunContext(mode)

	// Phase: VALIDATING_PREREQUISITES
	r.setState(StateValidatingPrerequisites)
	if err := r.validatePrerequisites(ctx); err != nil {
		return r.fail(rc, err)
	}

	// The advisory lock serializes writers across processes. Held from
	// before the dimension phase until the run reaches a terminal state.
	lock, err := AcquireRunLock(r.cfg.ETL.LockFile)
	if err != nil {
		return r.fail(rc, err)
	}
	defer lock.Release()

	// Phase: LOADING_DIMENSIONS
	r.setState(StateLoadingDimensions)
	if err := r.loadDimensions(ctx, rc); err != nil {
		return r.fail(rc, err)
	}

	// Phase: LOADING_FACTS
	r.setState(StateLoadingFacts)
	if err := r.loadFacts(ctx, rc); err != nil {
		return r.fail(rc, err)
	}

	// Phase: VALIDATING_RESULTS. A reconciliation failure flags the run
	// for alerting but the moved data stays committed.
	r.setState(StateValidatingResults)
	validator := NewValidator(r.src, r.wh, r.cfg.ETL.Tolerance)
	report, err := validator.Run(ctx)
	if err != nil {
		return r.fail(rc, err)
	}

	if rc.Mode.Maintenance() {
		cutoff := rc.RunDate.AddDate(0, 0, -runHistoryRetentionDays)
		if _, err := r.wh.PruneRunHistory(ctx, cutoff); err != nil {
			return r.fail(rc, err)
		}
	}

	r.setState(StateCompleted)
	record := r.buildRecord(rc, string(StateCompleted), string(report.Status), "")
	if err := r.wh.InsertRunRecord(ctx, record); err != nil {
		return nil, err
	}

	return &RunResult{Record: record, Report: report, State: r.state, Context: rc}, nil
}

const runHistoryRetentionDays = 90

func (r *Runner) validatePrerequisites(ctx context.Context) error {
	if err := r.src.Connect(ctx); err != nil {
		return err
	}
	if err := r.wh.Connect(ctx); err != nil {
		return err
	}

	// The time dimension must already cover the run date; generation is a
	// bootstrap concern, not a per-run one.
	min, max, ok, err := warehouse.TimeRange(ctx, r.wh.DB())
	if err != nil {
		return err
	}
	today := TimeKey(time.Now().UTC())
	if !ok || today < min || today > max {
		return errors.New(errors.ErrCodeTimeDimensionGap,
			"Time dimension does not cover the run date").
			WithContext("time_key", today).
			WithSuggestions("Run 'procsync bootstrap' to materialize the calendar range")
	}

	return nil
}

func (r *Runner) loadDimensions(ctx context.Context, rc *RunContext) error {
	vendors, err := r.src.ActiveVendors(ctx)
	if err != nil {
		return err
	}
	commodities, err := r.src.ActiveCommodities(ctx)
	if err != nil {
		return err
	}

	tx, err := r.wh.BeginTx(ctx)
	if err != nil {
		return err
	}

	// At most one versioning decision per natural key per run; when the
	// source yields duplicates the last record wins.
	for _, v := range dedupeVendors(vendors) {
		if _, err := ApplyVendor(ctx, tx, rc, v); err != nil {
			tx.Rollback()
			return err
		}
	}
	for _, c := range dedupeCommodities(commodities) {
		if _, err := ApplyCommodity(ctx, tx, rc, c); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := CheckDimensionIntegrity(ctx, tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction,
			"Failed to commit dimension phase")
	}
	return nil
}

func (r *Runner) loadFacts(ctx context.Context, rc *RunContext) error {
	var since time.Time
	if !rc.Mode.Comprehensive() {
		since = rc.RunDate.AddDate(0, 0, -r.incrementalWindowDays())
	}

	txns, err := r.src.Transactions(ctx, since)
	if err != nil {
		return err
	}

	tx, err := r.wh.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := LoadFacts(ctx, tx, rc, txns); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction,
			"Failed to commit fact phase")
	}
	return nil
}

// fail records the terminal FAILED state. Committed phases stay committed;
// the in-flight phase has already been rolled back by the time we get here.
// The run's own context may already be expired (deadline, cancellation), so
// the record is written on a fresh short-deadline context.
func (r *Runner) fail(rc *RunContext, cause error) (*RunResult, error) {
	r.setState(StateFailed)

	record := r.buildRecord(rc, string(StateFailed), "", firstLine(cause.Error()))
	if r.wh != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Best effort: the sink itself may be what failed
		_ = r.wh.InsertRunRecord(ctx, record)
	}

	return &RunResult{Record: record, State: r.state, Context: rc}, cause
}

func (r *Runner) buildRecord(rc *RunContext, status, reconciliation, errSummary string) warehouse.RunRecord {
	if errSummary == "" && len(rc.Skipped) > 0 {
		errSummary = rc.SkipSummary(5)
	}
	return warehouse.RunRecord{
		RunID:                rc.RunID,
		Mode:                 string(rc.Mode),
		Status:               status,
		StartTime:            rc.StartTime,
		EndTime:              sql.NullTime{Time: time.Now().UTC(), Valid: true},
		VendorsProcessed:     rc.Counts.VendorsProcessed(),
		CommoditiesProcessed: rc.Counts.CommoditiesProcessed(),
		FactsLoaded:          rc.Counts.FactsLoaded,
		RowsSkipped:          rc.Counts.RowsSkipped,
		ReconciliationStatus: reconciliation,
		ErrorSummary:         errSummary,
	}
}

func (r *Runner) runTimeout() time.Duration {
	d, err := time.ParseDuration(r.cfg.ETL.RunTimeout)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

func (r *Runner) incrementalWindowDays() int {
	if r.cfg.ETL.IncrementalWindowDays <= 0 {
		return 7
	}
	return r.cfg.ETL.IncrementalWindowDays
}

func dedupeVendors(vendors []source.Vendor) []source.Vendor {
	seen := make(map[string]int)
	var out []source.Vendor
	for _, v := range vendors {
		if i, ok := seen[v.VendorID]; ok {
			out[i] = v
			continue
		}
		seen[v.VendorID] = len(out)
		out = append(out, v)
	}
	return out
}

func dedupeCommodities(commodities []source.Commodity) []source.Commodity {
	seen := make(map[string]int)
	var out []source.Commodity
	for _, c := range commodities {
		if i, ok := seen[c.CommodityID]; ok {
			out[i] = c
			continue
		}
		seen[c.CommodityID] = len(out)
		out = append(out, c)
	}
	return out
}
