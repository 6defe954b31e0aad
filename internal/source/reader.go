package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"procsync/pkg/errors"
)

// Reader provides read-only access to the operational procurement database
type Reader struct {
	db        *sqlx.DB
	config    Config
	connected bool
}

// Config holds operational database connection configuration
type Config struct {
	Path       string
	Timeout    time.Duration
	MaxRetries int
	BatchSize  int
}

// NewReader creates a new operational database reader
func NewReader(config Config) *Reader {
	return &Reader{config: config}
}

// NewReaderWithDB wraps an already-open connection, used by tests
func NewReaderWithDB(db *sqlx.DB) *Reader {
	return &Reader{db: db, connected: true}
}

// Connect opens the operational database read-only
func (r *Reader) Connect(ctx context.Context) error {
	if r.connected {
		return nil
	}

	retry := errors.DefaultRetryConfig()
	if r.config.MaxRetries > 0 {
		retry.MaxRetries = r.config.MaxRetries
	}

	return errors.Retry(ctx, retry, func(ctx context.Context) error {
		dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=%d",
			r.config.Path, r.timeout().Milliseconds())

		db, err := sqlx.Open("sqlite3", dsn)
		if err != nil {
			return errors.ConnectionError("Failed to open operational database", err).
				WithContext("path", r.config.Path)
		}

		connCtx, cancel := context.WithTimeout(ctx, r.timeout())
		defer cancel()

		if err := db.PingContext(connCtx); err != nil {
			db.Close()
			return errors.Wrap(err, errors.ErrCodeSourceUnreachable,
				"Operational database unreachable").
				WithContext("path", r.config.Path).
				AsRecoverable()
		}

		r.db = db
		r.connected = true
		return nil
	})
}

// Close closes the reader
func (r *Reader) Close() error {
	if !r.connected {
		return nil
	}
	r.connected = false
	return r.db.Close()
}

// ActiveVendors returns all active vendor master rows
func (r *Reader) ActiveVendors(ctx context.Context) ([]Vendor, error) {
	var vendors []Vendor
	err := r.db.SelectContext(ctx, &vendors, `
		SELECT vendor_id, vendor_name, vendor_tier, diversity_classification,
		       risk_rating, esg_score, country, region, is_active
		FROM vendors
		WHERE is_active = 1
		ORDER BY vendor_id`)
	if err != nil {
		return nil, errors.SQLError("Failed to read vendors", "SELECT ... FROM vendors", err)
	}
	return vendors, nil
}

// ActiveCommodities returns all active commodity master rows
func (r *Reader) ActiveCommodities(ctx context.Context) ([]Commodity, error) {
	var commodities []Commodity
	err := r.db.SelectContext(ctx, &commodities, `
		SELECT commodity_id, commodity_description, parent_category, sub_category,
		       business_criticality, sourcing_complexity, category_manager, is_active
		FROM commodities
		WHERE is_active = 1
		ORDER BY commodity_id`)
	if err != nil {
		return nil, errors.SQLError("Failed to read commodities", "SELECT ... FROM commodities", err)
	}
	return commodities, nil
}

const transactionColumns = `
	transaction_id, vendor_id, commodity_id, contract_id, total_amount,
	quantity, unit_price, delivery_performance_score, quality_score,
	compliance_score, savings_amount, discount_amount, transaction_type,
	award_date`

// Transactions returns spend transactions, fetched in configured batches. A
// zero `since` returns the full history (comprehensive mode); otherwise only
// transactions awarded on or after the date are returned (incremental mode).
func (r *Reader) Transactions(ctx context.Context, since time.Time) ([]SpendTransaction, error) {
	batch := r.batchSize()
	var txns []SpendTransaction

	for offset := 0; ; offset += batch {
		var page []SpendTransaction
		var err error

		if since.IsZero() {
			err = r.db.SelectContext(ctx, &page,
				`SELECT `+transactionColumns+` FROM spend_transactions
				 ORDER BY transaction_id LIMIT ? OFFSET ?`,
				batch, offset)
		} else {
			err = r.db.SelectContext(ctx, &page,
				`SELECT `+transactionColumns+` FROM spend_transactions
				 WHERE award_date >= ? ORDER BY transaction_id LIMIT ? OFFSET ?`,
				since.Format("2006-01-02"), batch, offset)
		}
		if err != nil {
			return nil, errors.SQLError("Failed to read spend transactions",
				"SELECT ... FROM spend_transactions", err)
		}

		txns = append(txns, page...)
		if len(page) < batch {
			return txns, nil
		}
	}
}

// ActiveVendorCount returns the number of active vendors, used by reconciliation
func (r *Reader) ActiveVendorCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM vendors WHERE is_active = 1`)
	if err != nil {
		return 0, errors.SQLError("Failed to count vendors", "SELECT COUNT(*) FROM vendors", err)
	}
	return count, nil
}

// TotalSpend returns the aggregate transaction amount, used by reconciliation
func (r *Reader) TotalSpend(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(total_amount), 0) FROM spend_transactions`)
	if err != nil {
		return 0, errors.SQLError("Failed to sum spend",
			"SELECT SUM(total_amount) FROM spend_transactions", err)
	}
	return total, nil
}

// TransactionCountsByMonth returns per-calendar-month transaction counts.
// The reconciliation validator folds these into fiscal years. Rows whose
// award_date STRFTIME cannot parse are excluded; the fact loader skips the
// same rows, so both sides of the count stay comparable.
func (r *Reader) TransactionCountsByMonth(ctx context.Context) ([]MonthCount, error) {
	var counts []MonthCount
	err := r.db.SelectContext(ctx, &counts, `
		SELECT CAST(STRFTIME('%Y', award_date) AS INTEGER) AS year,
		       CAST(STRFTIME('%m', award_date) AS INTEGER) AS month,
		       COUNT(*) AS count
		FROM spend_transactions
		WHERE STRFTIME('%Y', award_date) IS NOT NULL
		GROUP BY 1, 2
		ORDER BY 1, 2`)
	if err != nil {
		return nil, errors.SQLError("Failed to group transactions by month",
			"SELECT STRFTIME ... GROUP BY", err)
	}
	return counts, nil
}

func (r *Reader) timeout() time.Duration {
	if r.config.Timeout == 0 {
		return 30 * time.Second
	}
	return r.config.Timeout
}

func (r *Reader) batchSize() int {
	if r.config.BatchSize <= 0 {
		return 1000
	}
	return r.config.BatchSize
}

// DB exposes the underlying handle for tests
func (r *Reader) DB() *sqlx.DB {
	return r.db
}
