package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"procsync/pkg/errors"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, letting row-level
// operations run either standalone or inside a phase transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Service provides read-write access to the analytics star schema
type Service struct {
	db        *sql.DB
	config    Config
	connected bool
}

// Config holds analytics database connection configuration
type Config struct {
	Path        string
	Timeout     time.Duration
	MaxRetries  int
	WALMode     bool
	ForeignKeys bool
}

// NewService creates a new analytics warehouse service
func NewService(config Config) *Service {
	return &Service{config: config}
}

// NewServiceWithDB wraps an already-open connection, used by tests
func NewServiceWithDB(db *sql.DB) *Service {
	return &Service{db: db, connected: true}
}

// Connect opens the analytics database with the configured pragmas
func (s *Service) Connect(ctx context.Context) error {
	if s.connected {
		return nil
	}

	retry := errors.DefaultRetryConfig()
	if s.config.MaxRetries > 0 {
		retry.MaxRetries = s.config.MaxRetries
	}

	return errors.Retry(ctx, retry, func(ctx context.Context) error {
		dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", s.config.Path, s.timeout().Milliseconds())
		if s.config.WALMode {
			dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
		}
		if s.config.ForeignKeys {
			dsn += "&_foreign_keys=on"
		}

		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return errors.ConnectionError("Failed to open analytics database", err).
				WithContext("path", s.config.Path)
		}

		// Single writer: the SCD2 protocol is only correct when all
		// writes go through one connection at a time.
		db.SetMaxOpenConns(1)

		connCtx, cancel := context.WithTimeout(ctx, s.timeout())
		defer cancel()

		if err := db.PingContext(connCtx); err != nil {
			db.Close()
			return errors.Wrap(err, errors.ErrCodeSinkUnreachable,
				"Analytics database unreachable").
				WithContext("path", s.config.Path).
				AsRecoverable()
		}

		s.db = db
		s.connected = true
		return nil
	})
}

// Close closes the database connection
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	s.connected = false
	return s.db.Close()
}

// BeginTx starts a phase transaction
func (s *Service) BeginTx(ctx context.Context) (*sql.Tx, error) {
	if !s.connected {
		return nil, errors.New(errors.ErrCodeConnectionFailed, "Not connected to analytics database")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin transaction")
	}
	return tx, nil
}

// Ping verifies the connection is alive
func (s *Service) Ping(ctx context.Context) error {
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to analytics database")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	return s.db.PingContext(ctx)
}

// DB returns the underlying database handle
func (s *Service) DB() *sql.DB {
	return s.db
}

func (s *Service) timeout() time.Duration {
	if s.config.Timeout == 0 {
		return 30 * time.Second
	}
	return s.config.Timeout
}
