package models

type Config struct {
    Databases Databases     `yaml:"databases"`
    ETL       ETL           `yaml:"etl"`
    TimeDim   TimeDimension `yaml:"time_dimension"`
    Schedule  Schedule      `yaml:"schedule"`
}

// Databases holds the paths to the two SQLite stores. The operational
// database is never written by this tool.
type Databases struct {
    OperationalPath string `yaml:"operational_path"`
    AnalyticsPath   string `yaml:"analytics_path"`
    Timeout         string `yaml:"timeout"`           // Connection timeout, e.g. "30s"
    WALMode         bool   `yaml:"wal_mode"`          // Enable WAL journal mode
    ForeignKeys     bool   `yaml:"foreign_keys"`      // Enforce foreign keys on the sink
}

// ETL contains tuning knobs for the sync engine
type ETL struct {
    IncrementalWindowDays int       `yaml:"incremental_window_days"` // Trailing window for daily runs
    BatchSize             int       `yaml:"batch_size"`              // Transactions fetched per batch
    MaxRetries            int       `yaml:"max_retries"`             // Connection retry attempts
    RunTimeout            string    `yaml:"run_timeout"`             // Ceiling for a whole run, e.g. "30m"
    LockFile              string    `yaml:"lock_file"`               // Advisory run-lock path
    Tolerance             Tolerance `yaml:"tolerance"`               // Reconciliation thresholds
}

// Tolerance bounds the variance allowed by reconciliation checks.
// A check passes when either bound is satisfied.
type Tolerance struct {
    Absolute float64 `yaml:"absolute"` // e.g. 0.01 for currency sums
    Percent  float64 `yaml:"percent"`  // e.g. 0.5 for 0.5%
}

// TimeDimension controls the pre-materialized calendar range
type TimeDimension struct {
    StartDate string `yaml:"start_date"` // "2015-01-01"
    EndDate   string `yaml:"end_date"`   // "2030-12-31"
}

// Schedule holds cron expressions for the three run cadences
type Schedule struct {
    Daily   string `yaml:"daily"`   // e.g. "0 2 * * *"
    Weekly  string `yaml:"weekly"`  // e.g. "0 3 * * 0"
    Monthly string `yaml:"monthly"` // e.g. "0 4 1 * *"
}

// Defaults returns a configuration with the values the original system ran with
func Defaults() *Config {
    return &Config{
        Databases: Databases{
            OperationalPath: "procurement_operational.db",
            AnalyticsPath:   "procurement_analytics.db",
            Timeout:         "30s",
            WALMode:         true,
            ForeignKeys:     true,
        },
        ETL: ETL{
            IncrementalWindowDays: 7,
            BatchSize:             1000,
            MaxRetries:            3,
            RunTimeout:            "30m",
            LockFile:              "procsync.lock",
            Tolerance: Tolerance{
                Absolute: 0.01,
                Percent:  0.5,
            },
        },
        TimeDim: TimeDimension{
            StartDate: "2015-01-01",
            EndDate:   "2030-12-31",
        },
        Schedule: Schedule{
            Daily:   "0 2 * * *",
            Weekly:  "0 3 * * 0",
            Monthly: "0 4 1 * *",
        },
    }
}
