package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

const (
	defaultMergeWindow    = 30 * time.Second
	defaultCycleStartHour = 6
)

// Store is the ledger: an append/merge log of deltas plus cached running
// and daily totals. All mutations go through mu.
type Store struct {
	db *sql.DB

	mu             sync.Mutex
	now            func() time.Time
	loc            *time.Location
	mergeWindow    time.Duration
	cycleStartHour int
	log            *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the zone used for the cycle boundary and calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// WithMergeWindow sets how close two records must be to collapse into one entry.
func WithMergeWindow(d time.Duration) Option {
	return func(s *Store) { s.mergeWindow = d }
}

// WithCycleStartHour sets the hour of day at which "today" begins.
func WithCycleStartHour(h int) Option {
	return func(s *Store) { s.cycleStartHour = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{
		db:             db,
		now:            time.Now,
		loc:            time.Local,
		mergeWindow:    defaultMergeWindow,
		cycleStartHour: defaultCycleStartHour,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory(opts ...Option) (*Store, error) {
	return New(":memory:", opts...)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS transactions (
		_id            INTEGER PRIMARY KEY,
		timestamp      INTEGER NOT NULL,
		delta          INTEGER NOT NULL,
		total_snapshot INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_timestamp ON transactions(timestamp);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('total_amount',    '0'),
		('daily_amount',    '0'),
		('last_reset_time', '0'),
		('display_mode',    'total');
	`
	_, err := s.db.Exec(ddl)
	return err
}
