package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/bkoehler/brokerdocs/internal/repository/migrations"
)

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// Store is the SQL-backed record store. A postgres:// DSN selects the
// pgx pool, anything else is treated as a SQLite path (":memory:" works).
type Store struct {
	db      *sql.DB
	pool    *pgxpool.Pool // nil for sqlite
	dialect string
	logger  *slog.Logger
}

// Open connects, runs migrations, and returns the store.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var s *Store
	var err error
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		s, err = openPostgres(ctx, cfg, logger)
	} else {
		s, err = openSQLite(cfg.DSN, logger)
	}
	if err != nil {
		return nil, err
	}

	if err := s.migrate(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// applyPoolConfig copies non-zero pool settings onto the parsed config.
// Anything unset keeps pgxpool's defaults instead of being zeroed out.
func applyPoolConfig(cfg Config, pc *pgxpool.Config) {
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "brokerdocs"
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	logger.Info("connecting to database", "dialect", dialectPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database DSN", "error", err)
		return nil, err
	}

	applyPoolConfig(cfg, pc)

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB so both backends share one query surface.
	db := stdlib.OpenDBFromPool(pool)

	logger.Info("successfully connected to database")
	return &Store{db: db, pool: pool, dialect: dialectPostgres, logger: logger}, nil
}

func openSQLite(path string, logger *slog.Logger) (*Store, error) {
	logger.Info("opening sqlite database", "path", path)
	dsn := path
	if !strings.Contains(dsn, "?") {
		// WAL mode for concurrent ingesters sharing one local file
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open sqlite database", "error", err)
		return nil, err
	}
	if strings.Contains(path, ":memory:") {
		// every pooled connection would otherwise see its own empty DB
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db, dialect: dialectSQLite, logger: logger}, nil
}

func (s *Store) Close() error {
	err := s.db.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// HealthCheck pings the store with a bounded timeout.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Customers returns the customer repository backed by this store.
func (s *Store) Customers() CustomerRepository {
	return &customerStore{store: s}
}

// Documents returns the document repository backed by this store.
func (s *Store) Documents() DocumentRepository {
	return &documentStore{store: s}
}

// Brokers returns the broker repository backed by this store.
func (s *Store) Brokers() BrokerRepository {
	return &brokerStore{store: s}
}

// migrate applies the embedded schema files for the active dialect, in
// version order, tracked in schema_migrations.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	suffix := "." + s.dialect + ".up.sql"
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), suffix) {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := migrations.FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(s.rebind("INSERT INTO schema_migrations (version) VALUES (?)"), version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres. Queries in this
// package are written with ? so both backends share one text.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// mapUniqueViolation converts a driver-specific uniqueness violation
// into one of the store sentinels, based on which constraint fired.
// Any other error passes through unchanged.
func (s *Store) mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}

	var constraintHint string
	switch s.dialect {
	case dialectPostgres:
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
			return err
		}
		constraintHint = pgErr.ConstraintName
	case dialectSQLite:
		var sqErr *sqlite.Error
		if !errors.As(err, &sqErr) || sqErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return err
		}
		// modernc reports "UNIQUE constraint failed: customers.<col>, ..."
		constraintHint = sqErr.Error()
	default:
		return err
	}

	switch {
	case strings.Contains(constraintHint, "customer_number"):
		return ErrDuplicateNumber
	case strings.Contains(constraintHint, "slug"):
		return ErrDuplicateSlug
	default:
		return ErrDuplicateIdentity
	}
}
