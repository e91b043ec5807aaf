package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/joelkehle/intelbrief/internal/research"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	pgUniqueViolation = "23505"
)

const briefsSchema = `
CREATE TABLE IF NOT EXISTS briefs (
	slug       TEXT PRIMARY KEY,
	company    TEXT NOT NULL,
	website    TEXT NOT NULL DEFAULT '',
	document   TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

type briefRow struct {
	Slug      string `db:"slug"`
	Company   string `db:"company"`
	Website   string `db:"website"`
	Document  string `db:"document"`
	CreatedAt string `db:"created_at"`
}

// SQLStore keeps briefs in a single table on sqlite or postgres.
type SQLStore struct {
	db      *sqlx.DB
	log     *zap.Logger
	now     func() time.Time
	newSlug func(company string) string
}

// OpenSQL opens the database and creates the schema. For sqlite the DSN is a
// file path.
func OpenSQL(driver, dsn string, log *zap.Logger) (*SQLStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var (
		db  *sqlx.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = sqlx.Open(DriverSQLite, dsn+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
		if err == nil {
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		db, err = sqlx.Open(DriverPostgres, dsn)
		if err == nil {
			db.SetMaxOpenConns(10)
			db.SetConnMaxIdleTime(5 * time.Minute)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if _, err := db.Exec(briefsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLStore{db: db, log: log, now: time.Now, newSlug: NewSlug}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save inserts the brief under a new slug, drawing a fresh one if the first
// collides.
func (s *SQLStore) Save(ctx context.Context, brief research.Brief) (string, error) {
	doc, err := json.Marshal(brief)
	if err != nil {
		return "", fmt.Errorf("marshal brief: %w", err)
	}
	query := s.db.Rebind(`INSERT INTO briefs (slug, company, website, document, created_at) VALUES (?, ?, ?, ?, ?)`)
	createdAt := s.now().UTC().Format(time.RFC3339Nano)

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		slug := s.newSlug(brief.Company.Name)
		_, err := s.db.ExecContext(ctx, query, slug, brief.Company.Name, brief.Company.Website, string(doc), createdAt)
		if err == nil {
			return slug, nil
		}
		if !isUniqueViolation(err) {
			return "", fmt.Errorf("insert brief: %w", err)
		}
		s.log.Warn("slug collision", zap.String("slug", slug), zap.Int("attempt", attempt))
	}
	return "", fmt.Errorf("save brief for %q: %w", brief.Company.Name, ErrSlugExists)
}

// GetBySlug reads straight from the database; bypassCache has no effect here.
func (s *SQLStore) GetBySlug(ctx context.Context, slug string, _ bool) (research.Brief, error) {
	var row briefRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT slug, company, website, document, created_at FROM briefs WHERE slug = ?`), slug)
	if errors.Is(err, sql.ErrNoRows) {
		return research.Brief{}, ErrNotFound
	}
	if err != nil {
		return research.Brief{}, fmt.Errorf("load brief %s: %w", slug, err)
	}
	var brief research.Brief
	if err := json.Unmarshal([]byte(row.Document), &brief); err != nil {
		return research.Brief{}, fmt.Errorf("decode brief %s: %w", slug, err)
	}
	return brief, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
