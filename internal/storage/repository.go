package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"oba/internal/core"

	_ "modernc.org/sqlite"
)

// Store owns the connection pool and the four ledger tables.
type Store struct {
	db           *sql.DB
	path         string
	Accounts     *Table[core.Account, core.AccountForm]
	Buckets      *Table[core.Bucket, core.BucketForm]
	Transactions *Table[core.Transaction, core.TransactionForm]
	Fills        *Table[core.Fill, core.FillForm]
}

// dsn enables foreign keys and a busy timeout on every pooled connection.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewSQLiteStore opens the database at dbPath, applies pending migrations and
// returns a ready store. maxOpenConns below 1 means a single connection.
func NewSQLiteStore(dbPath string, maxOpenConns int) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if maxOpenConns < 1 {
		maxOpenConns = 1
	}
	db.SetMaxOpenConns(maxOpenConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("SQLite store ready", "path", dbPath, "max_open_conns", maxOpenConns)
	return newStore(db, dbPath), nil
}

func newStore(db *sql.DB, path string) *Store {
	return &Store{
		db:   db,
		path: path,
		Accounts: newTable(db, "accounts", []string{"name"},
			scanAccount, func(f core.AccountForm) []any { return []any{f.Name} }),
		Buckets: newTable(db, "buckets", []string{"name"},
			scanBucket, func(f core.BucketForm) []any { return []any{f.Name} }),
		Transactions: newTable(db, "transactions",
			[]string{"name", "amount", "date", "account_id", "bucket_id"},
			scanTransaction, bindTransaction),
		Fills: newTable(db, "fills", []string{"amount", "date", "bucket_id"},
			scanFill, func(f core.FillForm) []any { return []any{f.Amount, f.Date, f.BucketID} }),
	}
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	err := row.Scan(&a.ID, &a.Name)
	return a, err
}

func scanBucket(row rowScanner) (core.Bucket, error) {
	var b core.Bucket
	err := row.Scan(&b.ID, &b.Name)
	return b, err
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t        core.Transaction
		bucketID sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Amount, &t.Date, &t.AccountID, &bucketID); err != nil {
		return t, err
	}
	if bucketID.Valid {
		id := bucketID.Int64
		t.BucketID = &id
	}
	return t, nil
}

func bindTransaction(f core.TransactionForm) []any {
	var bucketID sql.NullInt64
	if f.BucketID != nil {
		bucketID = sql.NullInt64{Int64: *f.BucketID, Valid: true}
	}
	return []any{f.Name, f.Amount, f.Date, f.AccountID, bucketID}
}

func scanFill(row rowScanner) (core.Fill, error) {
	var f core.Fill
	err := row.Scan(&f.ID, &f.Amount, &f.Date, &f.BucketID)
	return f, err
}

// Path returns the database location the store was opened with.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Reset empties every table in dependency order: fills and transactions
// before the buckets and accounts they reference. It returns the number of
// rows removed.
func (s *Store) Reset(ctx context.Context) (int64, error) {
	steps := []interface {
		Count(context.Context) (int64, error)
		DeleteAll(context.Context) error
		Name() string
	}{s.Fills, s.Transactions, s.Buckets, s.Accounts}

	var removed int64
	for _, t := range steps {
		n, err := t.Count(ctx)
		if err != nil {
			return removed, fmt.Errorf("reset %s: %w", t.Name(), err)
		}
		if err := t.DeleteAll(ctx); err != nil {
			return removed, fmt.Errorf("reset %s: %w", t.Name(), err)
		}
		removed += n
	}
	slog.InfoContext(ctx, "Ledger reset", "path", s.path, "rows", removed)
	return removed, nil
}
