// Package storage serves the initial ledger from a SQLite database whose
// schema and default rows are created by embedded migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"financas/internal/core"
	"financas/internal/seed"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	schema  uint
}

var _ seed.Source = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the database at dbPath and migrates it.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	version, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db), schema: version}, nil
}

// SchemaVersion is the migration version the database was brought to.
func (r *SQLiteRepository) SchemaVersion() uint { return r.schema }

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CountTransactions reports how many transaction rows the database holds.
func (r *SQLiteRepository) CountTransactions(ctx context.Context) (int64, error) {
	return r.queries.CountTransactions(ctx)
}

// Load reads every transaction and the ordered category list. Amounts are
// rounded to cents like those typed into the form.
func (r *SQLiteRepository) Load(ctx context.Context) (seed.Data, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return seed.Data{}, fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toCore()
		if err != nil {
			return seed.Data{}, fmt.Errorf("transaction %d: %w", row.ID, err)
		}
		txs = append(txs, t)
	}

	names, err := r.queries.ListCategories(ctx)
	if err != nil {
		return seed.Data{}, fmt.Errorf("list categories: %w", err)
	}

	d := seed.Data{Transactions: txs, Categories: core.NewCategorySet(names)}
	return d, d.Validate()
}

func (row TransactionRow) toCore() (core.Transaction, error) {
	due, err := core.ParseDate(row.DueDate)
	if err != nil {
		return core.Transaction{}, err
	}
	value, err := decimal.NewFromString(row.Value)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, row.Value)
	}
	return core.Transaction{
		ID:          row.ID,
		DueDate:     due,
		Value:       value.Round(2),
		Description: row.Description,
		Responsible: row.Responsible,
		Category:    row.Category,
		Type:        core.TransactionType(row.Type),
	}, nil
}
