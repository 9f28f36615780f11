package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	apperrors "bankcli/internal/errors"
	"bankcli/internal/infrastructure"
	"bankcli/pkg/contracts/domain"
)

const schema = `
CREATE TABLE customers (
	customer_id INTEGER PRIMARY KEY,
	age         INTEGER NOT NULL,
	gender      TEXT    NOT NULL,
	city        TEXT    NOT NULL
);
CREATE TABLE transactions (
	transaction_id   INTEGER PRIMARY KEY,
	customer_id      INTEGER NOT NULL,
	transaction_date TEXT    NOT NULL,
	amount           REAL    NOT NULL,
	category         TEXT    NOT NULL
);
CREATE INDEX idx_transactions_customer ON transactions(customer_id);
`

// Store holds a dataset in an in-memory SQLite database for aggregate queries
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates an in-memory database and loads customers and transactions into it
func NewStore(ctx context.Context, customers []domain.Customer, transactions []domain.Transaction, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, infrastructure.ComponentAnalytics)

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open sqlite", err)
	}
	// every pooled connection to :memory: would be a separate empty database
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.load(ctx, customers, transactions); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context, customers []domain.Customer, transactions []domain.Transaction) error {
	start := time.Now()

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return apperrors.NewStorageError("failed to create schema", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin load", err)
	}
	defer tx.Rollback()

	custStmt, err := tx.PrepareContext(ctx, `INSERT INTO customers (customer_id, age, gender, city) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return apperrors.NewStorageError("failed to prepare customer insert", err)
	}
	defer custStmt.Close()

	for _, c := range customers {
		if _, err := custStmt.ExecContext(ctx, c.CustomerID, c.Age, string(c.Gender), c.City); err != nil {
			return apperrors.NewStorageError("failed to insert customer", err).WithContext("customer_id", c.CustomerID)
		}
	}

	txStmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions (transaction_id, customer_id, transaction_date, amount, category) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return apperrors.NewStorageError("failed to prepare transaction insert", err)
	}
	defer txStmt.Close()

	for _, t := range transactions {
		if _, err := txStmt.ExecContext(ctx, t.TransactionID, t.CustomerID, t.TransactionDate.Format(domain.DateLayout), t.Amount, string(t.Category)); err != nil {
			return apperrors.NewStorageError("failed to insert transaction", err).WithContext("transaction_id", t.TransactionID)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit load", err)
	}

	s.logger.InfoContext(ctx, "analytics store loaded",
		slog.Int("customers", len(customers)),
		slog.Int("transactions", len(transactions)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// query runs q and scans every row with scan
func (s *Store) query(ctx context.Context, name, q string, scan func(*sql.Rows) error, args ...any) error {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("query %s failed", name), err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("scan %s failed", name), err)
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("query %s failed", name), err)
	}
	return nil
}
