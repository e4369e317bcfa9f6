package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"casa/internal/core"

	_ "modernc.org/sqlite"
)

// NotepadKey is the key-value entry holding the notepad text.
const NotepadKey = "notepad"

// ErrAlreadyImported is returned by ImportRecords when the marker is set.
var ErrAlreadyImported = errors.New("records already imported")

// SQLiteRepository is the durable, append-only ledger store.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens or creates the database at dbPath and migrates
// it to the current schema. It is safe to call on every start.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Writers from other processes wait on the file lock instead of failing.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite ledger ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append validates and stores a record. The record is durable once Append
// returns without error.
func (r *SQLiteRepository) Append(ctx context.Context, rec core.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validate record: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (name, value, date, currency) VALUES (?, ?, ?, ?)`,
		rec.Name, rec.Amount.String(), rec.Date.String(), rec.Currency.String(),
	); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Record saved to SQLite",
		"name", rec.Name,
		"amount", rec.Amount.String(),
		"date", rec.Date.String(),
		"currency", rec.Currency)
	return nil
}

// List returns every record, newest date first. Records sharing a date are
// ordered by insertion, most recent first.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, value, date, currency FROM expenses ORDER BY date DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	records := make([]core.Record, 0)
	for rows.Next() {
		var name, value, date, currency string
		if err := rows.Scan(&name, &value, &date, &currency); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		rec, err := decodeRecord(name, value, date, currency)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return records, nil
}

// Balance returns the net total per currency. Sums are computed on exact
// decimals, never on SQLite's floating point SUM.
func (r *SQLiteRepository) Balance(ctx context.Context) (core.Balance, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT value, currency FROM expenses`)
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var value, currency string
		if err := rows.Scan(&value, &currency); err != nil {
			return nil, fmt.Errorf("scan balance row: %w", err)
		}
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("decode amount %q: %w", value, err)
		}
		records = append(records, core.Record{Amount: amount, Currency: core.Currency(currency)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}
	return core.BalanceOf(records), nil
}

// GetNotepad returns the notepad text, or "" when none was stored.
func (r *SQLiteRepository) GetNotepad(ctx context.Context) (string, error) {
	return r.GetValue(ctx, NotepadKey)
}

// GetValue returns the value stored under key, or "" when the key is absent.
func (r *SQLiteRepository) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM key_value_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get value %q: %w", key, err)
	}
	return value, nil
}

// SetValue stores value under key, replacing any previous value.
func (r *SQLiteRepository) SetValue(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO key_value_store (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	); err != nil {
		return fmt.Errorf("set value %q: %w", key, err)
	}
	return nil
}

// ImportRecords appends records in a single transaction and stores marker
// in the key-value table. A second call with the same marker returns
// ErrAlreadyImported and writes nothing.
func (r *SQLiteRepository) ImportRecords(ctx context.Context, marker string, records []core.Record) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT value FROM key_value_store WHERE key = ?`, marker).Scan(&existing)
	switch {
	case err == nil:
		return 0, fmt.Errorf("%w (marker %q set at %s)", ErrAlreadyImported, marker, existing)
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("check import marker: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO expenses (name, value, date, currency) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return 0, fmt.Errorf("validate record %d (%q): %w", i, rec.Name, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.Name, rec.Amount.String(), rec.Date.String(), rec.Currency.String()); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO key_value_store (key, value) VALUES (?, ?)`,
		marker, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return 0, fmt.Errorf("store import marker: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Records imported", "count", len(records), "marker", marker)
	return len(records), nil
}

func decodeRecord(name, value, date, currency string) (core.Record, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return core.Record{}, fmt.Errorf("decode amount %q of %q: %w", value, name, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Record{}, fmt.Errorf("decode date %q of %q: %w", date, name, err)
	}
	// Currency is passed through as stored; display formatting rejects
	// anything outside the supported set.
	return core.Record{
		Name:     name,
		Amount:   amount,
		Date:     d,
		Currency: core.Currency(currency),
	}, nil
}
