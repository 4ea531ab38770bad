// Package sqlite is the durable store implementation, backed by a local
// SQLite database through the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wisepenny/internal/core"
	"wisepenny/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Balances(ctx context.Context, userID string) (core.Balances, error) {
	var cash, checking string
	err := s.db.QueryRowContext(ctx,
		`SELECT cash_balance, checking_balance FROM balances WHERE user_id = ?`, userID).
		Scan(&cash, &checking)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Balances{}, nil
	}
	if err != nil {
		return core.Balances{}, mapErr(fmt.Errorf("get balances: %w", err))
	}
	return parseBalances(cash, checking)
}

// Update wraps fn in a database transaction. The callback's error aborts the
// transaction and is returned unchanged so sentinel errors survive.
func (s *Store) Update(ctx context.Context, userID string, fn func(store.UserTx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(fmt.Errorf("begin tx: %w", err))
	}

	t := &tx{ctx: ctx, tx: dbTx, userID: userID}
	if err := fn(t); err != nil {
		_ = dbTx.Rollback()
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return mapErr(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, descr, amount, method, category, type
		 FROM expenses WHERE user_id = ?
		 ORDER BY date DESC, rowid ASC`, userID)
	if err != nil {
		return nil, mapErr(fmt.Errorf("list expenses: %w", err))
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(fmt.Errorf("list expenses: %w", err))
	}
	return out, nil
}

type tx struct {
	ctx    context.Context
	tx     *sql.Tx
	userID string
}

func (t *tx) Balances() (core.Balances, error) {
	var cash, checking string
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT cash_balance, checking_balance FROM balances WHERE user_id = ?`, t.userID).
		Scan(&cash, &checking)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Balances{}, nil
	}
	if err != nil {
		return core.Balances{}, mapErr(fmt.Errorf("get balances: %w", err))
	}
	return parseBalances(cash, checking)
}

func (t *tx) SetBalances(b core.Balances) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO balances (user_id, cash_balance, checking_balance)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   cash_balance = excluded.cash_balance,
		   checking_balance = excluded.checking_balance,
		   updated_at = CURRENT_TIMESTAMP`,
		t.userID, b.Cash.String(), b.Checking.String())
	if err != nil {
		return mapErr(fmt.Errorf("set balances: %w", err))
	}
	return nil
}

func (t *tx) InsertExpense(e core.Expense) (string, error) {
	id := uuid.NewString()
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO expenses (id, user_id, date, descr, amount, method, category, type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.userID, e.Date, e.Descr, e.Amount.String(), e.Method.String(), e.Category, e.Type)
	if err != nil {
		return "", mapErr(fmt.Errorf("insert expense: %w", err))
	}
	return id, nil
}

func (t *tx) GetExpense(id string) (core.Expense, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT id, date, descr, amount, method, category, type
		 FROM expenses WHERE user_id = ? AND id = ?`, t.userID, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	return e, err
}

func (t *tx) UpdateExpense(e core.Expense) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE expenses SET date = ?, descr = ?, amount = ?, method = ?, category = ?, type = ?
		 WHERE user_id = ? AND id = ?`,
		e.Date, e.Descr, e.Amount.String(), e.Method.String(), e.Category, e.Type, t.userID, e.ID)
	if err != nil {
		return mapErr(fmt.Errorf("update expense: %w", err))
	}
	return affectedOrNotFound(res)
}

func (t *tx) DeleteExpense(id string) error {
	res, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM expenses WHERE user_id = ? AND id = ?`, t.userID, id)
	if err != nil {
		return mapErr(fmt.Errorf("delete expense: %w", err))
	}
	return affectedOrNotFound(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (core.Expense, error) {
	var e core.Expense
	var amount, method string
	if err := row.Scan(&e.ID, &e.Date, &e.Descr, &amount, &method, &e.Category, &e.Type); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, err
		}
		return core.Expense{}, mapErr(fmt.Errorf("scan expense: %w", err))
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored amount %q: %w", amount, err)
	}
	e.Amount = d
	e.Method = core.Method(method)
	return e, nil
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(fmt.Errorf("rows affected: %w", err))
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func parseBalances(cash, checking string) (core.Balances, error) {
	c, err := decimal.NewFromString(cash)
	if err != nil {
		return core.Balances{}, fmt.Errorf("stored cash balance %q: %w", cash, err)
	}
	ch, err := decimal.NewFromString(checking)
	if err != nil {
		return core.Balances{}, fmt.Errorf("stored checking balance %q: %w", checking, err)
	}
	return core.Balances{Cash: c, Checking: ch}, nil
}

// mapErr recognizes store-level contention so callers can distinguish a
// retryable conflict from an I/O failure.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") {
		return fmt.Errorf("%s: %w", msg, core.ErrConflict)
	}
	return err
}

var _ store.Store = (*Store)(nil)
