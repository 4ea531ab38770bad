// Package store defines the per-user document store behind the tracker:
// one balances record per user plus a child collection of expense records.
package store

import (
	"context"

	"wisepenny/internal/core"
)

// UserTx exposes the mutations available inside a single-user transaction.
// Everything done through one UserTx commits or rolls back as a unit, which
// closes the credit-then-delete crash window of a two-call design.
type UserTx interface {
	// Balances reads the user's balance record, zero-valued when absent.
	Balances() (core.Balances, error)

	// SetBalances persists the balance record.
	SetBalances(core.Balances) error

	// InsertExpense persists a new expense and returns its assigned id.
	InsertExpense(core.Expense) (string, error)

	// GetExpense returns core.ErrNotFound when the id does not exist for
	// this user.
	GetExpense(id string) (core.Expense, error)

	// UpdateExpense replaces the record identified by e.ID.
	UpdateExpense(e core.Expense) error

	// DeleteExpense removes the record. Missing ids are core.ErrNotFound.
	DeleteExpense(id string) error
}

// Store is the per-user document store. Implementations: memory, sqlite.
type Store interface {
	// Balances reads a user's balance record outside a transaction.
	Balances(ctx context.Context, userID string) (core.Balances, error)

	// Update runs fn inside a transaction scoped to one user. An error
	// from fn aborts the transaction and is returned unchanged.
	Update(ctx context.Context, userID string, fn func(UserTx) error) error

	// ListExpenses returns a fresh snapshot of the user's expenses ordered
	// by date descending, ties broken by insertion order.
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)

	Close() error
}
