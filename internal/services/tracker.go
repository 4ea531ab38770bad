// Package services orchestrates the balance ledger and the expense record
// store, keeping the two consistent: every expense mutation carries its
// matching balance adjustment in one store transaction.
package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"wisepenny/internal/core"
	"wisepenny/internal/events"
	"wisepenny/internal/ledger"
	"wisepenny/internal/store"

	"github.com/shopspring/decimal"
)

// Options are the variant flags observed across the original backend copies.
type Options struct {
	// RoundWrites quantizes every persisted balance to 2 decimals half-up.
	RoundWrites bool
	// ValidateOnRemove makes removal of an unknown expense an error instead
	// of a silent no-op.
	ValidateOnRemove bool
}

// DefaultOptions enables rounding and remove validation.
func DefaultOptions() Options {
	return Options{RoundWrites: true, ValidateOnRemove: true}
}

// EventPublisher receives best-effort notifications after a mutation commits.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// BalanceView is the read model returned by GetBalances: each field rounded
// to 2 decimals, total being their sum.
type BalanceView struct {
	Cash     decimal.Decimal
	Checking decimal.Decimal
	Total    decimal.Decimal
}

// Tracker owns all financial operations for users. A per-user mutex
// serializes every read-modify-write sequence on one user's state, so two
// simultaneous expense submissions cannot both pass the insufficient-funds
// check.
type Tracker struct {
	store  store.Store
	ledger ledger.Ledger
	events EventPublisher
	opts   Options

	muMap map[string]*sync.Mutex
	mapMu sync.Mutex
}

func New(st store.Store, pub EventPublisher, opts Options) *Tracker {
	return &Tracker{
		store:  st,
		ledger: ledger.Ledger{Round: opts.RoundWrites},
		events: pub,
		opts:   opts,
		muMap:  make(map[string]*sync.Mutex),
	}
}

func (t *Tracker) userLock(userID string) *sync.Mutex {
	t.mapMu.Lock()
	defer t.mapMu.Unlock()

	if _, exists := t.muMap[userID]; !exists {
		t.muMap[userID] = &sync.Mutex{}
	}
	return t.muMap[userID]
}

// GetBalances returns the user's cash and checking balances (zero when
// absent) and their total, each rounded to 2 decimals.
func (t *Tracker) GetBalances(ctx context.Context, userID string) (BalanceView, error) {
	b, err := t.store.Balances(ctx, userID)
	if err != nil {
		return BalanceView{}, err
	}
	return BalanceView{
		Cash:     core.Round2(b.Cash),
		Checking: core.Round2(b.Checking),
		Total:    b.Total(),
	}, nil
}

// AddFunds credits amount to the method's balance field.
func (t *Tracker) AddFunds(ctx context.Context, userID string, method core.Method, amount decimal.Decimal) error {
	mu := t.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	err := t.store.Update(ctx, userID, func(tx store.UserTx) error {
		bal, err := tx.Balances()
		if err != nil {
			return err
		}
		bal, err = t.ledger.Credit(bal, method, amount)
		if err != nil {
			return err
		}
		return tx.SetBalances(bal)
	})
	if err != nil {
		return err
	}

	e := events.NewEvent(events.KindFundsAdded, userID)
	e.Amount = amount.String()
	e.Method = method.String()
	t.publish(ctx, e)
	return nil
}

// ClearBalances resets both balance fields to zero. Expense records are left
// untouched, as the original did.
func (t *Tracker) ClearBalances(ctx context.Context, userID string) error {
	mu := t.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	err := t.store.Update(ctx, userID, func(tx store.UserTx) error {
		return tx.SetBalances(t.ledger.Clear())
	})
	if err != nil {
		return err
	}

	t.publish(ctx, events.NewEvent(events.KindBalanceCleared, userID))
	return nil
}

// AddExpense validates the expense, debits its amount from the matching
// balance field and persists the record, all in one transaction. On
// ErrInsufficientFunds nothing is persisted.
func (t *Tracker) AddExpense(ctx context.Context, userID string, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	mu := t.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	var id string
	err := t.store.Update(ctx, userID, func(tx store.UserTx) error {
		bal, err := tx.Balances()
		if err != nil {
			return err
		}
		bal, err = t.ledger.Debit(bal, e.Method, e.Amount)
		if err != nil {
			return err
		}
		if err := tx.SetBalances(bal); err != nil {
			return err
		}
		id, err = tx.InsertExpense(e)
		return err
	})
	if err != nil {
		return "", err
	}

	ev := events.NewEvent(events.KindExpenseCreated, userID)
	ev.ExpenseID = id
	ev.Amount = e.Amount.String()
	ev.Method = e.Method.String()
	t.publish(ctx, ev)
	return id, nil
}

// ListExpenses returns a fresh snapshot of the user's expenses, date
// descending with ties in insertion order.
func (t *Tracker) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	return t.store.ListExpenses(ctx, userID)
}

// RemoveExpense credits the expense amount back to its method's balance and
// deletes the record in one transaction. Unknown ids are ErrNotFound, or a
// no-op success when the ValidateOnRemove variant flag is off.
func (t *Tracker) RemoveExpense(ctx context.Context, userID, expenseID string) error {
	mu := t.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	var removed core.Expense
	err := t.store.Update(ctx, userID, func(tx store.UserTx) error {
		e, err := tx.GetExpense(expenseID)
		if err != nil {
			return err
		}
		removed = e

		bal, err := tx.Balances()
		if err != nil {
			return err
		}
		bal, err = t.ledger.Credit(bal, e.Method, e.Amount)
		if err != nil {
			return err
		}
		if err := tx.SetBalances(bal); err != nil {
			return err
		}
		return tx.DeleteExpense(expenseID)
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) && !t.opts.ValidateOnRemove {
			slog.DebugContext(ctx, "Removing unknown expense ignored", "expense_id", expenseID)
			return nil
		}
		return err
	}

	ev := events.NewEvent(events.KindExpenseRemoved, userID)
	ev.ExpenseID = expenseID
	ev.Amount = removed.Amount.String()
	ev.Method = removed.Method.String()
	t.publish(ctx, ev)
	return nil
}

// EditExpense applies a partial update and reconciles the ledger:
//
//   - method unchanged: the balance field absorbs oldAmount - newAmount;
//     a net increase is a debit and can fail with ErrInsufficientFunds.
//   - method changed: the old method is credited with the old amount and the
//     new method debited with the new amount.
//
// Either way a failed debit aborts the transaction, so no field is mutated.
func (t *Tracker) EditExpense(ctx context.Context, userID, expenseID string, patch core.ExpensePatch) error {
	patch = patch.Normalize()
	if patch.IsEmpty() {
		return core.ErrNoFieldsProvided
	}
	if patch.Amount != nil && patch.Amount.Sign() <= 0 {
		return core.ErrInvalidAmount
	}
	if patch.Method != nil {
		m, err := core.ParseMethod(string(*patch.Method))
		if err != nil {
			return err
		}
		patch.Method = &m
	}
	if patch.Date != nil {
		if err := core.ValidateDate(*patch.Date); err != nil {
			return err
		}
	}

	mu := t.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	var updated core.Expense
	err := t.store.Update(ctx, userID, func(tx store.UserTx) error {
		old, err := tx.GetExpense(expenseID)
		if err != nil {
			return err
		}
		updated = patch.Apply(old)
		updated.ID = old.ID

		bal, err := tx.Balances()
		if err != nil {
			return err
		}
		bal, err = t.reconcile(bal, old, updated)
		if err != nil {
			return err
		}
		if err := tx.SetBalances(bal); err != nil {
			return err
		}
		return tx.UpdateExpense(updated)
	})
	if err != nil {
		return err
	}

	ev := events.NewEvent(events.KindExpenseEdited, userID)
	ev.ExpenseID = expenseID
	ev.Amount = updated.Amount.String()
	ev.Method = updated.Method.String()
	t.publish(ctx, ev)
	return nil
}

// reconcile moves balances from the old expense's state to the updated one.
func (t *Tracker) reconcile(bal core.Balances, old, upd core.Expense) (core.Balances, error) {
	if old.Method == upd.Method {
		delta := old.Amount.Sub(upd.Amount)
		switch delta.Sign() {
		case 0:
			return bal, nil
		case 1:
			return t.ledger.Credit(bal, old.Method, delta)
		default:
			return t.ledger.Debit(bal, old.Method, delta.Neg())
		}
	}

	bal, err := t.ledger.Credit(bal, old.Method, old.Amount)
	if err != nil {
		return bal, err
	}
	return t.ledger.Debit(bal, upd.Method, upd.Amount)
}

func (t *Tracker) publish(ctx context.Context, e events.Event) {
	if t.events == nil {
		return
	}
	if err := t.events.Publish(ctx, e); err != nil {
		// The mutation committed; a broker hiccup must not fail the request.
		slog.ErrorContext(ctx, "Failed to publish event", "kind", e.Kind, "error", err)
	}
}
