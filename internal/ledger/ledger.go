// Package ledger implements the balance-mutation arithmetic: additive and
// subtractive adjustments of a user's cash/checking fields with fixed-point
// rounding on every write.
//
// Functions here are pure; serialization of concurrent adjustments for one
// user is the caller's job (see services.Tracker).
package ledger

import (
	"wisepenny/internal/core"

	"github.com/shopspring/decimal"
)

// Ledger applies balance adjustments. Round controls whether every written
// value is quantized to 2 decimals half-up; disabling it reproduces the
// backend variant that skipped rounding.
type Ledger struct {
	Round bool
}

func New() Ledger {
	return Ledger{Round: true}
}

func (l Ledger) write(v decimal.Decimal) decimal.Decimal {
	if l.Round {
		return core.Round2(v)
	}
	return v
}

// Credit adds amount to the method's balance field. Amount must be positive.
func (l Ledger) Credit(b core.Balances, m core.Method, amount decimal.Decimal) (core.Balances, error) {
	if amount.Sign() <= 0 {
		return b, core.ErrInvalidAmount
	}
	return b.With(m, l.write(b.Get(m).Add(amount))), nil
}

// Debit subtracts amount from the method's balance field. Fails with
// ErrInsufficientFunds when the field holds less than amount, leaving the
// balances unchanged.
func (l Ledger) Debit(b core.Balances, m core.Method, amount decimal.Decimal) (core.Balances, error) {
	if amount.Sign() <= 0 {
		return b, core.ErrInvalidAmount
	}
	if amount.GreaterThan(b.Get(m)) {
		return b, core.ErrInsufficientFunds
	}
	return b.With(m, l.write(b.Get(m).Sub(amount))), nil
}

// Clear zeroes both fields unconditionally. Expense records are not
// reconciled; that matches the observed behavior and is documented as an
// accepted inconsistency.
func (l Ledger) Clear() core.Balances {
	return core.Balances{Cash: decimal.Zero, Checking: decimal.Zero}
}
