package ledger

import (
	"errors"
	"testing"

	"wisepenny/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCredit(t *testing.T) {
	l := New()
	b, err := l.Credit(core.Balances{}, core.MethodCash, dec("10.005"))
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if b.Cash.String() != "10.01" {
		t.Fatalf("expected 10.01 after half-up rounding, got %s", b.Cash)
	}
	if b.Checking.Sign() != 0 {
		t.Fatalf("checking should be untouched, got %s", b.Checking)
	}

	if _, err := l.Credit(b, core.MethodCash, decimal.Zero); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("zero credit should fail, got %v", err)
	}
	if _, err := l.Credit(b, core.MethodCash, dec("-5")); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("negative credit should fail, got %v", err)
	}
}

func TestDebitInsufficientFunds(t *testing.T) {
	l := New()
	b := core.Balances{Cash: dec("100.00"), Checking: dec("10.00")}

	got, err := l.Debit(b, core.MethodChecking, dec("10.01"))
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !got.Cash.Equal(b.Cash) || !got.Checking.Equal(b.Checking) {
		t.Fatalf("failed debit must leave balances unchanged: %+v", got)
	}

	// Exact drain is allowed.
	got, err = l.Debit(b, core.MethodChecking, dec("10.00"))
	if err != nil {
		t.Fatalf("exact debit: %v", err)
	}
	if got.Checking.Sign() != 0 {
		t.Fatalf("expected zero checking, got %s", got.Checking)
	}
}

func TestDebitRoundsEveryWrite(t *testing.T) {
	l := New()
	b := core.Balances{Cash: dec("100")}
	b, err := l.Debit(b, core.MethodCash, dec("0.005"))
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	// 100 - 0.005 = 99.995 -> 100.00 under half-up
	if b.Cash.String() != "100" && b.Cash.String() != "100.00" {
		t.Fatalf("expected 100.00, got %s", b.Cash)
	}
}

func TestNoRoundVariant(t *testing.T) {
	l := Ledger{Round: false}
	b, err := l.Credit(core.Balances{}, core.MethodCash, dec("10.005"))
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if b.Cash.String() != "10.005" {
		t.Fatalf("variant without rounding should keep 10.005, got %s", b.Cash)
	}
}

func TestClear(t *testing.T) {
	l := New()
	b := l.Clear()
	if b.Cash.Sign() != 0 || b.Checking.Sign() != 0 {
		t.Fatalf("clear should zero both fields: %+v", b)
	}
}

// Sum of credits minus successful debits always equals cash+checking.
func TestTotalInvariant(t *testing.T) {
	l := New()
	b := core.Balances{}
	steps := []struct {
		op     string
		method core.Method
		amount string
	}{
		{"credit", core.MethodCash, "100.00"},
		{"credit", core.MethodChecking, "50.555"},
		{"debit", core.MethodCash, "30.00"},
		{"debit", core.MethodChecking, "999.99"}, // fails
		{"debit", core.MethodChecking, "20.06"},
	}
	expected := dec("0")
	for _, s := range steps {
		var err error
		var next core.Balances
		amt := dec(s.amount)
		if s.op == "credit" {
			next, err = l.Credit(b, s.method, amt)
			if err == nil {
				expected = core.Round2(expected.Add(core.Round2(amt)))
			}
		} else {
			next, err = l.Debit(b, s.method, amt)
			if err == nil {
				expected = core.Round2(expected.Sub(core.Round2(amt)))
			}
		}
		b = next
		if got := b.Total(); !got.Equal(expected) {
			t.Fatalf("after %s %s %s: total %s, expected %s", s.op, s.method, s.amount, got, expected)
		}
	}
}
