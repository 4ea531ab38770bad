package memory

import (
	"context"
	"errors"
	"testing"

	"wisepenny/internal/core"
	"wisepenny/internal/store"

	"github.com/shopspring/decimal"
)

func addExpense(t *testing.T, s *Store, user, date, descr string) string {
	t.Helper()
	var id string
	err := s.Update(context.Background(), user, func(tx store.UserTx) error {
		var err error
		id, err = tx.InsertExpense(core.Expense{
			Date:   date,
			Descr:  descr,
			Amount: decimal.NewFromInt(1),
			Method: core.MethodCash,
		})
		return err
	})
	if err != nil {
		t.Fatalf("insert expense: %v", err)
	}
	return id
}

func TestBalancesDefaultZero(t *testing.T) {
	s := New()
	b, err := s.Balances(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if b.Cash.Sign() != 0 || b.Checking.Sign() != 0 {
		t.Fatalf("expected zero balances for unknown user: %+v", b)
	}
}

func TestUpdateCommitsOnSuccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	want := core.Balances{Cash: decimal.NewFromInt(10)}
	err := s.Update(ctx, "u1", func(tx store.UserTx) error {
		return tx.SetBalances(want)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.Balances(ctx, "u1")
	if !got.Cash.Equal(want.Cash) {
		t.Fatalf("expected committed balance, got %+v", got)
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.Update(ctx, "u1", func(tx store.UserTx) error {
		if err := tx.SetBalances(core.Balances{Cash: decimal.NewFromInt(99)}); err != nil {
			return err
		}
		if _, err := tx.InsertExpense(core.Expense{Date: "2024-01-01", Descr: "x", Amount: decimal.NewFromInt(1), Method: core.MethodCash}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	b, _ := s.Balances(ctx, "u1")
	if b.Cash.Sign() != 0 {
		t.Fatalf("balance leaked from aborted tx: %+v", b)
	}
	items, _ := s.ListExpenses(ctx, "u1")
	if len(items) != 0 {
		t.Fatalf("expense leaked from aborted tx: %d", len(items))
	}
}

func TestExpenseCRUD(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := addExpense(t, s, "u1", "2024-01-01", "coffee")

	err := s.Update(ctx, "u1", func(tx store.UserTx) error {
		e, err := tx.GetExpense(id)
		if err != nil {
			return err
		}
		e.Descr = "espresso"
		return tx.UpdateExpense(e)
	})
	if err != nil {
		t.Fatalf("update expense: %v", err)
	}

	items, _ := s.ListExpenses(ctx, "u1")
	if len(items) != 1 || items[0].Descr != "espresso" {
		t.Fatalf("unexpected list: %+v", items)
	}

	err = s.Update(ctx, "u1", func(tx store.UserTx) error {
		return tx.DeleteExpense(id)
	})
	if err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	items, _ = s.ListExpenses(ctx, "u1")
	if len(items) != 0 {
		t.Fatalf("expected empty list after delete")
	}

	err = s.Update(ctx, "u1", func(tx store.UserTx) error {
		_, err := tx.GetExpense(id)
		return err
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrdering(t *testing.T) {
	s := New()
	ctx := context.Background()
	addExpense(t, s, "u1", "2024-01-01", "first")
	addExpense(t, s, "u1", "2024-03-01", "second")
	addExpense(t, s, "u1", "2024-02-01", "third")
	// Same date as "second": insertion order must hold on the tie.
	addExpense(t, s, "u1", "2024-03-01", "fourth")

	items, err := s.ListExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, e := range items {
		got = append(got, e.Descr)
	}
	want := []string{"second", "fourth", "third", "first"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestUsersAreIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()
	addExpense(t, s, "u1", "2024-01-01", "mine")

	items, _ := s.ListExpenses(ctx, "u2")
	if len(items) != 0 {
		t.Fatalf("u2 sees u1 expenses")
	}
	err := s.Update(ctx, "u2", func(tx store.UserTx) error {
		_, err := tx.GetExpense("nope")
		return err
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
