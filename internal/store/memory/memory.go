// Package memory is an in-memory store implementation used by tests and the
// default development backend. It is thread-safe and transactional: Update
// stages changes on a copy of the user's document and swaps it in only when
// the callback succeeds.
package memory

import (
	"context"
	"sort"
	"sync"

	"wisepenny/internal/core"
	"wisepenny/internal/store"

	"github.com/google/uuid"
)

type userDoc struct {
	balances core.Balances
	expenses []core.Expense // insertion order
}

type Store struct {
	mu    sync.Mutex
	users map[string]*userDoc
}

func New() *Store {
	return &Store{users: make(map[string]*userDoc)}
}

func (s *Store) Close() error { return nil }

func (s *Store) Balances(_ context.Context, userID string) (core.Balances, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.users[userID]; ok {
		return doc.balances, nil
	}
	return core.Balances{}, nil
}

// Update runs fn against a staged copy of the user's document. The copy
// replaces the live document only when fn returns nil, so a failing callback
// leaves the store untouched.
func (s *Store) Update(_ context.Context, userID string, fn func(store.UserTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &userDoc{}
	if doc, ok := s.users[userID]; ok {
		staged.balances = doc.balances
		staged.expenses = append([]core.Expense(nil), doc.expenses...)
	}

	if err := fn(&tx{doc: staged}); err != nil {
		return err
	}

	s.users[userID] = staged
	return nil
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	out := append([]core.Expense(nil), doc.expenses...)
	// Date descending; stable sort keeps insertion order for equal dates.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out, nil
}

type tx struct {
	doc *userDoc
}

func (t *tx) Balances() (core.Balances, error) {
	return t.doc.balances, nil
}

func (t *tx) SetBalances(b core.Balances) error {
	t.doc.balances = b
	return nil
}

func (t *tx) InsertExpense(e core.Expense) (string, error) {
	e.ID = uuid.NewString()
	t.doc.expenses = append(t.doc.expenses, e)
	return e.ID, nil
}

func (t *tx) GetExpense(id string) (core.Expense, error) {
	for _, e := range t.doc.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

func (t *tx) UpdateExpense(e core.Expense) error {
	for i := range t.doc.expenses {
		if t.doc.expenses[i].ID == e.ID {
			t.doc.expenses[i] = e
			return nil
		}
	}
	return core.ErrNotFound
}

func (t *tx) DeleteExpense(id string) error {
	for i := range t.doc.expenses {
		if t.doc.expenses[i].ID == id {
			t.doc.expenses = append(t.doc.expenses[:i], t.doc.expenses[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

var _ store.Store = (*Store)(nil)
