package events

import (
	"encoding/json"
	"time"
)

// Event kinds published to the broker.
const (
	KindFundsAdded     = "funds.added"
	KindBalanceCleared = "balance.cleared"
	KindExpenseCreated = "expense.created"
	KindExpenseEdited  = "expense.edited"
	KindExpenseRemoved = "expense.removed"
)

// Event is a lightweight notification for downstream consumers. Amounts are
// carried as fixed-point decimal strings; consumers needing the full record
// fetch it themselves.
type Event struct {
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	ExpenseID string    `json:"expense_id,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Method    string    `json:"method,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(kind, userID string) Event {
	return Event{
		Kind:      kind,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON creates an event from JSON bytes.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}
