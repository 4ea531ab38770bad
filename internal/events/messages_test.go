package events

import (
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	before := time.Now().UTC()
	e := NewEvent(KindExpenseCreated, "user-1")
	if e.Kind != KindExpenseCreated || e.UserID != "user-1" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.Timestamp.Before(before) {
		t.Fatalf("timestamp not stamped: %v", e.Timestamp)
	}
}

func TestEventRoundTrip(t *testing.T) {
	e := NewEvent(KindExpenseRemoved, "user-1")
	e.ExpenseID = "abc"
	e.Amount = "12.34"
	e.Method = "cash"

	data, err := e.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := EventFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Kind != e.Kind || got.ExpenseID != "abc" || got.Amount != "12.34" || got.Method != "cash" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEventFromJSONRejectsGarbage(t *testing.T) {
	if _, err := EventFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
