package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MethodCash     Method = "cash"
	MethodChecking Method = "checking"
)

// DateLayout is the calendar date format expenses are keyed by.
const DateLayout = "2006-01-02"

type (
	// Method is the funding source of an expense or fund addition.
	Method string

	// Expense is a single logged expenditure tied to a user and a funding
	// method. ID is opaque and assigned by the store on creation.
	Expense struct {
		ID       string
		Date     string // YYYY-MM-DD
		Descr    string
		Amount   decimal.Decimal
		Method   Method
		Category string
		// Type is "Need", "Want" or "Savings and Debt" by convention.
		// Not enforced.
		Type string
	}

	// Balances is the two-field ledger record kept per user.
	Balances struct {
		Cash     decimal.Decimal
		Checking decimal.Decimal
	}

	// ExpensePatch is a partial update for an expense. A nil field means
	// "not supplied"; pointer markers replace the truthiness checks older
	// clients relied on, so a legitimate new value is never dropped.
	ExpensePatch struct {
		Date     *string
		Descr    *string
		Amount   *decimal.Decimal
		Method   *Method
		Category *string
		Type     *string
	}
)

// ParseMethod normalizes a funding method string, case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(MethodCash):
		return MethodCash, nil
	case string(MethodChecking):
		return MethodChecking, nil
	default:
		return "", ErrInvalidMethod
	}
}

func (m Method) String() string {
	return string(m)
}

// ValidateDate checks that s is a well-formed YYYY-MM-DD calendar date.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func (e Expense) Validate() error {
	if err := ValidateDate(e.Date); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Descr)) == 0 {
		return ErrEmptyDescription
	}
	if e.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if _, err := ParseMethod(string(e.Method)); err != nil {
		return err
	}
	return nil
}

// Get returns the balance field for the given method.
func (b Balances) Get(m Method) decimal.Decimal {
	if m == MethodChecking {
		return b.Checking
	}
	return b.Cash
}

// With returns a copy of the balances with the given method's field replaced.
func (b Balances) With(m Method, v decimal.Decimal) Balances {
	if m == MethodChecking {
		b.Checking = v
	} else {
		b.Cash = v
	}
	return b
}

// Total returns cash + checking, rounded to 2 decimals.
func (b Balances) Total() decimal.Decimal {
	return Round2(b.Cash.Add(b.Checking))
}

// Normalize drops fields that carry no value. Empty strings are treated as
// "not supplied" for wire compatibility with clients that send every key on
// edit; a present amount is kept as-is and validated by the caller.
func (p ExpensePatch) Normalize() ExpensePatch {
	out := p
	if out.Date != nil && strings.TrimSpace(*out.Date) == "" {
		out.Date = nil
	}
	if out.Descr != nil && strings.TrimSpace(*out.Descr) == "" {
		out.Descr = nil
	}
	if out.Method != nil && strings.TrimSpace(string(*out.Method)) == "" {
		out.Method = nil
	}
	if out.Category != nil && strings.TrimSpace(*out.Category) == "" {
		out.Category = nil
	}
	if out.Type != nil && strings.TrimSpace(*out.Type) == "" {
		out.Type = nil
	}
	return out
}

// IsEmpty reports whether the patch supplies no fields at all.
func (p ExpensePatch) IsEmpty() bool {
	return p.Date == nil && p.Descr == nil && p.Amount == nil &&
		p.Method == nil && p.Category == nil && p.Type == nil
}

// Apply returns a copy of e with the supplied patch fields replaced.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Descr != nil {
		e.Descr = *p.Descr
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Method != nil {
		e.Method = *p.Method
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	return e
}
