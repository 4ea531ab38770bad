package core

import "errors"

var (
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound         = errors.New("expense not found")
	ErrNoFieldsProvided = errors.New("no data provided to update")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidMethod    = errors.New("invalid method")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrConflict         = errors.New("concurrent modification")
)
