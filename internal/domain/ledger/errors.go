package ledger

import "errors"

var (
	ErrInvalidKind   = errors.New("unknown ledger kind")
	ErrInvalidAmount = errors.New("amount must be greater than zero")
)
