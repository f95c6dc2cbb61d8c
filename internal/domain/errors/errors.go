package errors

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrCodeCollision       = errors.New("internal code collision")
	ErrNamespaceExhausted  = errors.New("allocation namespace exhausted")
	ErrInvalidPeriod       = errors.New("invalid settlement period")
	ErrUnknownCounterparty = errors.New("unknown counterparty")
	ErrNotFound            = errors.New("not found")
)
