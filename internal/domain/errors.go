package domain

import "github.com/pkg/errors"

var (
	// ErrInsufficientBalance indicates the available quote balance is below
	// the configured minimum for a rebalance purchase.
	ErrInsufficientBalance = errors.New("insufficient balance for rebalance")

	// ErrOrderRejected indicates the exchange refused an order.
	ErrOrderRejected = errors.New("order rejected by exchange")
)
