// internal/payment/payment.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrDeclined is returned when the payment provider refuses the
// charge. It is a business outcome, not a transport failure.
var ErrDeclined = errors.New("payment declined")

// Processor is the narrow contract the reservation engine invokes. Any
// non-nil error triggers a rollback of the claim; the engine does not
// retry automatically.
type Processor interface {
	Pay(ctx context.Context, holderID string, amountCents int64) error
}

// Card charges a stored card. Zero-amount and negative charges are
// rejected before reaching the provider.
type Card struct {
	Logger *zap.Logger
}

func (c *Card) Pay(ctx context.Context, holderID string, amountCents int64) error {
	if amountCents <= 0 {
		return fmt.Errorf("invalid charge amount %d", amountCents)
	}
	c.Logger.Info("card charge accepted",
		zap.String("holder_id", holderID),
		zap.Int64("amount_cents", amountCents),
	)
	return nil
}

// Cash records an on-site cash payment; it never declines.
type Cash struct {
	Logger *zap.Logger
}

func (c *Cash) Pay(ctx context.Context, holderID string, amountCents int64) error {
	if amountCents < 0 {
		return fmt.Errorf("invalid charge amount %d", amountCents)
	}
	c.Logger.Info("cash payment recorded",
		zap.String("holder_id", holderID),
		zap.Int64("amount_cents", amountCents),
	)
	return nil
}

// Wallet charges a prepaid balance and declines when the balance is
// exhausted. Safe for concurrent charges.
type Wallet struct {
	Logger *zap.Logger

	mu        sync.Mutex
	remaining int64
}

// NewWallet creates a wallet processor with the given starting
// balance.
func NewWallet(logger *zap.Logger, balanceCents int64) *Wallet {
	return &Wallet{
		Logger:    logger,
		remaining: balanceCents,
	}
}

func (w *Wallet) debit(amountCents int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if amountCents > w.remaining {
		return false
	}
	w.remaining -= amountCents
	return true
}

func (w *Wallet) Pay(ctx context.Context, holderID string, amountCents int64) error {
	if amountCents <= 0 {
		return fmt.Errorf("invalid charge amount %d", amountCents)
	}
	if !w.debit(amountCents) {
		w.Logger.Warn("wallet charge declined",
			zap.String("holder_id", holderID),
			zap.Int64("amount_cents", amountCents),
		)
		return fmt.Errorf("%w: insufficient balance", ErrDeclined)
	}
	w.Logger.Info("wallet charge accepted",
		zap.String("holder_id", holderID),
		zap.Int64("amount_cents", amountCents),
	)
	return nil
}
