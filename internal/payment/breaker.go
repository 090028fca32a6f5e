// internal/payment/breaker.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// Breaker wraps a Processor with a circuit breaker so a flapping
// payment provider sheds load instead of stalling every reserve call.
// Declines pass through without tripping the breaker: a refused charge
// is a healthy provider saying no.
type Breaker struct {
	inner Processor
	cb    *gobreaker.CircuitBreaker
}

// declined marks a pass-through decline inside the breaker execution.
type declined struct{ err error }

// NewBreaker wraps the processor. The breaker opens after maxFailures
// consecutive transport errors and probes again after the cooldown.
func NewBreaker(inner Processor, maxFailures uint32, cooldown time.Duration) *Breaker {
	return &Breaker{
		inner: inner,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "payment",
			Timeout: cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
		}),
	}
}

func (b *Breaker) Pay(ctx context.Context, holderID string, amountCents int64) error {
	out, err := b.cb.Execute(func() (interface{}, error) {
		if err := b.inner.Pay(ctx, holderID, amountCents); err != nil {
			if errors.Is(err, ErrDeclined) {
				return declined{err: err}, nil
			}
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("payment provider unavailable: %w", err)
		}
		return err
	}
	if d, ok := out.(declined); ok {
		return d.err
	}
	return nil
}
