// internal/reservation/implementation.go
package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"reservio/internal/inventory"
	"reservio/internal/notify"
	"reservio/internal/payment"
)

// service implements the Service interface. It orchestrates the
// reserve flow: availability query, atomic claim, payment, then commit
// or rollback. Payment runs outside every registry lock so a slow
// provider cannot serialize unrelated claims.
type service struct {
	registry *Registry
	payments map[string]payment.Processor
	notifier notify.Notifier
	limiter  *rate.Limiter
	logger   *zap.Logger
	tracer   trace.Tracer
}

// Option tweaks engine construction.
type Option func(*service)

// WithRateLimit overrides the default reserve-path limiter.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *service) {
		s.limiter = rate.NewLimiter(limit, burst)
	}
}

// NewService creates a new reservation engine instance.
func NewService(registry *Registry, payments map[string]payment.Processor, notifier notify.Notifier, logger *zap.Logger, opts ...Option) Service {
	s := &service{
		registry: registry,
		payments: payments,
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Limit(200), 400),
		logger:   logger,
		tracer:   otel.Tracer("reservio/engine"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reserve walks the candidate resources in order, claims the first one
// still free, charges the holder, and confirms the claim. A declined
// payment rolls the claim back before returning, so the resource is
// observably available again immediately.
func (s *service) Reserve(ctx context.Context, req ReserveRequest) (*Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "engine.reserve",
		trace.WithAttributes(
			attribute.String("holder.id", req.HolderID),
			attribute.String("pool", req.Criteria.Pool),
		),
	)
	defer span.End()

	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}
	if req.HolderID == "" {
		return nil, fmt.Errorf("holder id must not be empty")
	}

	var window *Window
	if req.Criteria.HasWindow() {
		w := Window{Start: req.Criteria.Start, End: req.Criteria.End}
		if !w.Valid() {
			return nil, fmt.Errorf("%w: end must be after start", ErrWindowRequired)
		}
		window = &w
	}

	proc, err := s.processor(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	// Advisory fail-fast on the holder policy; the claim re-checks
	// atomically.
	if req.Criteria.Pool != "" {
		if conflict, err := s.registry.HasConflict(ctx, req.HolderID, req.Criteria.Pool, window); err == nil && conflict {
			return nil, fmt.Errorf("%w: holder %s", ErrConflict, req.HolderID)
		}
	}

	candidates := s.registry.FindAvailable(req.Criteria)
	span.SetAttributes(attribute.Int("candidates", len(candidates)))

	for _, res := range candidates {
		rsv, err := s.registry.Claim(ctx, res.ID, req.HolderID, window)
		if err != nil {
			if errors.Is(err, ErrResourceUnavailable) {
				continue
			}
			return nil, err
		}
		return s.finalize(ctx, rsv, proc)
	}

	return nil, fmt.Errorf("%w: pool %q", ErrNoResourceAvailable, req.Criteria.Pool)
}

// finalize settles payment for a fresh claim and commits or rolls it
// back. On decline the Failed reservation is returned alongside
// ErrPaymentDeclined so callers see both the record and the outcome.
func (s *service) finalize(ctx context.Context, rsv *Reservation, proc payment.Processor) (*Reservation, error) {
	if err := proc.Pay(ctx, rsv.HolderID, rsv.PriceCents); err != nil {
		if relErr := s.registry.Release(ctx, rsv.ID, StatusFailed); relErr != nil {
			s.logger.Error("rollback after payment failure",
				zap.String("reservation_id", rsv.ID.String()),
				zap.Error(relErr),
			)
		}
		failed, lookErr := s.registry.Lookup(ctx, rsv.ID)
		if lookErr != nil {
			failed = rsv
		}
		if errors.Is(err, payment.ErrDeclined) {
			s.logger.Warn("payment declined",
				zap.String("reservation_id", rsv.ID.String()),
				zap.String("holder_id", rsv.HolderID),
			)
			return failed, fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
		}
		return failed, fmt.Errorf("payment failed: %w", err)
	}

	confirmed, err := s.registry.Confirm(ctx, rsv.ID)
	if err != nil {
		// Lost to a concurrent cancel between claim and confirm.
		s.logger.Warn("confirm after payment failed",
			zap.String("reservation_id", rsv.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.sendNotification(ctx, confirmed.HolderID, "Reservation confirmed",
		fmt.Sprintf("Reservation %s confirmed for resource %s", confirmed.ID, confirmed.ResourceID))
	return confirmed, nil
}

// Cancel releases the underlying resource and marks the reservation
// Cancelled. Cancelling an already-terminal reservation is an
// idempotent no-op.
func (s *service) Cancel(ctx context.Context, id uuid.UUID, actor string) error {
	ctx, span := s.tracer.Start(ctx, "engine.cancel",
		trace.WithAttributes(
			attribute.String("reservation.id", id.String()),
			attribute.String("actor", actor),
		),
	)
	defer span.End()

	rsv, err := s.registry.Lookup(ctx, id)
	if err != nil {
		return err
	}
	if rsv.Status.Terminal() {
		return nil
	}

	if err := s.registry.Release(ctx, id, StatusCancelled); err != nil {
		return err
	}

	s.logger.Info("reservation cancelled",
		zap.String("reservation_id", id.String()),
		zap.String("actor", actor),
	)
	s.sendNotification(ctx, rsv.HolderID, "Reservation cancelled",
		fmt.Sprintf("Reservation %s was cancelled", id))
	return nil
}

func (s *service) CheckIn(ctx context.Context, id uuid.UUID, holderID string) (*Reservation, error) {
	return s.registry.CheckIn(ctx, id, holderID)
}

func (s *service) CheckOut(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return s.registry.CheckOut(ctx, id)
}

func (s *service) Reschedule(ctx context.Context, id uuid.UUID, w Window) (*Reservation, error) {
	return s.registry.Reschedule(ctx, id, w)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return s.registry.Lookup(ctx, id)
}

func (s *service) ListByHolder(ctx context.Context, holderID string) ([]Reservation, error) {
	return s.registry.ListByHolder(ctx, holderID), nil
}

func (s *service) processor(method string) (payment.Processor, error) {
	if method == "" {
		method = "card"
	}
	proc, ok := s.payments[method]
	if !ok {
		return nil, fmt.Errorf("unknown payment method %q", method)
	}
	return proc, nil
}

// sendNotification is fire-and-forget: it runs detached from the
// request context and only ever logs failures.
func (s *service) sendNotification(ctx context.Context, holderID, subject, body string) {
	if s.notifier == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := s.notifier.Notify(detached, holderID, subject, body); err != nil {
			s.logger.Warn("notification failed",
				zap.String("holder_id", holderID),
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
	}()
}

var _ inventory.Store = (*Registry)(nil)
