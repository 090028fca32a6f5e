// internal/reservation/service.go
package reservation

import (
	"context"

	"github.com/google/uuid"

	"reservio/internal/inventory"
)

// ReserveRequest carries everything needed to place a reservation.
type ReserveRequest struct {
	Criteria      inventory.Criteria
	HolderID      string
	PaymentMethod string
}

// Service defines the interface for the reservation engine.
type Service interface {
	Reserve(ctx context.Context, req ReserveRequest) (*Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID, actor string) error
	CheckIn(ctx context.Context, id uuid.UUID, holderID string) (*Reservation, error)
	CheckOut(ctx context.Context, id uuid.UUID) (*Reservation, error)
	Reschedule(ctx context.Context, id uuid.UUID, w Window) (*Reservation, error)
	Get(ctx context.Context, id uuid.UUID) (*Reservation, error)
	ListByHolder(ctx context.Context, holderID string) ([]Reservation, error)
}
