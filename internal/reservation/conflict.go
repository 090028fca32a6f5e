// internal/reservation/conflict.go
package reservation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reservio/internal/inventory"
)

// resourceOverlaps reports whether any active windowed reservation on
// the resource intersects w. The exclude id skips the reservation
// being moved during a reschedule. Caller holds p.mu.
func (p *pool) resourceOverlaps(resourceID uuid.UUID, w Window, exclude uuid.UUID) bool {
	for _, rsv := range p.reservations {
		if rsv.ID == exclude || rsv.ResourceID != resourceID {
			continue
		}
		if !rsv.Status.Active() || rsv.Window == nil {
			continue
		}
		if rsv.Window.Overlaps(w) {
			return true
		}
	}
	return false
}

// holderConflicts reports whether the holder already has an active
// reservation in the pool that collides with the proposed window. A
// nil window on either side collides unconditionally, matching the
// one-active-reservation-per-holder policy of claim/release pools.
// Caller holds p.mu.
func (p *pool) holderConflicts(holderID string, w *Window, exclude uuid.UUID) bool {
	for _, rsv := range p.reservations {
		if rsv.ID == exclude || rsv.HolderID != holderID || !rsv.Status.Active() {
			continue
		}
		if w == nil || rsv.Window == nil {
			return true
		}
		if rsv.Window.Overlaps(*w) {
			return true
		}
	}
	return false
}

// HasConflict reports whether the holder's active reservations in the
// pool collide with the proposed window. The engine consults this
// before claiming; the claim re-checks under the pool lock, so a false
// here is advisory only.
func (r *Registry) HasConflict(ctx context.Context, holderID, poolID string, w *Window) (bool, error) {
	r.mu.RLock()
	p, ok := r.pools[poolID]
	r.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", inventory.ErrPoolNotFound, poolID)
	}
	if !p.spec.ExclusiveHolder {
		return false, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.holderConflicts(holderID, w, uuid.Nil), nil
}

// Reschedule moves an active windowed reservation to a new window
// after re-running the full conflict check against it, excluding the
// reservation being moved. On conflict the original window is left
// untouched.
func (r *Registry) Reschedule(ctx context.Context, id uuid.UUID, w Window) (*Reservation, error) {
	_, span := r.tracer.Start(ctx, "registry.reschedule",
		trace.WithAttributes(attribute.String("reservation.id", id.String())),
	)
	defer span.End()

	p, err := r.poolForReservation(id)
	if err != nil {
		return nil, err
	}

	if !w.Valid() {
		return nil, fmt.Errorf("%w: end must be after start", ErrWindowRequired)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rsv := p.reservations[id]
	if !p.spec.Windowed || rsv.Window == nil {
		return nil, fmt.Errorf("%w: reservation %s has no window", ErrInvalidTransition, id)
	}
	if !rsv.Status.Active() {
		return nil, fmt.Errorf("%w: reschedule from %s", ErrInvalidTransition, rsv.Status)
	}

	if p.resourceOverlaps(rsv.ResourceID, w, rsv.ID) {
		return nil, fmt.Errorf("%w: resource %s", ErrConflict, rsv.ResourceID)
	}
	if p.spec.ExclusiveHolder && p.holderConflicts(rsv.HolderID, &w, rsv.ID) {
		return nil, fmt.Errorf("%w: holder %s", ErrConflict, rsv.HolderID)
	}

	win := w
	rsv.Window = &win
	rsv.UpdatedAt = r.clk.Now()
	return snapshot(rsv), nil
}
