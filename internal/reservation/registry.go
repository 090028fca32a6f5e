// internal/reservation/registry.go
package reservation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reservio/internal/clock"
	"reservio/internal/inventory"
)

// Registry owns the authoritative mapping from reservation id to
// reservation record and from resource id to its current holder. It is
// the single writer of resource and reservation status.
//
// Each pool is its own mutual-exclusion domain: claims against the
// same pool are serialized, claims against different pools proceed
// independently. Within a pool, check-and-claim is one critical
// section.
type Registry struct {
	clk    clock.Clock
	tracer trace.Tracer

	mu         sync.RWMutex // guards pools and byResource
	pools      map[string]*pool
	byResource map[uuid.UUID]*pool

	idxMu         sync.RWMutex // guards byReservation
	byReservation map[uuid.UUID]*pool
}

// pool groups the resources of one mutual-exclusion domain together
// with every reservation ever made against them. All fields below mu
// require it held.
type pool struct {
	spec inventory.PoolSpec

	mu           sync.Mutex
	resources    map[uuid.UUID]*inventory.Resource
	reservations map[uuid.UUID]*Reservation
}

// NewRegistry creates an empty registry. The clock is injected so
// tests can pin reservation timestamps.
func NewRegistry(clk clock.Clock) *Registry {
	return &Registry{
		clk:           clk,
		tracer:        otel.Tracer("reservio/registry"),
		pools:         make(map[string]*pool),
		byResource:    make(map[uuid.UUID]*pool),
		byReservation: make(map[uuid.UUID]*pool),
	}
}

// AddPool registers a new mutual-exclusion domain.
func (r *Registry) AddPool(spec inventory.PoolSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pools[spec.ID]; ok {
		return fmt.Errorf("%w: %s", inventory.ErrPoolExists, spec.ID)
	}
	r.pools[spec.ID] = &pool{
		spec:         spec,
		resources:    make(map[uuid.UUID]*inventory.Resource),
		reservations: make(map[uuid.UUID]*Reservation),
	}
	return nil
}

// AddResource places a resource under registry ownership. The registry
// keeps its own copy; callers must not mutate the resource afterwards.
func (r *Registry) AddResource(res *inventory.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pools[res.Pool]
	if !ok {
		return fmt.Errorf("%w: %s", inventory.ErrPoolNotFound, res.Pool)
	}

	owned := *res
	if owned.Status == "" {
		owned.Status = inventory.StatusAvailable
	}

	p.mu.Lock()
	p.resources[owned.ID] = &owned
	p.mu.Unlock()

	r.byResource[owned.ID] = p
	return nil
}

// Resource returns a copy of the committed resource state.
func (r *Registry) Resource(id uuid.UUID) (inventory.Resource, error) {
	p, err := r.poolForResource(id)
	if err != nil {
		return inventory.Resource{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	res, ok := p.resources[id]
	if !ok {
		return inventory.Resource{}, fmt.Errorf("%w: resource %s", ErrNotFound, id)
	}
	return *res, nil
}

// FindAvailable returns committed resources matching the criteria in
// ascending id order. A candidate returned here may still lose the
// race at claim time; callers retry the next candidate on
// ErrResourceUnavailable.
func (r *Registry) FindAvailable(c inventory.Criteria) []inventory.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []inventory.Resource
	for _, p := range r.pools {
		if c.Pool != "" && c.Pool != p.spec.ID {
			continue
		}
		p.mu.Lock()
		for _, res := range p.resources {
			if !c.Matches(*res) {
				continue
			}
			if p.spec.Windowed {
				if c.HasWindow() && p.resourceOverlaps(res.ID, Window{Start: c.Start, End: c.End}, uuid.Nil) {
					continue
				}
			} else if res.Status != inventory.StatusAvailable {
				continue
			}
			out = append(out, *res)
		}
		p.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Claim atomically checks availability and creates a Pending
// reservation in the same critical section. Under N concurrent callers
// targeting the same resource exactly one claim succeeds; the rest
// observe the post-claim state and get ErrResourceUnavailable.
func (r *Registry) Claim(ctx context.Context, resourceID uuid.UUID, holderID string, w *Window) (*Reservation, error) {
	_, span := r.tracer.Start(ctx, "registry.claim",
		trace.WithAttributes(
			attribute.String("resource.id", resourceID.String()),
			attribute.String("holder.id", holderID),
			attribute.Bool("windowed", w != nil),
		),
	)
	defer span.End()

	p, err := r.poolForResource(resourceID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	res, ok := p.resources[resourceID]
	if !ok {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: resource %s", ErrNotFound, resourceID)
	}

	if p.spec.Windowed {
		if w == nil || !w.Valid() {
			p.mu.Unlock()
			return nil, fmt.Errorf("%w: pool %s", ErrWindowRequired, p.spec.ID)
		}
		if p.resourceOverlaps(resourceID, *w, uuid.Nil) {
			p.mu.Unlock()
			span.SetAttributes(attribute.Bool("claim.lost", true))
			return nil, fmt.Errorf("%w: resource %s", ErrResourceUnavailable, resourceID)
		}
	} else if res.Status != inventory.StatusAvailable {
		p.mu.Unlock()
		span.SetAttributes(attribute.Bool("claim.lost", true))
		return nil, fmt.Errorf("%w: resource %s", ErrResourceUnavailable, resourceID)
	}

	if p.spec.ExclusiveHolder && p.holderConflicts(holderID, w, uuid.Nil) {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: holder %s already active in pool %s", ErrConflict, holderID, p.spec.ID)
	}

	now := r.clk.Now()
	rsv := &Reservation{
		ID:         uuid.New(),
		ResourceID: resourceID,
		Pool:       p.spec.ID,
		HolderID:   holderID,
		Status:     StatusPending,
		PriceCents: res.PriceCents,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if w != nil {
		win := *w
		rsv.Window = &win
	}
	if !p.spec.Windowed {
		res.Status = inventory.StatusReserved
	}
	p.reservations[rsv.ID] = rsv
	out := snapshot(rsv)
	p.mu.Unlock()

	// The id is not visible to any other caller until we return, so
	// indexing after the pool unlock cannot be observed as a gap.
	r.idxMu.Lock()
	r.byReservation[rsv.ID] = p
	r.idxMu.Unlock()

	span.SetAttributes(attribute.String("reservation.id", rsv.ID.String()))
	return out, nil
}

// Confirm transitions a Pending reservation to Confirmed.
func (r *Registry) Confirm(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	_, span := r.tracer.Start(ctx, "registry.confirm",
		trace.WithAttributes(attribute.String("reservation.id", id.String())),
	)
	defer span.End()

	p, err := r.poolForReservation(id)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rsv := p.reservations[id]
	if rsv.Status != StatusPending {
		return nil, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, rsv.Status)
	}
	rsv.Status = StatusConfirmed
	rsv.UpdatedAt = r.clk.Now()
	return snapshot(rsv), nil
}

// Release severs the reservation's claim on its resource and moves the
// record to the given terminal status. Releasing an already-terminal
// reservation is a no-op, not an error.
func (r *Registry) Release(ctx context.Context, id uuid.UUID, to Status) error {
	_, span := r.tracer.Start(ctx, "registry.release",
		trace.WithAttributes(
			attribute.String("reservation.id", id.String()),
			attribute.String("release.to", string(to)),
		),
	)
	defer span.End()

	if !to.Terminal() {
		return fmt.Errorf("%w: release to non-terminal %s", ErrInvalidTransition, to)
	}

	p, err := r.poolForReservation(id)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rsv := p.reservations[id]
	if rsv.Status.Terminal() {
		span.SetAttributes(attribute.Bool("release.noop", true))
		return nil
	}

	rsv.Status = to
	rsv.UpdatedAt = r.clk.Now()
	if !p.spec.Windowed {
		if res, ok := p.resources[rsv.ResourceID]; ok {
			res.Status = inventory.StatusAvailable
		}
	}
	return nil
}

// CheckIn transitions a Confirmed reservation to CheckedIn and marks
// the resource occupied. The acting holder must own the reservation.
func (r *Registry) CheckIn(ctx context.Context, id uuid.UUID, holderID string) (*Reservation, error) {
	_, span := r.tracer.Start(ctx, "registry.checkin",
		trace.WithAttributes(attribute.String("reservation.id", id.String())),
	)
	defer span.End()

	p, err := r.poolForReservation(id)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rsv := p.reservations[id]
	if rsv.HolderID != holderID {
		return nil, fmt.Errorf("%w: reservation %s", ErrHolderMismatch, id)
	}
	if rsv.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: check-in from %s", ErrInvalidTransition, rsv.Status)
	}

	rsv.Status = StatusCheckedIn
	rsv.UpdatedAt = r.clk.Now()
	if !p.spec.Windowed {
		if res, ok := p.resources[rsv.ResourceID]; ok {
			res.Status = inventory.StatusOccupied
		}
	}
	return snapshot(rsv), nil
}

// CheckOut ends the occupancy phase: CheckedIn -> CheckedOut, with the
// resource returned to Available.
func (r *Registry) CheckOut(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	_, span := r.tracer.Start(ctx, "registry.checkout",
		trace.WithAttributes(attribute.String("reservation.id", id.String())),
	)
	defer span.End()

	p, err := r.poolForReservation(id)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rsv := p.reservations[id]
	if rsv.Status != StatusCheckedIn {
		return nil, fmt.Errorf("%w: check-out from %s", ErrInvalidTransition, rsv.Status)
	}

	rsv.Status = StatusCheckedOut
	rsv.UpdatedAt = r.clk.Now()
	if !p.spec.Windowed {
		if res, ok := p.resources[rsv.ResourceID]; ok {
			res.Status = inventory.StatusAvailable
		}
	}
	return snapshot(rsv), nil
}

// Lookup returns a copy of the reservation record.
func (r *Registry) Lookup(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	p, err := r.poolForReservation(id)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return snapshot(p.reservations[id]), nil
}

// ListByHolder returns every reservation ever made by the holder,
// oldest first.
func (r *Registry) ListByHolder(ctx context.Context, holderID string) []Reservation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Reservation
	for _, p := range r.pools {
		p.mu.Lock()
		for _, rsv := range p.reservations {
			if rsv.HolderID == holderID {
				out = append(out, *snapshot(rsv))
			}
		}
		p.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *Registry) poolForResource(id uuid.UUID) (*pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byResource[id]
	if !ok {
		return nil, fmt.Errorf("%w: resource %s", ErrNotFound, id)
	}
	return p, nil
}

func (r *Registry) poolForReservation(id uuid.UUID) (*pool, error) {
	r.idxMu.RLock()
	defer r.idxMu.RUnlock()

	p, ok := r.byReservation[id]
	if !ok {
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, id)
	}
	return p, nil
}

// snapshot copies a reservation so callers never alias registry-owned
// state.
func snapshot(rsv *Reservation) *Reservation {
	out := *rsv
	if rsv.Window != nil {
		win := *rsv.Window
		out.Window = &win
	}
	return &out
}
