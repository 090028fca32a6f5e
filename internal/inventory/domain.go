// internal/inventory/domain.go
package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a resource within its pool, e.g. a seat class,
// a room type or a parking spot size.
type Category string

// ResourceStatus is the lifecycle state of a resource. It is owned by
// the reservation registry and only changes through registry-mediated
// transitions.
type ResourceStatus string

const (
	StatusAvailable ResourceStatus = "available"
	StatusReserved  ResourceStatus = "reserved"
	StatusOccupied  ResourceStatus = "occupied"
	StatusReleased  ResourceStatus = "released"
)

// Resource is a unit of reservable inventory: a seat, a room, a bed,
// a locker, a parking spot or an appointment slot.
type Resource struct {
	ID         uuid.UUID      `json:"id"`
	Pool       string         `json:"pool"`
	Category   Category       `json:"category"`
	PriceCents int64          `json:"price_cents"`
	Capacity   int            `json:"capacity"`
	Status     ResourceStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PoolSpec declares a mutual-exclusion domain of resources. Claims
// inside a pool are serialized against each other; unrelated pools
// proceed independently.
type PoolSpec struct {
	ID string `json:"id"`

	// Windowed pools hold time-sliced resources (appointment slots,
	// date-ranged bookings); claims against them carry a time window
	// and conflict by overlap rather than by resource status.
	Windowed bool `json:"windowed"`

	// ExclusiveHolder forbids a holder from having two active
	// reservations in the pool at once (overlapping ones, for
	// windowed pools), e.g. one active appointment per patient.
	ExclusiveHolder bool `json:"exclusive_holder"`
}

// Criteria selects candidate resources for a reservation. Zero values
// mean "any": an empty category matches every category, a zero
// MaxPriceCents disables the price ceiling.
type Criteria struct {
	Pool          string    `json:"pool"`
	Category      Category  `json:"category,omitempty"`
	MinCapacity   int       `json:"min_capacity,omitempty"`
	MaxPriceCents int64     `json:"max_price_cents,omitempty"`
	Start         time.Time `json:"start,omitzero"`
	End           time.Time `json:"end,omitzero"`
}

// Matches reports whether the resource satisfies the static filters of
// the criteria. Availability over time is the registry's concern.
func (c Criteria) Matches(r Resource) bool {
	if c.Pool != "" && c.Pool != r.Pool {
		return false
	}
	if c.Category != "" && c.Category != r.Category {
		return false
	}
	if c.MinCapacity > 0 && r.Capacity < c.MinCapacity {
		return false
	}
	if c.MaxPriceCents > 0 && r.PriceCents > c.MaxPriceCents {
		return false
	}
	return true
}

// HasWindow reports whether the criteria carry a time window.
func (c Criteria) HasWindow() bool {
	return !c.Start.IsZero() || !c.End.IsZero()
}
