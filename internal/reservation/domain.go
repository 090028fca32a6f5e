// internal/reservation/domain.go
package reservation

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a reservation.
//
// Pending -> {Confirmed, Failed}; Confirmed -> {CheckedIn, Cancelled};
// CheckedIn -> {CheckedOut, Cancelled}. Failed, Cancelled and
// CheckedOut are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
)

// Active reports whether the status still holds a claim on a resource.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusFailed, StatusCancelled, StatusCheckedOut:
		return true
	}
	return false
}

// Window is a half-open time interval [Start, End) attached to
// reservations of time-sliced resources.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the window is non-empty and well ordered.
func (w Window) Valid() bool {
	return w.Start.Before(w.End)
}

// Overlaps reports whether two half-open intervals intersect. Adjacent
// windows sharing a boundary instant do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Reservation records a holder's claim on a resource. The record is
// retained for history after cancellation; only the resource claim is
// severed.
type Reservation struct {
	ID         uuid.UUID `json:"id"`
	ResourceID uuid.UUID `json:"resource_id"`
	Pool       string    `json:"pool"`
	HolderID   string    `json:"holder_id"`
	Window     *Window   `json:"window,omitempty"`
	Status     Status    `json:"status"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
