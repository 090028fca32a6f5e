package reservation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"pgregory.net/rapid"

	"reservio/internal/clock"
	"reservio/internal/inventory"
)

// TestRegistryStateMachine drives the registry through random
// claim/confirm/release/check-in interleavings and verifies after
// every step that a Reserved or Occupied resource has exactly one
// active reservation and an Available resource has none.
func TestRegistryStateMachine(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reg := NewRegistry(clock.NewSystem())
		if err := reg.AddPool(inventory.PoolSpec{ID: "pool"}); err != nil {
			t.Fatalf("add pool: %v", err)
		}

		numResources := rapid.IntRange(1, 4).Draw(t, "resources")
		resources := make([]uuid.UUID, numResources)
		for i := range resources {
			res := &inventory.Resource{
				ID:         uuid.New(),
				Pool:       "pool",
				PriceCents: 100,
				Capacity:   1,
			}
			if err := reg.AddResource(res); err != nil {
				t.Fatalf("add resource: %v", err)
			}
			resources[i] = res.ID
		}

		holders := []string{"h1", "h2", "h3"}
		var created []uuid.UUID
		ctx := context.Background()

		drawReservation := func(t *rapid.T) (uuid.UUID, bool) {
			if len(created) == 0 {
				return uuid.Nil, false
			}
			idx := rapid.IntRange(0, len(created)-1).Draw(t, "reservation")
			return created[idx], true
		}

		t.Repeat(map[string]func(*rapid.T){
			"claim": func(t *rapid.T) {
				resourceID := rapid.SampledFrom(resources).Draw(t, "resource")
				holder := rapid.SampledFrom(holders).Draw(t, "holder")
				rsv, err := reg.Claim(ctx, resourceID, holder, nil)
				if err == nil {
					created = append(created, rsv.ID)
				}
			},
			"confirm": func(t *rapid.T) {
				id, ok := drawReservation(t)
				if !ok {
					return
				}
				reg.Confirm(ctx, id)
			},
			"checkin": func(t *rapid.T) {
				id, ok := drawReservation(t)
				if !ok {
					return
				}
				rsv, err := reg.Lookup(ctx, id)
				if err != nil {
					return
				}
				reg.CheckIn(ctx, id, rsv.HolderID)
			},
			"cancel": func(t *rapid.T) {
				id, ok := drawReservation(t)
				if !ok {
					return
				}
				if err := reg.Release(ctx, id, StatusCancelled); err != nil {
					t.Fatalf("release must never fail for a known id: %v", err)
				}
			},
			"checkout": func(t *rapid.T) {
				id, ok := drawReservation(t)
				if !ok {
					return
				}
				reg.CheckOut(ctx, id)
			},
			"": func(t *rapid.T) {
				// Invariant: active reservations per resource.
				activeCount := make(map[uuid.UUID]int)
				for _, id := range created {
					rsv, err := reg.Lookup(ctx, id)
					if err != nil {
						t.Fatalf("lookup %s: %v", id, err)
					}
					if rsv.Status.Active() {
						activeCount[rsv.ResourceID]++
					}
				}
				for _, resourceID := range resources {
					res, err := reg.Resource(resourceID)
					if err != nil {
						t.Fatalf("resource %s: %v", resourceID, err)
					}
					n := activeCount[resourceID]
					switch res.Status {
					case inventory.StatusAvailable:
						if n != 0 {
							t.Fatalf("available resource %s has %d active reservations", resourceID, n)
						}
					case inventory.StatusReserved, inventory.StatusOccupied:
						if n != 1 {
							t.Fatalf("claimed resource %s has %d active reservations", resourceID, n)
						}
					}
				}
			},
		})
	})
}
