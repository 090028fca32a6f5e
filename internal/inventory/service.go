// internal/inventory/service.go
package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrPoolExists and ErrPoolNotFound guard pool setup.
	ErrPoolExists   = errors.New("pool already exists")
	ErrPoolNotFound = errors.New("pool not found")
)

// Store is the committed resource state the inventory service reads
// and seeds. The reservation registry implements it; only committed
// state is ever visible here, a resource mid-claim by another caller
// is not.
type Store interface {
	AddPool(spec PoolSpec) error
	AddResource(r *Resource) error
	Resource(id uuid.UUID) (Resource, error)
	FindAvailable(c Criteria) []Resource
}

// Service defines the interface for inventory setup and availability
// queries.
type Service interface {
	AddPool(ctx context.Context, spec PoolSpec) error
	AddResource(ctx context.Context, pool string, category Category, priceCents int64, capacity int) (*Resource, error)
	GetResource(ctx context.Context, id uuid.UUID) (*Resource, error)
	Find(ctx context.Context, c Criteria) ([]Resource, error)
	LoadFile(ctx context.Context, path string) error
}
