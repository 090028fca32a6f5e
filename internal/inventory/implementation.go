// internal/inventory/implementation.go
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// service implements the Service interface.
type service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a new inventory service instance.
func NewService(store Store, logger *zap.Logger) Service {
	return &service{
		store:  store,
		logger: logger,
	}
}

// AddPool registers a mutual-exclusion domain of resources.
func (s *service) AddPool(ctx context.Context, spec PoolSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("pool id must not be empty")
	}
	if err := s.store.AddPool(spec); err != nil {
		return fmt.Errorf("failed to add pool %q: %w", spec.ID, err)
	}
	s.logger.Info("pool added",
		zap.String("pool", spec.ID),
		zap.Bool("windowed", spec.Windowed),
		zap.Bool("exclusive_holder", spec.ExclusiveHolder),
	)
	return nil
}

// AddResource creates a new resource in the given pool.
func (s *service) AddResource(ctx context.Context, pool string, category Category, priceCents int64, capacity int) (*Resource, error) {
	if priceCents < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}
	r := &Resource{
		ID:         uuid.New(),
		Pool:       pool,
		Category:   category,
		PriceCents: priceCents,
		Capacity:   capacity,
		Status:     StatusAvailable,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.AddResource(r); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}
	return r, nil
}

// GetResource retrieves a resource by its ID.
func (s *service) GetResource(ctx context.Context, id uuid.UUID) (*Resource, error) {
	r, err := s.store.Resource(id)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Find returns committed resources matching the criteria, ordered by
// ascending id so repeated queries under unchanged state are
// deterministic.
func (s *service) Find(ctx context.Context, c Criteria) ([]Resource, error) {
	return s.store.FindAvailable(c), nil
}

// bootstrapFile is the on-disk shape accepted by LoadFile.
type bootstrapFile struct {
	Pools     []PoolSpec `json:"pools"`
	Resources []struct {
		Pool       string   `json:"pool"`
		Category   Category `json:"category"`
		PriceCents int64    `json:"price_cents"`
		Capacity   int      `json:"capacity"`
		Count      int      `json:"count,omitempty"`
	} `json:"resources"`
}

// LoadFile bulk-loads pools and resources from a JSON file at startup.
func (s *service) LoadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read inventory file: %w", err)
	}

	var bf bootstrapFile
	if err := json.Unmarshal(data, &bf); err != nil {
		return fmt.Errorf("failed to parse inventory file: %w", err)
	}

	for _, spec := range bf.Pools {
		if err := s.AddPool(ctx, spec); err != nil {
			return err
		}
	}

	loaded := 0
	for _, res := range bf.Resources {
		count := res.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			if _, err := s.AddResource(ctx, res.Pool, res.Category, res.PriceCents, res.Capacity); err != nil {
				return err
			}
			loaded++
		}
	}

	s.logger.Info("inventory loaded",
		zap.String("path", path),
		zap.Int("pools", len(bf.Pools)),
		zap.Int("resources", loaded),
	)
	return nil
}
