// internal/clients/inventory_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"reservio/internal/inventory"
)

type InventoryClient struct {
	baseURL string
}

func NewInventoryClient(baseURL string) *InventoryClient {
	return &InventoryClient{baseURL: baseURL}
}

func (c *InventoryClient) AddPool(ctx context.Context, spec inventory.PoolSpec) error {
	body, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pools", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

func (c *InventoryClient) AddResource(ctx context.Context, pool string, category inventory.Category, priceCents int64, capacity int) (*inventory.Resource, error) {
	addReq := struct {
		Pool       string             `json:"pool"`
		Category   inventory.Category `json:"category"`
		PriceCents int64              `json:"price_cents"`
		Capacity   int                `json:"capacity"`
	}{
		Pool:       pool,
		Category:   category,
		PriceCents: priceCents,
		Capacity:   capacity,
	}

	body, err := json.Marshal(addReq)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/resources", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var res inventory.Resource
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}

	return &res, nil
}

func (c *InventoryClient) GetResource(ctx context.Context, id uuid.UUID) (*inventory.Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/resources/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var res inventory.Resource
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}

	return &res, nil
}

func (c *InventoryClient) Find(ctx context.Context, criteria inventory.Criteria) ([]inventory.Resource, error) {
	q := url.Values{}
	if criteria.Pool != "" {
		q.Set("pool", criteria.Pool)
	}
	if criteria.Category != "" {
		q.Set("category", string(criteria.Category))
	}
	if criteria.MinCapacity > 0 {
		q.Set("min_capacity", strconv.Itoa(criteria.MinCapacity))
	}
	if criteria.MaxPriceCents > 0 {
		q.Set("max_price_cents", strconv.FormatInt(criteria.MaxPriceCents, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/resources?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var out []inventory.Resource
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	return out, nil
}
