// internal/clients/reservation_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"reservio/internal/inventory"
	"reservio/internal/reservation"
)

type ReservationClient struct {
	baseURL string
}

func NewReservationClient(baseURL string) *ReservationClient {
	return &ReservationClient{baseURL: baseURL}
}

// Reserve submits a reservation request. A declined payment comes back
// as 402 with the Failed record; the caller gets the record and a nil
// error so the outcome can be inspected.
func (c *ReservationClient) Reserve(ctx context.Context, criteria inventory.Criteria, holderID, paymentMethod string) (*reservation.Reservation, error) {
	reserveReq := struct {
		Pool          string             `json:"pool"`
		Category      inventory.Category `json:"category"`
		MinCapacity   int                `json:"min_capacity"`
		MaxPriceCents int64              `json:"max_price_cents"`
		Start         time.Time          `json:"start"`
		End           time.Time          `json:"end"`
		HolderID      string             `json:"holder_id"`
		PaymentMethod string             `json:"payment_method"`
	}{
		Pool:          criteria.Pool,
		Category:      criteria.Category,
		MinCapacity:   criteria.MinCapacity,
		MaxPriceCents: criteria.MaxPriceCents,
		Start:         criteria.Start,
		End:           criteria.End,
		HolderID:      holderID,
		PaymentMethod: paymentMethod,
	}

	body, err := json.Marshal(reserveReq)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reservations", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusPaymentRequired {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var rsv reservation.Reservation
	if err := json.NewDecoder(resp.Body).Decode(&rsv); err != nil {
		return nil, err
	}

	return &rsv, nil
}

func (c *ReservationClient) Get(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/reservations/%s", c.baseURL, id), nil)
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

	var rsv reservation.Reservation
	if err := json.NewDecoder(resp.Body).Decode(&rsv); err != nil {
		return nil, err
	}

	return &rsv, nil
}

func (c *ReservationClient) Cancel(ctx context.Context, id uuid.UUID, actor string) error {
	cancelReq := struct {
		Actor string `json:"actor"`
	}{Actor: actor}

	body, err := json.Marshal(cancelReq)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/reservations/%s/cancel", c.baseURL, id), bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

func (c *ReservationClient) ListByHolder(ctx context.Context, holderID string) ([]reservation.Reservation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/holders/%s/reservations", c.baseURL, holderID), nil)
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

	var out []reservation.Reservation
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	return out, nil
}
