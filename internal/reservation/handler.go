// internal/reservation/handler.go
package reservation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"reservio/internal/inventory"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the reservation endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/reservations", h.HandleReserve)
	r.Get("/reservations/{id}", h.HandleGet)
	r.Post("/reservations/{id}/cancel", h.HandleCancel)
	r.Post("/reservations/{id}/checkin", h.HandleCheckIn)
	r.Post("/reservations/{id}/checkout", h.HandleCheckOut)
	r.Post("/reservations/{id}/reschedule", h.HandleReschedule)
	r.Get("/holders/{id}/reservations", h.HandleListByHolder)
}

func (h *Handler) HandleReserve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pool          string    `json:"pool"`
		Category      string    `json:"category"`
		MinCapacity   int       `json:"min_capacity"`
		MaxPriceCents int64     `json:"max_price_cents"`
		Start         time.Time `json:"start"`
		End           time.Time `json:"end"`
		HolderID      string    `json:"holder_id"`
		PaymentMethod string    `json:"payment_method"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rsv, err := h.service.Reserve(r.Context(), ReserveRequest{
		Criteria: inventory.Criteria{
			Pool:          req.Pool,
			Category:      inventory.Category(req.Category),
			MinCapacity:   req.MinCapacity,
			MaxPriceCents: req.MaxPriceCents,
			Start:         req.Start,
			End:           req.End,
		},
		HolderID:      req.HolderID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		// A declined payment still carries the Failed record.
		if errors.Is(err, ErrPaymentDeclined) && rsv != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(rsv)
			return
		}
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rsv)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid reservation ID", http.StatusBadRequest)
		return
	}

	rsv, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(rsv)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid reservation ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Actor string `json:"actor"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.service.Cancel(r.Context(), id, req.Actor); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid reservation ID", http.StatusBadRequest)
		return
	}

	var req struct {
		HolderID string `json:"holder_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rsv, err := h.service.CheckIn(r.Context(), id, req.HolderID)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(rsv)
}

func (h *Handler) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid reservation ID", http.StatusBadRequest)
		return
	}

	rsv, err := h.service.CheckOut(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(rsv)
}

func (h *Handler) HandleReschedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid reservation ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rsv, err := h.service.Reschedule(r.Context(), id, Window{Start: req.Start, End: req.End})
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(rsv)
}

func (h *Handler) HandleListByHolder(w http.ResponseWriter, r *http.Request) {
	holderID := chi.URLParam(r, "id")
	if holderID == "" {
		http.Error(w, "missing holder ID", http.StatusBadRequest)
		return
	}

	out, err := h.service.ListByHolder(r.Context(), holderID)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(out)
}

// writeError maps the engine error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrResourceUnavailable),
		errors.Is(err, ErrNoResourceAvailable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrHolderMismatch),
		errors.Is(err, ErrWindowRequired):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrPaymentDeclined):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, ErrRateLimited):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
