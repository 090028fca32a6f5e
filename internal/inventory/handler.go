// internal/inventory/handler.go
package inventory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the inventory endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/pools", h.HandleAddPool)
	r.Post("/resources", h.HandleAddResource)
	r.Get("/resources", h.HandleFind)
	r.Get("/resources/{id}", h.HandleGetResource)
}

func (h *Handler) HandleAddPool(w http.ResponseWriter, r *http.Request) {
	var spec PoolSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.AddPool(r.Context(), spec); err != nil {
		if errors.Is(err, ErrPoolExists) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(spec)
}

func (h *Handler) HandleAddResource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pool       string `json:"pool"`
		Category   string `json:"category"`
		PriceCents int64  `json:"price_cents"`
		Capacity   int    `json:"capacity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.service.AddResource(r.Context(), req.Pool, Category(req.Category), req.PriceCents, req.Capacity)
	if err != nil {
		if errors.Is(err, ErrPoolNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) HandleGetResource(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid resource ID", http.StatusBadRequest)
		return
	}

	res, err := h.service.GetResource(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(res)
}

func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c := Criteria{
		Pool:     q.Get("pool"),
		Category: Category(q.Get("category")),
	}
	if v := q.Get("min_capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid min_capacity", http.StatusBadRequest)
			return
		}
		c.MinCapacity = n
	}
	if v := q.Get("max_price_cents"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid max_price_cents", http.StatusBadRequest)
			return
		}
		c.MaxPriceCents = n
	}
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid start", http.StatusBadRequest)
			return
		}
		c.Start = t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid end", http.StatusBadRequest)
			return
		}
		c.End = t
	}

	out, err := h.service.Find(r.Context(), c)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(out)
}
