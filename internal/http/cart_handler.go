package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

const keepAliveInterval = 25 * time.Second

type CartHandler struct {
	catalog Catalog
	log     *slog.Logger
}

func NewCartHandler(c Catalog, log *slog.Logger) *CartHandler {
	return &CartHandler{
		catalog: c,
		log:     log.With(slog.String("component", "cart_handler")),
	}
}

type AddItemRequestDTO struct {
	ID string `json:"id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	v := visitorFromContext(r.Context())
	respondJSON(w, http.StatusOK, v.Cart.Snapshot())
}

// POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "missing_id", "id is required")
		return
	}

	vehicle, err := h.catalog.Get(req.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	v := visitorFromContext(r.Context())
	snap, err := v.Cart.AddItem(vehicle)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// PUT /api/cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "missing_quantity", "quantity is required")
		return
	}

	v := visitorFromContext(r.Context())
	snap, err := v.Cart.UpdateQuantity(chi.URLParam(r, "id"), *req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// DELETE /api/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	v := visitorFromContext(r.Context())
	snap, err := v.Cart.RemoveItem(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	v := visitorFromContext(r.Context())
	snap, err := v.Cart.Clear()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// GET /api/cart/events
//
// Streams the current snapshot, then every change, as server-sent events.
// Slow readers only see the latest snapshot.
func (h *CartHandler) Events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// the stream outlives the server's write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.log.DebugContext(r.Context(), "clear write deadline", slog.Any("err", err))
	}

	v := visitorFromContext(r.Context())

	updates := make(chan domain.CartSnapshot, 1)
	unsubscribe := v.Cart.Subscribe(func(s domain.CartSnapshot) {
		select {
		case updates <- s:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- s:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, rc, v.Cart.Snapshot()); err != nil {
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-v.Done():
			return
		case snap := <-updates:
			if err := writeEvent(w, rc, snap); err != nil {
				h.log.DebugContext(r.Context(), "cart stream closed", slog.Any("err", err))
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, snap domain.CartSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: cart\ndata: %s\n\n", data); err != nil {
		return err
	}
	return rc.Flush()
}
