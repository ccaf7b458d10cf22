package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tiffin/internal/cart"
	"github.com/kiwari-pos/tiffin/internal/enum"
	"github.com/kiwari-pos/tiffin/internal/money"
)

// CartStore defines the cart methods needed by cart handlers.
// Satisfied by *cart.Cart; narrow interface for testability.
type CartStore interface {
	Lines(ctx context.Context) ([]cart.Line, error)
	Add(ctx context.Context, itemID int) (cart.Line, bool, error)
	ChangeQuantity(ctx context.Context, itemID, delta int) error
	Remove(ctx context.Context, itemID int) error
	Clear(ctx context.Context) error
}

// CartHandler handles the in-progress order.
type CartHandler struct {
	store  CartStore
	events Publisher
}

// NewCartHandler creates a new CartHandler. events may be nil.
func NewCartHandler(store CartStore, events Publisher) *CartHandler {
	return &CartHandler{store: store, events: orNop(events)}
}

// RegisterRoutes registers cart endpoints. Mounted at /api/cart.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Delete("/", h.Clear)
	r.Post("/items", h.AddItem)
	r.Patch("/items/{itemId}", h.ChangeQuantity)
	r.Delete("/items/{itemId}", h.RemoveItem)
}

// --- Request / Response types ---

type addItemRequest struct {
	ItemID int `json:"itemId"`
}

type changeQuantityRequest struct {
	Delta int `json:"delta"`
}

type cartResponse struct {
	Items []lineResponse `json:"items"`
	Total string         `json:"total"`
	Count int            `json:"count"`
}

func toCartResponse(lines []cart.Line) cartResponse {
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return cartResponse{
		Items: toLineResponses(lines),
		Total: money.Fixed(cart.Total(lines)),
		Count: count,
	}
}

// --- Handlers ---

// Get returns the cart lines and total.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)
}

// AddItem adds one unit of a menu item. Unknown items leave the cart unchanged.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, added, err := h.store.Add(r.Context(), req.ItemID)
	if err != nil {
		internalError(w, "add to cart", err)
		return
	}
	if added {
		h.events.Publish(enum.EventCartUpdated, nil)
	}
	h.respond(w, r)
}

// ChangeQuantity adjusts a line by delta; a result of zero or less removes it.
func (h *CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, ok := intParam(r, "itemId")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	var req changeQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, "delta must not be zero")
		return
	}

	if err := h.store.ChangeQuantity(r.Context(), itemID, req.Delta); err != nil {
		internalError(w, "change quantity", err)
		return
	}
	h.events.Publish(enum.EventCartUpdated, nil)
	h.respond(w, r)
}

// RemoveItem drops the line for a menu item.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := intParam(r, "itemId")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	if err := h.store.Remove(r.Context(), itemID); err != nil {
		internalError(w, "remove from cart", err)
		return
	}
	h.events.Publish(enum.EventCartUpdated, nil)
	h.respond(w, r)
}

// Clear empties the cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		internalError(w, "clear cart", err)
		return
	}
	h.events.Publish(enum.EventCartUpdated, nil)
	h.respond(w, r)
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request) {
	lines, err := h.store.Lines(r.Context())
	if err != nil {
		internalError(w, "read cart", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(lines))
}
