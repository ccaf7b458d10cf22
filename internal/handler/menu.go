package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tiffin/internal/catalog"
	"github.com/kiwari-pos/tiffin/internal/enum"
	"github.com/kiwari-pos/tiffin/internal/money"
	"github.com/shopspring/decimal"
)

// MenuStore defines the catalog methods needed by menu handlers.
// Satisfied by *catalog.Catalog; narrow interface for testability.
type MenuStore interface {
	List(ctx context.Context) ([]catalog.MenuItem, error)
	Get(ctx context.Context, id int) (catalog.MenuItem, bool, error)
	Create(ctx context.Context, in catalog.ItemInput) (catalog.MenuItem, error)
	Update(ctx context.Context, id int, in catalog.ItemInput) (catalog.MenuItem, bool, error)
	Delete(ctx context.Context, id int) error
}

// MenuHandler handles menu item CRUD endpoints.
type MenuHandler struct {
	store  MenuStore
	events Publisher
}

// NewMenuHandler creates a new MenuHandler. events may be nil.
func NewMenuHandler(store MenuStore, events Publisher) *MenuHandler {
	return &MenuHandler{store: store, events: orNop(events)}
}

// RegisterRoutes registers menu endpoints. Mounted at /api/menu.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

// Price accepts a JSON number or a decimal string.
type menuItemRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
}

type menuItemResponse struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Description string `json:"description,omitempty"`
}

func toMenuItemResponse(m catalog.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Price:       money.Fixed(m.Price),
		Image:       m.Image,
		Description: m.Description,
	}
}

func (req menuItemRequest) input() catalog.ItemInput {
	return catalog.ItemInput{
		Name:        req.Name,
		Price:       req.Price,
		Image:       req.Image,
		Description: req.Description,
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, catalog.ErrNameRequired) ||
		errors.Is(err, catalog.ErrPriceRequired) ||
		errors.Is(err, catalog.ErrImageRequired)
}

// --- Handlers ---

// List returns every menu item in storage order.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		internalError(w, "list menu", err)
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single menu item by ID.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	item, found, err := h.store.Get(r.Context(), id)
	if err != nil {
		internalError(w, "get menu item", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create adds a menu item with the next free ID.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.Create(r.Context(), req.input())
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w, "create menu item", err)
		return
	}

	h.events.Publish(enum.EventMenuUpdated, map[string]int{"id": item.ID})
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update replaces every editable field of a menu item.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	var req menuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, found, err := h.store.Update(r.Context(), id, req.input())
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w, "update menu item", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.events.Publish(enum.EventMenuUpdated, map[string]int{"id": item.ID})
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete removes a menu item. Deleting an absent item succeeds.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		internalError(w, "delete menu item", err)
		return
	}

	h.events.Publish(enum.EventMenuUpdated, map[string]int{"id": id})
	w.WriteHeader(http.StatusNoContent)
}
