package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tiffin/internal/service"
)

// SettingsStore defines the payment settings methods needed by handlers.
// Satisfied by *service.PaymentSettings.
type SettingsStore interface {
	PaymentLink(ctx context.Context) (string, error)
	SetPaymentLink(ctx context.Context, link string) (string, error)
}

// SettingsHandler handles shop settings.
type SettingsHandler struct {
	store SettingsStore
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// RegisterRoutes registers settings endpoints. Mounted at /api/settings.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/payment-link", h.GetPaymentLink)
	r.Put("/payment-link", h.SetPaymentLink)
}

type paymentLinkBody struct {
	PaymentLink string `json:"paymentLink"`
}

// GetPaymentLink returns the payment link template.
func (h *SettingsHandler) GetPaymentLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.store.PaymentLink(r.Context())
	if err != nil {
		internalError(w, "read payment link", err)
		return
	}
	writeJSON(w, http.StatusOK, paymentLinkBody{PaymentLink: link})
}

// SetPaymentLink replaces the payment link template.
func (h *SettingsHandler) SetPaymentLink(w http.ResponseWriter, r *http.Request) {
	var req paymentLinkBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.store.SetPaymentLink(r.Context(), req.PaymentLink)
	if err != nil {
		if errors.Is(err, service.ErrPaymentLinkRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w, "save payment link", err)
		return
	}
	writeJSON(w, http.StatusOK, paymentLinkBody{PaymentLink: link})
}
