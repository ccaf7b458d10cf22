package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tiffin/internal/cart"
	"github.com/kiwari-pos/tiffin/internal/ledger"
	"github.com/kiwari-pos/tiffin/internal/money"
)

// Publisher fans state changes out to open views. Satisfied by *ws.Hub.
type Publisher interface {
	Publish(eventType string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

func orNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// --- Shared response types ---

type lineResponse struct {
	ItemID   int    `json:"itemId"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Amount   string `json:"amount"`
}

type orderResponse struct {
	OrderID string         `json:"orderId"`
	Date    string         `json:"date"`
	Items   []lineResponse `json:"items"`
	Total   string         `json:"total"`
}

func toLineResponses(lines []cart.Line) []lineResponse {
	resp := make([]lineResponse, len(lines))
	for i, l := range lines {
		resp[i] = lineResponse{
			ItemID:   l.ItemID,
			Name:     l.Name,
			Price:    money.Fixed(l.Price),
			Quantity: l.Quantity,
			Amount:   money.Fixed(l.Amount()),
		}
	}
	return resp
}

func toOrderResponse(o ledger.Order) orderResponse {
	return orderResponse{
		OrderID: o.OrderID,
		Date:    o.Date.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Items:   toLineResponses(o.Items),
		Total:   money.Fixed(o.Total),
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs err with the failing operation and replies 500.
func internalError(w http.ResponseWriter, op string, err error) {
	slog.Error("Request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func intParam(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, false
	}
	return n, true
}
