package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tiffin/internal/ledger"
	"github.com/kiwari-pos/tiffin/internal/money"
)

// SalesStore defines the ledger methods needed by sales handlers.
// Satisfied by *ledger.Ledger; narrow interface for testability.
type SalesStore interface {
	Query(ctx context.Context, f ledger.Filter) ([]ledger.Order, error)
	Periods(ctx context.Context) (ledger.Periods, error)
	Location() *time.Location
}

// SalesHandler handles the sales report endpoints.
type SalesHandler struct {
	store SalesStore
	now   func() time.Time
}

// NewSalesHandler creates a new SalesHandler. now defaults to time.Now.
func NewSalesHandler(store SalesStore, now func() time.Time) *SalesHandler {
	if now == nil {
		now = time.Now
	}
	return &SalesHandler{store: store, now: now}
}

// RegisterRoutes registers sales endpoints. Mounted at /api/sales.
func (h *SalesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/periods", h.Periods)
}

// --- Response types ---

type statsResponse struct {
	Count             int    `json:"count"`
	TotalRevenue      string `json:"totalRevenue"`
	AverageOrderValue string `json:"averageOrderValue"`
}

type salesResponse struct {
	Month  int             `json:"month"`
	Year   int             `json:"year"`
	Orders []orderResponse `json:"orders"`
	Stats  statsResponse   `json:"stats"`
}

type filterResponse struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type periodsResponse struct {
	Months  []int          `json:"months"`
	Years   []int          `json:"years"`
	Default filterResponse `json:"default"`
}

func toStatsResponse(s ledger.Stats) statsResponse {
	return statsResponse{
		Count:             s.Count,
		TotalRevenue:      money.Fixed(s.TotalRevenue),
		AverageOrderValue: money.Fixed(s.AverageOrderValue),
	}
}

// ParseFilter reads ?month= (1-12) and ?year= from r. Missing, empty or
// zero values leave that part of the filter unset.
func ParseFilter(r *http.Request) (ledger.Filter, error) {
	var f ledger.Filter
	q := r.URL.Query()

	if s := q.Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 0 || m > 12 {
			return f, fmt.Errorf("invalid month %q", s)
		}
		f.Month = m
	}
	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 0 {
			return f, fmt.Errorf("invalid year %q", s)
		}
		f.Year = y
	}
	return f, nil
}

// --- Handlers ---

// List returns the orders matching ?month=&year=, newest first, with stats.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.store.Query(r.Context(), f)
	if err != nil {
		internalError(w, "query sales", err)
		return
	}

	resp := salesResponse{
		Month:  f.Month,
		Year:   f.Year,
		Orders: make([]orderResponse, len(orders)),
		Stats:  toStatsResponse(ledger.Statistics(orders)),
	}
	for i, o := range orders {
		resp.Orders[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Periods returns the months and years present in the ledger together with
// the filter the report should pre-select.
func (h *SalesHandler) Periods(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Periods(r.Context())
	if err != nil {
		internalError(w, "list periods", err)
		return
	}

	def := p.DefaultFilter(h.now(), h.store.Location())
	writeJSON(w, http.StatusOK, periodsResponse{
		Months:  p.Months,
		Years:   p.Years,
		Default: filterResponse{Month: def.Month, Year: def.Year},
	})
}
