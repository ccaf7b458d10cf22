// Package ledger keeps the append-only history of completed orders.
package ledger

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kiwari-pos/tiffin/internal/cart"
	"github.com/kiwari-pos/tiffin/internal/enum"
	"github.com/kiwari-pos/tiffin/internal/kvstore"
	"github.com/shopspring/decimal"
)

// Order is a completed sale. Items are a snapshot of the cart at checkout,
// so catalog edits and deletions never change recorded history.
type Order struct {
	OrderID string          `json:"orderId"`
	Date    time.Time       `json:"date"`
	Items   []cart.Line     `json:"items"`
	Total   decimal.Decimal `json:"total"`
}

// Filter selects orders by calendar month (1-12) and year. Zero means any.
type Filter struct {
	Month int
	Year  int
}

// Match reports whether o falls in the filter's month/year, evaluated in loc.
func (f Filter) Match(o Order, loc *time.Location) bool {
	d := o.Date.In(loc)
	if f.Month != 0 && int(d.Month()) != f.Month {
		return false
	}
	if f.Year != 0 && d.Year() != f.Year {
		return false
	}
	return true
}

// Stats summarizes a set of orders.
type Stats struct {
	Count             int
	TotalRevenue      decimal.Decimal
	AverageOrderValue decimal.Decimal
}

// Statistics computes count, revenue and average. An empty set yields zeros.
func Statistics(orders []Order) Stats {
	s := Stats{TotalRevenue: decimal.Zero, AverageOrderValue: decimal.Zero}
	for _, o := range orders {
		s.TotalRevenue = s.TotalRevenue.Add(o.Total)
	}
	s.Count = len(orders)
	if s.Count > 0 {
		s.AverageOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.Count)))
	}
	return s
}

// Periods lists the months (ascending) and years (descending) that have orders.
type Periods struct {
	Months []int
	Years  []int
}

// DistinctPeriods collects the months and years present in orders, in loc.
func DistinctPeriods(orders []Order, loc *time.Location) Periods {
	months := map[int]bool{}
	years := map[int]bool{}
	for _, o := range orders {
		d := o.Date.In(loc)
		months[int(d.Month())] = true
		years[d.Year()] = true
	}

	p := Periods{Months: []int{}, Years: []int{}}
	for m := range months {
		p.Months = append(p.Months, m)
	}
	for y := range years {
		p.Years = append(p.Years, y)
	}
	slices.Sort(p.Months)
	slices.Sort(p.Years)
	slices.Reverse(p.Years)
	return p
}

// DefaultFilter pre-selects the month and year of now (in loc) when the
// ledger has orders in them. Absent periods stay unset.
func (p Periods) DefaultFilter(now time.Time, loc *time.Location) Filter {
	d := now.In(loc)
	var f Filter
	if slices.Contains(p.Months, int(d.Month())) {
		f.Month = int(d.Month())
	}
	if slices.Contains(p.Years, d.Year()) {
		f.Year = d.Year()
	}
	return f
}

// NewestFirst sorts orders by date, most recent first. Ties keep ledger order.
func NewestFirst(orders []Order) {
	slices.SortStableFunc(orders, func(a, b Order) int {
		return b.Date.Compare(a.Date)
	})
}

// Ledger reads and appends to the sales document.
type Ledger struct {
	store kvstore.Store
	loc   *time.Location
	mu    sync.Mutex
}

// New creates a Ledger. Month/year matching happens in loc (time.Local when nil).
func New(store kvstore.Store, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{store: store, loc: loc}
}

// Location returns the zone used for calendar matching.
func (l *Ledger) Location() *time.Location { return l.loc }

// Record appends order to the end of the ledger.
func (l *Ledger) Record(ctx context.Context, order Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	orders, err := l.load(ctx)
	if err != nil {
		return err
	}
	if err := kvstore.Save(ctx, l.store, enum.KeySales, append(orders, order)); err != nil {
		return fmt.Errorf("save sales: %w", err)
	}
	return nil
}

// All returns every order in insertion order.
func (l *Ledger) All(ctx context.Context) ([]Order, error) {
	return l.load(ctx)
}

// Query returns the orders matching f, most recent first.
func (l *Ledger) Query(ctx context.Context, f Filter) ([]Order, error) {
	orders, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	matched := []Order{}
	for _, o := range orders {
		if f.Match(o, l.loc) {
			matched = append(matched, o)
		}
	}
	NewestFirst(matched)
	return matched, nil
}

// Periods returns the distinct months and years across the whole ledger.
func (l *Ledger) Periods(ctx context.Context) (Periods, error) {
	orders, err := l.load(ctx)
	if err != nil {
		return Periods{}, err
	}
	return DistinctPeriods(orders, l.loc), nil
}

func (l *Ledger) load(ctx context.Context) ([]Order, error) {
	orders, _, err := kvstore.Load[[]Order](ctx, l.store, enum.KeySales)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	return orders, nil
}
