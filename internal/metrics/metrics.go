// Package metrics exposes Prometheus counters for sales and HTTP traffic.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kiwari-pos/tiffin/internal/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	ordersTotal   prometheus.Counter
	itemsSold     *prometheus.CounterVec
	revenueTotal  prometheus.Counter
	orderValue    prometheus.Histogram
	httpDurations *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ordersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tiffin_orders_total",
			Help: "Completed checkouts.",
		}),
		itemsSold: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiffin_items_sold_total",
			Help: "Units sold per menu item name.",
		}, []string{"item"}),
		revenueTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tiffin_revenue_total",
			Help: "Sum of completed order totals.",
		}),
		orderValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tiffin_order_value",
			Help:    "Distribution of completed order totals.",
			Buckets: []float64{25, 50, 100, 200, 500, 1000, 2500},
		}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tiffin_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.ordersTotal, m.itemsSold, m.revenueTotal, m.orderValue, m.httpDurations,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// OrderCompleted records a checkout. It satisfies service.OrderObserver.
func (m *Metrics) OrderCompleted(_ context.Context, order ledger.Order) {
	total, _ := order.Total.Float64()
	m.ordersTotal.Inc()
	m.revenueTotal.Add(total)
	m.orderValue.Observe(total)
	for _, line := range order.Items {
		m.itemsSold.WithLabelValues(line.Name).Add(float64(line.Quantity))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware observes request latency, labelled by the matched chi route
// pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpDurations.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
