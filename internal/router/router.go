package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiwari-pos/tiffin/internal/app"
	"github.com/kiwari-pos/tiffin/internal/config"
	"github.com/kiwari-pos/tiffin/internal/handler"
	"github.com/kiwari-pos/tiffin/internal/metrics"
	mw "github.com/kiwari-pos/tiffin/internal/middleware"
	"github.com/kiwari-pos/tiffin/internal/session"
	"github.com/kiwari-pos/tiffin/internal/view"
	"github.com/kiwari-pos/tiffin/internal/ws"
)

// Deps are the long-lived components the routes share.
type Deps struct {
	Services *app.Services
	Hub      *ws.Hub
	Metrics  *metrics.Metrics
	Renderer *view.Renderer
	PDF      handler.PDFRenderer
	Sessions *session.Registry
}

// New creates a Chi router with the UI, the JSON API, the websocket and the
// operational endpoints wired up.
func New(cfg *config.Config, deps Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	// WebSocket route, rooms are chosen with ?view=
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(deps.Hub, w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Sessions(deps.Sessions))

		// HTML screens
		view.NewHandler(deps.Services, deps.Renderer, deps.Hub, time.Now).RegisterRoutes(r)

		// JSON API
		r.Route("/api", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   cfg.AllowedOrigins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type"},
				ExposedHeaders:   []string{"Link"},
				AllowCredentials: true,
				MaxAge:           300, // 5 minutes
			}))

			menuHandler := handler.NewMenuHandler(deps.Services.Catalog, deps.Hub)
			r.Route("/menu", menuHandler.RegisterRoutes)

			cartHandler := handler.NewCartHandler(deps.Services.Cart, deps.Hub)
			r.Route("/cart", cartHandler.RegisterRoutes)

			checkoutHandler := handler.NewCheckoutHandler(
				deps.Services.Checkout,
				deps.Services.Payments,
				deps.Renderer,
				deps.PDF,
				deps.Hub,
			)
			checkoutHandler.RegisterRoutes(r)

			salesHandler := handler.NewSalesHandler(deps.Services.Ledger, time.Now)
			r.Route("/sales", salesHandler.RegisterRoutes)

			settingsHandler := handler.NewSettingsHandler(deps.Services.Payments)
			r.Route("/settings", settingsHandler.RegisterRoutes)
		})
	})

	slog.Info("Router initialized with all handlers")
	return r
}
