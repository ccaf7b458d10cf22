// Package app assembles the point-of-sale components over one store.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiwari-pos/tiffin/internal/cart"
	"github.com/kiwari-pos/tiffin/internal/catalog"
	"github.com/kiwari-pos/tiffin/internal/kvstore"
	"github.com/kiwari-pos/tiffin/internal/ledger"
	"github.com/kiwari-pos/tiffin/internal/service"
)

// Services are the components every entry point shares.
type Services struct {
	Catalog  *catalog.Catalog
	Cart     *cart.Cart
	Ledger   *ledger.Ledger
	Payments *service.PaymentSettings
	Checkout *service.CheckoutService
}

// New wires the components to store. Month/year filters use loc.
func New(store kvstore.Store, loc *time.Location, opts ...service.CheckoutOption) *Services {
	cat := catalog.New(store)
	c := cart.New(store, cat)
	l := ledger.New(store, loc)
	payments := service.NewPaymentSettings(store)
	return &Services{
		Catalog:  cat,
		Cart:     c,
		Ledger:   l,
		Payments: payments,
		Checkout: service.NewCheckoutService(c, l, payments, opts...),
	}
}

// Init seeds the default menu and payment link on first run. It is safe to
// call on every start.
func (s *Services) Init(ctx context.Context) error {
	seeded, err := s.Catalog.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if seeded {
		slog.Info("Seeded default menu")
	}

	wrote, err := s.Payments.EnsurePaymentLink(ctx)
	if err != nil {
		return fmt.Errorf("seed payment link: %w", err)
	}
	if wrote {
		slog.Info("Stored default payment link", "link", service.DefaultPaymentLink)
	}
	return nil
}
