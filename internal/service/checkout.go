package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/kiwari-pos/tiffin/internal/cart"
	"github.com/kiwari-pos/tiffin/internal/enum"
	"github.com/kiwari-pos/tiffin/internal/ledger"
	"github.com/shopspring/decimal"
)

// DefaultClearDelay is how long the cart survives a checkout, so the payment
// QR is on screen before the cart panel empties.
const DefaultClearDelay = 100 * time.Millisecond

// Errors returned by the checkout service.
var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrNothingToPrint = errors.New("no items to print")
)

// CartStore is the part of the cart checkout needs. Satisfied by *cart.Cart.
type CartStore interface {
	Lines(ctx context.Context) ([]cart.Line, error)
	Clear(ctx context.Context) error
}

// OrderRecorder appends completed orders. Satisfied by *ledger.Ledger.
type OrderRecorder interface {
	Record(ctx context.Context, order ledger.Order) error
}

// PaymentLinks yields the payment link template. Satisfied by *PaymentSettings.
type PaymentLinks interface {
	PaymentLink(ctx context.Context) (string, error)
}

// OrderObserver is told about every recorded order. Observers must not block.
type OrderObserver interface {
	OrderCompleted(ctx context.Context, order ledger.Order)
}

// OrderObserverFunc adapts a function to OrderObserver.
type OrderObserverFunc func(ctx context.Context, order ledger.Order)

func (f OrderObserverFunc) OrderCompleted(ctx context.Context, order ledger.Order) { f(ctx, order) }

// CheckoutOption customizes a CheckoutService.
type CheckoutOption func(*CheckoutService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) CheckoutOption {
	return func(s *CheckoutService) { s.now = now }
}

// WithClearDelay sets the delay before the cart is cleared. Zero clears synchronously.
func WithClearDelay(d time.Duration) CheckoutOption {
	return func(s *CheckoutService) { s.clearDelay = d }
}

// WithScheduler overrides time.AfterFunc for the delayed cart clear.
func WithScheduler(afterFunc func(time.Duration, func())) CheckoutOption {
	return func(s *CheckoutService) { s.afterFunc = afterFunc }
}

// WithAfterClear registers fn to run once the cart has been cleared.
func WithAfterClear(fn func()) CheckoutOption {
	return func(s *CheckoutService) { s.afterClear = fn }
}

// WithObservers registers observers notified after each checkout.
func WithObservers(observers ...OrderObserver) CheckoutOption {
	return func(s *CheckoutService) { s.observers = append(s.observers, observers...) }
}

// CheckoutService turns the cart into ledger entries and bills.
type CheckoutService struct {
	cart       CartStore
	ledger     OrderRecorder
	links      PaymentLinks
	observers  []OrderObserver
	now        func() time.Time
	clearDelay time.Duration
	afterFunc  func(time.Duration, func())
	afterClear func()
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(c CartStore, l OrderRecorder, links PaymentLinks, opts ...CheckoutOption) *CheckoutService {
	s := &CheckoutService{
		cart:       c,
		ledger:     l,
		links:      links,
		now:        time.Now,
		clearDelay: DefaultClearDelay,
		afterFunc:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Receipt is the outcome of a successful checkout.
type Receipt struct {
	Order   ledger.Order
	Payload string
}

// Checkout records the cart as a new order and returns it with its payment
// payload. The cart is cleared after the configured delay.
func (s *CheckoutService) Checkout(ctx context.Context) (*Receipt, error) {
	lines, err := s.cart.Lines(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	link, err := s.links.PaymentLink(ctx)
	if err != nil {
		return nil, fmt.Errorf("read payment link: %w", err)
	}

	now := s.now()
	total := cart.Total(lines)
	order := ledger.Order{
		OrderID: fmt.Sprintf("%s%d", enum.OrderPrefixSaved, now.UnixMilli()),
		Date:    now.UTC(),
		Items:   slices.Clone(lines),
		Total:   total,
	}

	if err := s.ledger.Record(ctx, order); err != nil {
		return nil, fmt.Errorf("record order: %w", err)
	}

	for _, o := range s.observers {
		o.OrderCompleted(ctx, order)
	}

	if err := s.clearCart(); err != nil {
		return nil, err
	}

	return &Receipt{
		Order:   order,
		Payload: PaymentPayload(link, total),
	}, nil
}

func (s *CheckoutService) clearCart() error {
	if s.clearDelay <= 0 {
		if err := s.cart.Clear(context.Background()); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		s.cleared()
		return nil
	}
	s.afterFunc(s.clearDelay, func() {
		if err := s.cart.Clear(context.Background()); err != nil {
			slog.Error("Failed to clear cart after checkout", "error", err)
			return
		}
		s.cleared()
	})
	return nil
}

func (s *CheckoutService) cleared() {
	if s.afterClear != nil {
		s.afterClear()
	}
}

// BillLine is one printed row.
type BillLine struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Amount   decimal.Decimal
}

// Bill is the printable view of an order.
// Saved is false for a bill drawn from the live cart, which is never recorded.
type Bill struct {
	OrderID string
	Date    time.Time
	Lines   []BillLine
	Total   decimal.Decimal
	Saved   bool
}

// Bill prints current when set, otherwise the live cart. It fails with
// ErrNothingToPrint when there is neither.
func (s *CheckoutService) Bill(ctx context.Context, current *ledger.Order) (*Bill, error) {
	if current != nil {
		return newBill(*current, true), nil
	}

	lines, err := s.cart.Lines(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrNothingToPrint
	}

	now := s.now()
	return newBill(ledger.Order{
		OrderID: fmt.Sprintf("%s%d", enum.OrderPrefixCart, now.UnixMilli()),
		Date:    now.UTC(),
		Items:   lines,
		Total:   cart.Total(lines),
	}, false), nil
}

func newBill(o ledger.Order, saved bool) *Bill {
	b := &Bill{
		OrderID: o.OrderID,
		Date:    o.Date,
		Total:   o.Total,
		Saved:   saved,
		Lines:   make([]BillLine, len(o.Items)),
	}
	for i, l := range o.Items {
		b.Lines[i] = BillLine{
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    l.Price,
			Amount:   l.Amount(),
		}
	}
	return b
}
