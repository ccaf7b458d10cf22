package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kiwari-pos/tiffin/internal/enum"
	"github.com/kiwari-pos/tiffin/internal/kvstore"
	"github.com/kiwari-pos/tiffin/internal/money"
	"github.com/shopspring/decimal"
)

// AmountPlaceholder is replaced by the order total in the payment link.
const AmountPlaceholder = "{amount}"

// DefaultPaymentLink is a UPI deep link used until the shop configures its own.
const DefaultPaymentLink = "UPI://pay?pa=your-upi-id@paytm&pn=Restaurant&am={amount}&cu=INR"

// ErrPaymentLinkRequired is returned when saving an empty payment link.
var ErrPaymentLinkRequired = errors.New("payment link is required")

// PaymentPayload substitutes the first {amount} in template with amount to
// two decimals. A template without the placeholder is returned unchanged.
func PaymentPayload(template string, amount decimal.Decimal) string {
	return strings.Replace(template, AmountPlaceholder, money.Fixed(amount), 1)
}

// PaymentSettings stores the payment link template.
type PaymentSettings struct {
	store kvstore.Store
	mu    sync.Mutex
}

// NewPaymentSettings creates PaymentSettings backed by store.
func NewPaymentSettings(store kvstore.Store) *PaymentSettings {
	return &PaymentSettings{store: store}
}

// PaymentLink returns the stored template, or DefaultPaymentLink when none is stored.
func (p *PaymentSettings) PaymentLink(ctx context.Context) (string, error) {
	link, ok, err := kvstore.Load[string](ctx, p.store, enum.KeyPaymentLink)
	if err != nil {
		return "", fmt.Errorf("load payment link: %w", err)
	}
	if !ok || link == "" {
		return DefaultPaymentLink, nil
	}
	return link, nil
}

// SetPaymentLink trims and stores link. Empty input is rejected.
func (p *PaymentSettings) SetPaymentLink(ctx context.Context, link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", ErrPaymentLinkRequired
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := kvstore.Save(ctx, p.store, enum.KeyPaymentLink, link); err != nil {
		return "", fmt.Errorf("save payment link: %w", err)
	}
	return link, nil
}

// EnsurePaymentLink stores DefaultPaymentLink when nothing usable is stored.
func (p *PaymentSettings) EnsurePaymentLink(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	link, ok, err := kvstore.Load[string](ctx, p.store, enum.KeyPaymentLink)
	if err != nil {
		return false, fmt.Errorf("load payment link: %w", err)
	}
	if ok && link != "" {
		return false, nil
	}
	if err := kvstore.Save(ctx, p.store, enum.KeyPaymentLink, DefaultPaymentLink); err != nil {
		return false, fmt.Errorf("save payment link: %w", err)
	}
	return true, nil
}
