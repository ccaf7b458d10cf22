// Package cart owns the in-progress order.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/kiwari-pos/tiffin/internal/catalog"
	"github.com/kiwari-pos/tiffin/internal/enum"
	"github.com/kiwari-pos/tiffin/internal/kvstore"
	"github.com/shopspring/decimal"
)

// Line is one item in the cart. Name and price are copied from the catalog
// when the line is created, so later catalog edits do not reach it.
type Line struct {
	ItemID   int             `json:"itemId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Amount is price x quantity.
func (l Line) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums the amounts of lines. No tax, discount or rounding is applied.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount())
	}
	return total
}

// ItemLookup finds catalog items. Satisfied by *catalog.Catalog.
type ItemLookup interface {
	Get(ctx context.Context, id int) (catalog.MenuItem, bool, error)
}

// Cart reads and writes the cart document.
type Cart struct {
	store kvstore.Store
	items ItemLookup
	mu    sync.Mutex
}

// New creates a Cart that resolves item ids through items.
func New(store kvstore.Store, items ItemLookup) *Cart {
	return &Cart{store: store, items: items}
}

// Lines returns the current cart lines.
func (c *Cart) Lines(ctx context.Context) ([]Line, error) {
	return c.load(ctx)
}

// Total returns the sum over the current lines.
func (c *Cart) Total(ctx context.Context) (decimal.Decimal, error) {
	lines, err := c.load(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return Total(lines), nil
}

// Add puts one unit of the catalog item into the cart.
// An unknown item id is ignored: ok is false and the cart is left untouched.
func (c *Cart) Add(ctx context.Context, itemID int) (Line, bool, error) {
	item, found, err := c.items.Get(ctx, itemID)
	if err != nil {
		return Line{}, false, err
	}
	if !found {
		return Line{}, false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lines, err := c.load(ctx)
	if err != nil {
		return Line{}, false, err
	}

	idx := indexOf(lines, itemID)
	if idx >= 0 {
		lines[idx].Quantity++
	} else {
		lines = append(lines, Line{
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: 1,
		})
		idx = len(lines) - 1
	}

	if err := c.save(ctx, lines); err != nil {
		return Line{}, false, err
	}
	return lines[idx], true, nil
}

// ChangeQuantity adds delta to the line's quantity and drops the line when the
// result is zero or less. A missing line is left alone.
func (c *Cart) ChangeQuantity(ctx context.Context, itemID, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines, err := c.load(ctx)
	if err != nil {
		return err
	}

	idx := indexOf(lines, itemID)
	if idx < 0 {
		return nil
	}

	lines[idx].Quantity += delta
	if lines[idx].Quantity <= 0 {
		lines = append(lines[:idx], lines[idx+1:]...)
	}
	return c.save(ctx, lines)
}

// Remove drops the line for itemID.
func (c *Cart) Remove(ctx context.Context, itemID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines, err := c.load(ctx)
	if err != nil {
		return err
	}

	kept := lines[:0]
	for _, l := range lines {
		if l.ItemID != itemID {
			kept = append(kept, l)
		}
	}
	return c.save(ctx, kept)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, nil)
}

func (c *Cart) load(ctx context.Context) ([]Line, error) {
	lines, _, err := kvstore.Load[[]Line](ctx, c.store, enum.KeyCart)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return lines, nil
}

func (c *Cart) save(ctx context.Context, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	if err := kvstore.Save(ctx, c.store, enum.KeyCart, lines); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func indexOf(lines []Line, itemID int) int {
	for i, l := range lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}
