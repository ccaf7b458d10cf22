package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/kiwari-pos/tiffin/internal/catalog"
	"github.com/kiwari-pos/tiffin/internal/enum"
	"github.com/kiwari-pos/tiffin/internal/kvstore"
	"github.com/shopspring/decimal"
)

// --- Mock lookup ---

type mockLookup struct {
	items map[int]catalog.MenuItem
	err   error
}

func (m *mockLookup) Get(_ context.Context, id int) (catalog.MenuItem, bool, error) {
	if m.err != nil {
		return catalog.MenuItem{}, false, m.err
	}
	it, ok := m.items[id]
	return it, ok, nil
}

func newTestCart() (*Cart, *kvstore.MemoryStore, *mockLookup) {
	store := kvstore.NewMemory()
	lookup := &mockLookup{items: map[int]catalog.MenuItem{
		1: {ID: 1, Name: "Idly", Price: decimal.NewFromInt(25)},
		4: {ID: 4, Name: "Coffee", Price: decimal.NewFromInt(15)},
	}}
	return New(store, lookup), store, lookup
}

func TestAdd_NewLine(t *testing.T) {
	c, _, _ := newTestCart()
	ctx := context.Background()

	line, ok, err := c.Add(ctx, 1)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !ok {
		t.Fatal("expected item to be added")
	}
	if line.Name != "Idly" || line.Quantity != 1 {
		t.Errorf("unexpected line: %+v", line)
	}
}

func TestAdd_TwiceIncrementsSingleLine(t *testing.T) {
	c, _, _ := newTestCart()
	ctx := context.Background()

	_, _, _ = c.Add(ctx, 1)
	line, _, err := c.Add(ctx, 1)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if line.Quantity != 2 {
		t.Errorf("quantity: got %d, want 2", line.Quantity)
	}

	lines, _ := c.Lines(ctx)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Errorf("stored quantity: got %d, want 2", lines[0].Quantity)
	}
}

func TestAdd_UnknownItemIgnored(t *testing.T) {
	c, _, _ := newTestCart()
	ctx := context.Background()

	_, ok, err := c.Add(ctx, 42)
	if err != nil {
		t.Fatalf("Add must not fail for unknown items: %v", err)
	}
	if ok {
		t.Error("expected ok=false for unknown item")
	}
	lines, _ := c.Lines(ctx)
	if len(lines) != 0 {
		t.Errorf("cart should stay empty, got %+v", lines)
	}
}

func TestAdd_LookupError(t *testing.T) {
	c, _, lookup := newTestCart()
	lookup.err = errors.New("boom")
	if _, _, err := c.Add(context.Background(), 1); err == nil {
		t.Fatal("expected lookup error to propagate")
	}
}

func TestAdd_CopiesPriceAtAddTime(t *testing.T) {
	c, _, lookup := newTestCart()
	ctx := context.Background()

	_, _, _ = c.Add(ctx, 1)
	lookup.items[1] = catalog.MenuItem{ID: 1, Name: "Idly", Price: decimal.NewFromInt(99)}
	_, _, _ = c.Add(ctx, 1)

	lines, _ := c.Lines(ctx)
	if !lines[0].Price.Equal(decimal.NewFromInt(25)) {
		t.Errorf("price changed after add: %s", lines[0].Price)
	}
}

func TestChangeQuantity(t *testing.T) {
	c, _, _ := newTestCart()
	ctx := context.Background()
	_, _, _ = c.Add(ctx, 1)
	_, _, _ = c.Add(ctx, 4)

	if err := c.ChangeQuantity(ctx, 1, 1); err != nil {
		t.Fatalf("ChangeQuantity: %v", err)
	}
	total, _ := c.Total(ctx)
	if !total.Equal(decimal.NewFromInt(65)) {
		t.Errorf("total: got %s, want 65", total)
	}

	// quantity 1 -> 0 removes the Coffee line.
	if err := c.ChangeQuantity(ctx, 4, -1); err != nil {
		t.Fatalf("ChangeQuantity: %v", err)
	}
	lines, _ := c.Lines(ctx)
	if len(lines) != 1 || lines[0].ItemID != 1 {
		t.Fatalf("expected only the Idly line, got %+v", lines)
	}
	total, _ = c.Total(ctx)
	if !total.Equal(decimal.NewFromInt(50)) {
		t.Errorf("total after removal: got %s, want 50", total)
	}
}

func TestChangeQuantity_BelowZeroRemoves(t *testing.T) {
	c, _, _ := newTestCart()
	ctx := context.Background()
	_, _, _ = c.Add(ctx, 1)

	if err := c.ChangeQuantity(ctx, 1, -5); err != nil {
		t.Fatalf("ChangeQuantity: %v", err)
	}
	lines, _ := c.Lines(ctx)
	if len(lines) != 0 {
		t.Errorf("expected empty cart, got %+v", lines)
	}
}

func TestChangeQuantity_MissingLineNoop(t *testing.T) {
	c, _, _ := newTestCart()
	ctx := context.Background()
	_, _, _ = c.Add(ctx, 1)

	if err := c.ChangeQuantity(ctx, 4, 1); err != nil {
		t.Fatalf("ChangeQuantity: %v", err)
	}
	lines, _ := c.Lines(ctx)
	if len(lines) != 1 {
		t.Errorf("missing line must not be created, got %+v", lines)
	}
}

func TestRemoveAndClear(t *testing.T) {
	c, _, _ := newTestCart()
	ctx := context.Background()
	_, _, _ = c.Add(ctx, 1)
	_, _, _ = c.Add(ctx, 4)

	if err := c.Remove(ctx, 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := c.Remove(ctx, 1); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	lines, _ := c.Lines(ctx)
	if len(lines) != 1 || lines[0].ItemID != 4 {
		t.Fatalf("unexpected lines: %+v", lines)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	lines, _ = c.Lines(ctx)
	if len(lines) != 0 {
		t.Errorf("expected empty cart, got %+v", lines)
	}
}

func TestLines_UndecodableCartIsEmpty(t *testing.T) {
	c, store, _ := newTestCart()
	ctx := context.Background()
	_ = store.Set(ctx, enum.KeyCart, []byte("{{{"))

	lines, err := c.Lines(ctx)
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected empty cart, got %+v", lines)
	}

	// The cart is usable again after a write.
	if _, _, err := c.Add(ctx, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	lines, _ = c.Lines(ctx)
	if len(lines) != 1 {
		t.Errorf("expected one line, got %d", len(lines))
	}
}

func TestLines_ReadsBrowserDocument(t *testing.T) {
	c, store, _ := newTestCart()
	ctx := context.Background()
	doc := `[{"itemId":1,"name":"Idly","price":25,"quantity":2},{"itemId":4,"name":"Coffee","price":15,"quantity":1}]`
	_ = store.Set(ctx, enum.KeyCart, []byte(doc))

	total, err := c.Total(ctx)
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if total.StringFixed(2) != "65.00" {
		t.Errorf("total: got %s, want 65.00", total.StringFixed(2))
	}
}

func TestTotal_Empty(t *testing.T) {
	if !Total(nil).IsZero() {
		t.Error("empty total should be zero")
	}
}
