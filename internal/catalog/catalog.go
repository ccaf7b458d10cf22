// Package catalog owns the list of sellable menu items.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kiwari-pos/tiffin/internal/enum"
	"github.com/kiwari-pos/tiffin/internal/kvstore"
	"github.com/shopspring/decimal"
)

// Errors returned by item validation.
var (
	ErrNameRequired  = errors.New("name is required")
	ErrPriceRequired = errors.New("price must be > 0")
	ErrImageRequired = errors.New("image is required")
)

// MenuItem is a sellable item. Field names match the persisted document.
type MenuItem struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description,omitempty"`
}

// ItemInput carries the editable fields of a MenuItem.
type ItemInput struct {
	Name        string
	Price       decimal.Decimal
	Image       string
	Description string
}

// Validate trims the text fields and checks the required ones.
func (in *ItemInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Image = strings.TrimSpace(in.Image)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return ErrNameRequired
	}
	if !in.Price.IsPositive() {
		return ErrPriceRequired
	}
	if in.Image == "" {
		return ErrImageRequired
	}
	return nil
}

// Catalog reads and writes the menu document.
type Catalog struct {
	store kvstore.Store
	mu    sync.Mutex
}

// New creates a Catalog backed by store.
func New(store kvstore.Store) *Catalog {
	return &Catalog{store: store}
}

// Initialize seeds the default menu when the stored catalog is empty.
// It reports whether seeding happened.
func (c *Catalog) Initialize(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return false, err
	}
	if len(items) > 0 {
		return false, nil
	}
	if err := c.save(ctx, DefaultItems()); err != nil {
		return false, err
	}
	return true, nil
}

// List returns every item in storage order.
func (c *Catalog) List(ctx context.Context) ([]MenuItem, error) {
	return c.load(ctx)
}

// Get looks up an item by id.
func (c *Catalog) Get(ctx context.Context, id int) (MenuItem, bool, error) {
	items, err := c.load(ctx)
	if err != nil {
		return MenuItem{}, false, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, true, nil
		}
	}
	return MenuItem{}, false, nil
}

// Create validates in and appends a new item with id = max(ids)+1.
func (c *Catalog) Create(ctx context.Context, in ItemInput) (MenuItem, error) {
	if err := in.Validate(); err != nil {
		return MenuItem{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return MenuItem{}, err
	}

	item := MenuItem{
		ID:          nextID(items),
		Name:        in.Name,
		Price:       in.Price,
		Image:       in.Image,
		Description: in.Description,
	}
	if err := c.save(ctx, append(items, item)); err != nil {
		return MenuItem{}, err
	}
	return item, nil
}

// Update replaces the item with the given id wholesale.
// ok is false (and nothing is written) when no such item exists.
func (c *Catalog) Update(ctx context.Context, id int, in ItemInput) (MenuItem, bool, error) {
	if err := in.Validate(); err != nil {
		return MenuItem{}, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return MenuItem{}, false, err
	}

	for i := range items {
		if items[i].ID != id {
			continue
		}
		items[i] = MenuItem{
			ID:          id,
			Name:        in.Name,
			Price:       in.Price,
			Image:       in.Image,
			Description: in.Description,
		}
		if err := c.save(ctx, items); err != nil {
			return MenuItem{}, false, err
		}
		return items[i], true, nil
	}
	return MenuItem{}, false, nil
}

// Delete removes the item with the given id. Absent ids are not an error.
func (c *Catalog) Delete(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	return c.save(ctx, kept)
}

func (c *Catalog) load(ctx context.Context) ([]MenuItem, error) {
	items, _, err := kvstore.Load[[]MenuItem](ctx, c.store, enum.KeyMenuItems)
	if err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	return items, nil
}

func (c *Catalog) save(ctx context.Context, items []MenuItem) error {
	if items == nil {
		items = []MenuItem{}
	}
	if err := kvstore.Save(ctx, c.store, enum.KeyMenuItems, items); err != nil {
		return fmt.Errorf("save menu: %w", err)
	}
	return nil
}

func nextID(items []MenuItem) int {
	maxID := 0
	for _, it := range items {
		if it.ID > maxID {
			maxID = it.ID
		}
	}
	return maxID + 1
}
