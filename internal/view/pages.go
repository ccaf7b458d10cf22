package view

import (
	"github.com/kiwari-pos/tiffin/internal/cart"
	"github.com/kiwari-pos/tiffin/internal/catalog"
	"github.com/kiwari-pos/tiffin/internal/ledger"
	"github.com/kiwari-pos/tiffin/internal/service"
	"github.com/shopspring/decimal"
)

// meta is shared by every page.
type meta struct {
	Title string
	View  string
	Flash string
	// Live pages reload when the websocket reports a change.
	Live bool
	// Print pages drop the navigation and open the print dialog.
	Print bool
}

type orderingPage struct {
	meta
	Menu    []catalog.MenuItem
	Lines   []cart.Line
	Total   decimal.Decimal
	Count   int
	Receipt *receipt
}

// receipt drives the payment modal shown right after checkout.
type receipt struct {
	OrderID string
	Total   decimal.Decimal
	Payload string
	QRURL   string
}

type adminPage struct {
	meta
	Menu        []catalog.MenuItem
	Form        *itemForm
	Sales       []ledger.Order
	Stats       ledger.Stats
	Periods     ledger.Periods
	Filter      ledger.Filter
	PaymentLink string
	LinkError   string
}

// itemForm is the add/edit menu item form. ID zero means a new item.
type itemForm struct {
	ID          int
	Name        string
	Price       string
	Image       string
	Description string
	Error       string
}

func (f *itemForm) Editing() bool { return f.ID != 0 }

type billPage struct {
	meta
	Bill *service.Bill
}
