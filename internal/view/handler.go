package view

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tiffin/internal/app"
	"github.com/kiwari-pos/tiffin/internal/cart"
	"github.com/kiwari-pos/tiffin/internal/catalog"
	"github.com/kiwari-pos/tiffin/internal/enum"
	"github.com/kiwari-pos/tiffin/internal/ledger"
	"github.com/kiwari-pos/tiffin/internal/middleware"
	"github.com/kiwari-pos/tiffin/internal/money"
	"github.com/kiwari-pos/tiffin/internal/qr"
	"github.com/kiwari-pos/tiffin/internal/service"
	"github.com/kiwari-pos/tiffin/internal/session"
	"github.com/shopspring/decimal"
)

// Publisher fans state changes out to open views. Satisfied by *ws.Hub.
type Publisher interface {
	Publish(eventType string, payload any)
}

// Flash messages shown after an action.
const (
	msgCartCleared    = "Cart cleared!"
	msgCartEmpty      = "Your cart is empty!"
	msgNothingToPrint = "No items to print!"
	msgItemAdded      = "Item added!"
	msgItemUpdated    = "Item updated!"
	msgItemDeleted    = "Item deleted!"
	msgItemNotFound   = "Item no longer exists!"
	msgRequiredFields = "Please fill in all required fields!"
	msgLinkRequired   = "Please enter a payment link!"
	msgLinkSaved      = "Payment info saved!"
)

// Handler serves the HTML screens and their form posts. Every action
// redirects back to a page, which re-reads the store.
type Handler struct {
	svc      *app.Services
	renderer *Renderer
	events   Publisher
	now      func() time.Time
}

// NewHandler creates a new Handler. events may be nil; now defaults to time.Now.
func NewHandler(svc *app.Services, renderer *Renderer, events Publisher, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{svc: svc, renderer: renderer, events: events, now: now}
}

// RegisterRoutes registers the UI routes. Requests must pass through
// middleware.Sessions.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Page)
	r.Get("/bill", h.Bill)
	r.Get("/qr.png", h.QR)

	r.Route("/ui", func(r chi.Router) {
		r.Post("/cart/add", h.AddToCart)
		r.Post("/cart/quantity", h.ChangeQuantity)
		r.Post("/cart/remove", h.RemoveFromCart)
		r.Post("/cart/clear", h.ClearCart)
		r.Post("/checkout", h.Checkout)

		r.Post("/menu/new", h.NewItem)
		r.Post("/menu/edit", h.EditItem)
		r.Post("/menu/cancel", h.CancelEdit)
		r.Post("/menu/save", h.SaveItem)
		r.Post("/menu/delete", h.DeleteItem)

		r.Post("/settings/payment-link", h.SavePaymentLink)
	})
}

// --- Pages ---

// Page renders the view named by ?view=. Unknown names fall back to ordering.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("view") == enum.ViewAdmin {
		h.adminPage(w, r, http.StatusOK, nil)
		return
	}
	h.orderingPage(w, r)
}

func (h *Handler) orderingPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)

	menu, err := h.svc.Catalog.List(ctx)
	if err != nil {
		h.fail(w, "list menu", err)
		return
	}
	lines, err := h.svc.Cart.Lines(ctx)
	if err != nil {
		h.fail(w, "read cart", err)
		return
	}

	page := orderingPage{
		meta:  meta{Title: "Menu", View: enum.ViewOrdering, Flash: sess.TakeFlash(), Live: true},
		Menu:  menu,
		Lines: lines,
		Total: cart.Total(lines),
	}
	for _, l := range lines {
		page.Count += l.Quantity
	}

	if r.URL.Query().Has("receipt") {
		if order := sess.CurrentOrder(); order != nil {
			link, err := h.svc.Payments.PaymentLink(ctx)
			if err != nil {
				h.fail(w, "read payment link", err)
				return
			}
			page.Receipt = &receipt{
				OrderID: order.OrderID,
				Total:   order.Total,
				Payload: service.PaymentPayload(link, order.Total),
				QRURL:   "/qr.png?amount=" + url.QueryEscape(money.Fixed(order.Total)),
			}
			// The modal stays up until the operator closes it
			page.Live = false
		}
	}

	if err := h.renderer.render(w, http.StatusOK, "ordering.gohtml", page); err != nil {
		h.fail(w, "render ordering view", err)
	}
}

// adminPage renders menu management, the sales report and payment settings.
// form overrides the item form, e.g. to redisplay rejected input.
func (h *Handler) adminPage(w http.ResponseWriter, r *http.Request, status int, form *itemForm) {
	ctx := r.Context()
	sess := sessionFrom(r)
	q := r.URL.Query()

	menu, err := h.svc.Catalog.List(ctx)
	if err != nil {
		h.fail(w, "list menu", err)
		return
	}

	if form == nil && q.Has("form") {
		form = &itemForm{}
		if id := sess.EditingItemID(); id != 0 {
			item, found, err := h.svc.Catalog.Get(ctx, id)
			if err != nil {
				h.fail(w, "get menu item", err)
				return
			}
			if found {
				form = formFromItem(item)
			} else {
				sess.StopEditing()
			}
		}
	}

	periods, err := h.svc.Ledger.Periods(ctx)
	if err != nil {
		h.fail(w, "list periods", err)
		return
	}
	filter := periods.DefaultFilter(h.now(), h.svc.Ledger.Location())
	if q.Has("month") || q.Has("year") {
		filter = ledger.Filter{Month: atoiRange(q.Get("month"), 1, 12), Year: atoiRange(q.Get("year"), 1, 9999)}
	}
	sales, err := h.svc.Ledger.Query(ctx, filter)
	if err != nil {
		h.fail(w, "query sales", err)
		return
	}

	link, err := h.svc.Payments.PaymentLink(ctx)
	if err != nil {
		h.fail(w, "read payment link", err)
		return
	}

	page := adminPage{
		meta:        meta{Title: "Admin", View: enum.ViewAdmin, Flash: sess.TakeFlash(), Live: form == nil},
		Menu:        menu,
		Form:        form,
		Sales:       sales,
		Stats:       ledger.Statistics(sales),
		Periods:     periods,
		Filter:      filter,
		PaymentLink: link,
	}
	if err := h.renderer.render(w, status, "admin.gohtml", page); err != nil {
		h.fail(w, "render admin view", err)
	}
}

// Bill renders the print layout for the session's current order, or the live
// cart when there is none. Rendering counts as printing and clears the
// current order.
func (h *Handler) Bill(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	bill, err := h.svc.Checkout.Bill(r.Context(), sess.CurrentOrder())
	if err != nil {
		if errors.Is(err, service.ErrNothingToPrint) {
			sess.Flash(msgNothingToPrint)
			redirect(w, r, enum.ViewOrdering)
			return
		}
		h.fail(w, "build bill", err)
		return
	}

	page := billPage{meta: meta{Title: "Bill " + bill.OrderID, Print: true}, Bill: bill}
	if err := h.renderer.render(w, http.StatusOK, "bill.gohtml", page); err != nil {
		h.fail(w, "render bill", err)
		return
	}
	sess.ClearCurrentOrder()
}

// QR serves the payment QR image for ?amount=.
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil || amount.IsNegative() {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}
	link, err := h.svc.Payments.PaymentLink(r.Context())
	if err != nil {
		h.fail(w, "read payment link", err)
		return
	}
	png, err := qr.PNG(service.PaymentPayload(link, amount), qr.DefaultSize)
	if err != nil {
		slog.Error("Failed to generate QR code", "error", err)
		http.Error(w, "Error generating QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// --- Cart actions ---

// AddToCart adds one unit of item_id. Unknown items are ignored.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	line, added, err := h.svc.Cart.Add(r.Context(), formInt(r, "item_id"))
	if err != nil {
		h.fail(w, "add to cart", err)
		return
	}
	if added {
		sessionFrom(r).Flash(line.Name + " added to cart!")
		h.publish(enum.EventCartUpdated)
	}
	redirect(w, r, enum.ViewOrdering)
}

// ChangeQuantity applies delta (+1/-1) to the line for item_id.
func (h *Handler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cart.ChangeQuantity(r.Context(), formInt(r, "item_id"), formInt(r, "delta")); err != nil {
		h.fail(w, "change quantity", err)
		return
	}
	h.publish(enum.EventCartUpdated)
	redirect(w, r, enum.ViewOrdering)
}

// RemoveFromCart drops the line for item_id.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cart.Remove(r.Context(), formInt(r, "item_id")); err != nil {
		h.fail(w, "remove from cart", err)
		return
	}
	h.publish(enum.EventCartUpdated)
	redirect(w, r, enum.ViewOrdering)
}

// ClearCart empties the cart. The page asks for confirmation before posting.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cart.Clear(r.Context()); err != nil {
		h.fail(w, "clear cart", err)
		return
	}
	sessionFrom(r).Flash(msgCartCleared)
	h.publish(enum.EventCartUpdated)
	redirect(w, r, enum.ViewOrdering)
}

// Checkout records the cart and opens the payment modal.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	receipt, err := h.svc.Checkout.Checkout(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			sess.Flash(msgCartEmpty)
			redirect(w, r, enum.ViewOrdering)
			return
		}
		h.fail(w, "checkout", err)
		return
	}

	sess.SetCurrentOrder(receipt.Order)
	h.publish(enum.EventOrderCompleted)
	http.Redirect(w, r, "/?view="+enum.ViewOrdering+"&receipt="+receipt.Order.OrderID, http.StatusSeeOther)
}

// --- Menu actions ---

// NewItem opens an empty item form.
func (h *Handler) NewItem(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).StartEditing(0)
	redirectForm(w, r)
}

// EditItem opens the form for item_id.
func (h *Handler) EditItem(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).StartEditing(formInt(r, "item_id"))
	redirectForm(w, r)
}

// CancelEdit closes the item form.
func (h *Handler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).StopEditing()
	redirect(w, r, enum.ViewAdmin)
}

// SaveItem creates or updates the item open in the form. Rejected input is
// redisplayed with the form still open.
func (h *Handler) SaveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)

	form := &itemForm{
		ID:          sess.EditingItemID(),
		Name:        r.FormValue("name"),
		Price:       strings.TrimSpace(r.FormValue("price")),
		Image:       r.FormValue("image"),
		Description: r.FormValue("description"),
	}
	price, err := decimal.NewFromString(form.Price)
	if err != nil {
		price = decimal.Zero
	}
	in := catalog.ItemInput{Name: form.Name, Price: price, Image: form.Image, Description: form.Description}

	if form.ID == 0 {
		_, err = h.svc.Catalog.Create(ctx, in)
		if err == nil {
			sess.Flash(msgItemAdded)
		}
	} else {
		var found bool
		_, found, err = h.svc.Catalog.Update(ctx, form.ID, in)
		if err == nil {
			if found {
				sess.Flash(msgItemUpdated)
			} else {
				sess.Flash(msgItemNotFound)
			}
		}
	}

	if err != nil {
		if isValidationError(err) {
			form.Error = msgRequiredFields
			h.adminPage(w, r, http.StatusBadRequest, form)
			return
		}
		h.fail(w, "save menu item", err)
		return
	}

	sess.StopEditing()
	h.publish(enum.EventMenuUpdated)
	redirect(w, r, enum.ViewAdmin)
}

// DeleteItem removes item_id. The page asks for confirmation before posting.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := formInt(r, "item_id")

	if err := h.svc.Catalog.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete menu item", err)
		return
	}
	if sess.EditingItemID() == id {
		sess.StopEditing()
	}
	sess.Flash(msgItemDeleted)
	h.publish(enum.EventMenuUpdated)
	redirect(w, r, enum.ViewAdmin)
}

// --- Settings actions ---

// SavePaymentLink stores the payment_link template.
func (h *Handler) SavePaymentLink(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	if _, err := h.svc.Payments.SetPaymentLink(r.Context(), r.FormValue("payment_link")); err != nil {
		if errors.Is(err, service.ErrPaymentLinkRequired) {
			sess.Flash(msgLinkRequired)
			redirect(w, r, enum.ViewAdmin)
			return
		}
		h.fail(w, "save payment link", err)
		return
	}
	sess.Flash(msgLinkSaved)
	redirect(w, r, enum.ViewAdmin)
}

// --- Helpers ---

func (h *Handler) publish(eventType string) {
	if h.events != nil {
		h.events.Publish(eventType, nil)
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	slog.Error("View request failed", "op", op, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// sessionFrom returns the request's session. Without the Sessions middleware
// it hands out a throwaway session so handlers never see nil.
func sessionFrom(r *http.Request) *session.Session {
	if s := middleware.SessionFromContext(r.Context()); s != nil {
		return s
	}
	return &session.Session{}
}

func redirect(w http.ResponseWriter, r *http.Request, view string) {
	http.Redirect(w, r, "/?view="+view, http.StatusSeeOther)
}

func redirectForm(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, fmt.Sprintf("/?view=%s&form=1", enum.ViewAdmin), http.StatusSeeOther)
}

func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	return n
}

// atoiRange parses s, returning 0 (unset) when it is not a number in [lo, hi].
func atoiRange(s string, lo, hi int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0
	}
	return n
}

func formFromItem(m catalog.MenuItem) *itemForm {
	return &itemForm{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price.String(),
		Image:       m.Image,
		Description: m.Description,
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, catalog.ErrNameRequired) ||
		errors.Is(err, catalog.ErrPriceRequired) ||
		errors.Is(err, catalog.ErrImageRequired)
}
