package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tiffin/internal/enum"
	"github.com/kiwari-pos/tiffin/internal/ledger"
	"github.com/kiwari-pos/tiffin/internal/middleware"
	"github.com/kiwari-pos/tiffin/internal/money"
	"github.com/kiwari-pos/tiffin/internal/qr"
	"github.com/kiwari-pos/tiffin/internal/service"
	"github.com/shopspring/decimal"
)

// Checkouter defines the checkout service methods needed by handlers.
// Satisfied by *service.CheckoutService.
type Checkouter interface {
	Checkout(ctx context.Context) (*service.Receipt, error)
	Bill(ctx context.Context, current *ledger.Order) (*service.Bill, error)
}

// BillRenderer writes the printable HTML of a bill. Satisfied by *view.Renderer.
type BillRenderer interface {
	RenderBill(w io.Writer, bill *service.Bill) error
}

// PDFRenderer turns an HTML document into PDF bytes. Satisfied by *printer.Chromium.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// CheckoutHandler handles checkout, bills and payment QR codes.
type CheckoutHandler struct {
	svc    Checkouter
	links  service.PaymentLinks
	bills  BillRenderer
	pdf    PDFRenderer
	events Publisher
}

// NewCheckoutHandler creates a new CheckoutHandler. pdf and events may be nil.
func NewCheckoutHandler(svc Checkouter, links service.PaymentLinks, bills BillRenderer, pdf PDFRenderer, events Publisher) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, links: links, bills: bills, pdf: pdf, events: orNop(events)}
}

// RegisterRoutes registers checkout endpoints on the /api router.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/checkout", h.Checkout)
	r.Get("/bill", h.Bill)
	r.Get("/bill.pdf", h.BillPDF)
	r.Get("/payments/qr", h.QR)
}

// --- Response types ---

type checkoutResponse struct {
	Order   orderResponse `json:"order"`
	Payload string        `json:"payload"`
	QRURL   string        `json:"qrUrl"`
}

type billLineResponse struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Amount   string `json:"amount"`
}

type billResponse struct {
	OrderID string             `json:"orderId"`
	Date    string             `json:"date"`
	Saved   bool               `json:"saved"`
	Items   []billLineResponse `json:"items"`
	Total   string             `json:"total"`
}

func toBillResponse(b *service.Bill) billResponse {
	items := make([]billLineResponse, len(b.Lines))
	for i, l := range b.Lines {
		items[i] = billLineResponse{
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    money.Fixed(l.Price),
			Amount:   money.Fixed(l.Amount),
		}
	}
	return billResponse{
		OrderID: b.OrderID,
		Date:    b.Date.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Saved:   b.Saved,
		Items:   items,
		Total:   money.Fixed(b.Total),
	}
}

// QRPath is the image URL for a payment QR of amount.
func QRPath(amount decimal.Decimal) string {
	return "/api/payments/qr?amount=" + url.QueryEscape(money.Fixed(amount))
}

// --- Handlers ---

// Checkout records the cart as an order and returns the payment payload.
// The order becomes the session's current order for printing.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.svc.Checkout(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w, "checkout", err)
		return
	}

	if s := middleware.SessionFromContext(r.Context()); s != nil {
		s.SetCurrentOrder(receipt.Order)
	}

	resp := checkoutResponse{
		Order:   toOrderResponse(receipt.Order),
		Payload: receipt.Payload,
		QRURL:   QRPath(receipt.Order.Total),
	}
	h.events.Publish(enum.EventOrderCompleted, resp.Order)
	writeJSON(w, http.StatusCreated, resp)
}

// Bill returns the session's current order, or the live cart when none is set.
func (h *CheckoutHandler) Bill(w http.ResponseWriter, r *http.Request) {
	bill, ok := h.bill(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBillResponse(bill))
}

// BillPDF renders the bill to PDF. Printing clears the session's current order.
func (h *CheckoutHandler) BillPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		writeError(w, http.StatusNotImplemented, "pdf rendering is disabled")
		return
	}

	bill, ok := h.bill(w, r)
	if !ok {
		return
	}

	var html bytes.Buffer
	if err := h.bills.RenderBill(&html, bill); err != nil {
		internalError(w, "render bill html", err)
		return
	}
	data, err := h.pdf.RenderPDF(r.Context(), html.String())
	if err != nil {
		internalError(w, "render bill pdf", err)
		return
	}

	if s := middleware.SessionFromContext(r.Context()); s != nil {
		s.ClearCurrentOrder()
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "bill-"+bill.OrderID+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// QR renders the payment QR for ?amount= using the stored payment link.
func (h *CheckoutHandler) QR(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	link, err := h.links.PaymentLink(r.Context())
	if err != nil {
		internalError(w, "read payment link", err)
		return
	}

	png, err := qr.PNG(service.PaymentPayload(link, amount), qr.DefaultSize)
	if err != nil {
		internalError(w, "render qr", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *CheckoutHandler) bill(w http.ResponseWriter, r *http.Request) (*service.Bill, bool) {
	var current *ledger.Order
	if s := middleware.SessionFromContext(r.Context()); s != nil {
		current = s.CurrentOrder()
	}

	bill, err := h.svc.Bill(r.Context(), current)
	if err != nil {
		if errors.Is(err, service.ErrNothingToPrint) {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		internalError(w, "build bill", err)
		return nil, false
	}
	return bill, true
}
