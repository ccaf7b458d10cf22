// Package view serves the server-rendered ordering and admin screens.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kiwari-pos/tiffin/internal/money"
	"github.com/kiwari-pos/tiffin/internal/service"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var pages = []string{"ordering.gohtml", "admin.gohtml", "bill.gohtml"}

var monthNames = [...]string{"", "January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

// Renderer executes the page templates. Each page is parsed together with the
// shared layout so every page can define its own content block.
type Renderer struct {
	pages map[string]*template.Template
	loc   *time.Location
}

// NewRenderer parses the embedded templates. Amounts are shown with f's
// symbol and dates in loc.
func NewRenderer(f *money.Formatter, loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.Local
	}
	funcs := template.FuncMap{
		"money":     func(d decimal.Decimal) string { return f.Format(d) },
		"fixed":     money.Fixed,
		"symbol":    f.Symbol,
		"monthName": monthName,
		"localTime": func(t time.Time) string { return t.In(loc).Format("02 Jan 2006, 3:04 PM") },
		"localDate": func(t time.Time) string { return t.In(loc).Format("02 Jan 2006") },
	}

	base, err := template.New("layout.gohtml").Funcs(funcs).ParseFS(templateFS, "templates/layout.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pages)), loc: loc}
	for _, name := range pages {
		t, err := template.Must(base.Clone()).ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// RenderBill writes the standalone print layout of b.
func (r *Renderer) RenderBill(w io.Writer, b *service.Bill) error {
	return r.execute(w, "bill.gohtml", billPage{meta: meta{Title: "Bill " + b.OrderID, Print: true}, Bill: b})
}

func (r *Renderer) execute(w io.Writer, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// render buffers the page so a template failure never leaves a half-written
// response. A returned error means nothing was written to w.
func (r *Renderer) render(w http.ResponseWriter, status int, page string, data any) error {
	var buf bytes.Buffer
	if err := r.execute(&buf, page, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("Failed to write page", "page", page, "error", err)
	}
	return nil
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m]
}
