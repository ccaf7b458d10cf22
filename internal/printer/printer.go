// Package printer renders bill HTML to PDF with a headless Chromium.
package printer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrEmptyDocument is returned when there is nothing to render.
var ErrEmptyDocument = errors.New("empty document")

// Chromium launches a browser per render. Bills are printed rarely, so no
// browser is kept alive between calls.
type Chromium struct {
	bin string
}

// NewChromium uses the browser at bin, or lets rod locate or download one when
// bin is empty.
func NewChromium(bin string) *Chromium {
	return &Chromium{bin: bin}
}

// RenderPDF loads html into a blank page and prints it to PDF, honoring the
// document's @page size.
func (c *Chromium) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if html == "" {
		return nil, ErrEmptyDocument
	}

	l := launcher.New().Headless(true).Leakless(false)
	if c.bin != "" {
		l = l.Bin(c.bin)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Kill()

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return data, nil
}
