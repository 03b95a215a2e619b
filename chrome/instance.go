package chrome

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/porticus-lab/htmlbook/engine"
	"github.com/porticus-lab/htmlbook/internal/pdf"
)

// instance is one document laid out in its own browser tab.
type instance struct {
	e         *Engine
	id        string
	setup     engine.Setup
	tabCtx    context.Context
	tabCancel context.CancelFunc
	log       *zap.Logger

	meta      map[engine.Metadata]string
	pageCount int
	docWidth  float64
	docHeight float64
}

var _ engine.Instance = (*instance)(nil)

// run executes actions in the tab, bounded by ctx and the engine timeout.
func (in *instance) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(in.tabCtx)
	defer cancel()
	if in.e.cfg.timeout > 0 {
		var tcancel context.CancelFunc
		runCtx, tcancel = context.WithTimeout(runCtx, in.e.cfg.timeout)
		defer tcancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// viewportPixels returns the page content box in CSS pixels.
func (in *instance) viewportPixels() (width, height int64) {
	w := (in.setup.Size.Width - in.setup.Margins.Left - in.setup.Margins.Right) / engine.UnitsPX
	h := (in.setup.Size.Height - in.setup.Margins.Top - in.setup.Margins.Bottom) / engine.UnitsPX
	return max(int64(w), 1), max(int64(h), 1)
}

func (in *instance) SetMetadata(key engine.Metadata, value string) {
	in.meta[key] = value
}

func (in *instance) PageCount() int { return in.pageCount }

func (in *instance) DocumentWidth() float64  { return in.docWidth }
func (in *instance) DocumentHeight() float64 { return in.docHeight }

func (in *instance) ViewportWidth() float64 {
	return in.setup.Size.Width - in.setup.Margins.Left - in.setup.Margins.Right
}

func (in *instance) ViewportHeight() float64 {
	return in.setup.Size.Height - in.setup.Margins.Top - in.setup.Margins.Bottom
}

func (in *instance) Destroy() {
	in.tabCancel()
	in.log.Debug("tab closed", zap.String("instance", in.id))
}

// measure refreshes the document size and page count after a load.
func (in *instance) measure(ctx context.Context) error {
	var size struct {
		Width  float64 `json:"w"`
		Height float64 `json:"h"`
	}
	err := in.run(ctx, chromedp.Evaluate(
		`({w: document.documentElement.scrollWidth, h: document.documentElement.scrollHeight})`, &size))
	if err != nil {
		return err
	}
	in.docWidth = size.Width * engine.UnitsPX
	in.docHeight = size.Height * engine.UnitsPX

	data, err := in.print(ctx, "")
	if err != nil {
		return err
	}
	n, err := pdf.PageCount(data)
	if err != nil {
		return fmt.Errorf("counting pages: %w", err)
	}
	in.pageCount = n
	return nil
}

func (in *instance) LoadURL(ctx context.Context, rawURL string, opts engine.LoadOptions) error {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return fmt.Errorf("invalid URL %q", rawURL)
	}
	in.log.Debug("loading url", zap.String("instance", in.id), zap.String("url", rawURL))

	actions := []chromedp.Action{chromedp.Navigate(rawURL)}
	if opts.UserStyle != "" {
		actions = append(actions, chromedp.Evaluate(injectStyleScript(opts.UserStyle), nil))
	}
	return in.finishLoad(ctx, actions, opts)
}

func (in *instance) LoadHTML(ctx context.Context, content string, opts engine.LoadOptions) error {
	html, err := prepareHTML(content, opts.BaseURL, opts.UserStyle)
	if err != nil {
		return err
	}
	return in.setContent(ctx, html, opts)
}

func (in *instance) LoadXML(ctx context.Context, content string, opts engine.LoadOptions) error {
	mime := opts.MimeType
	if mime == "" {
		mime = "application/xml"
	}
	return in.loadDataURL(ctx, dataURL(mime, "utf-8", []byte(content)), opts)
}

func (in *instance) LoadData(ctx context.Context, data []byte, opts engine.LoadOptions) error {
	mime := opts.MimeType
	if mime == "" {
		mime = sniffType(data)
	}
	switch {
	case strings.HasPrefix(mime, "image/"):
		return in.LoadImage(ctx, data, opts)
	case mime == "text/html":
		text, err := decodeText(data, opts.TextEncoding)
		if err != nil {
			return err
		}
		return in.LoadHTML(ctx, text, opts)
	case strings.HasPrefix(mime, "text/") || strings.HasSuffix(mime, "xml"):
		text, err := decodeText(data, opts.TextEncoding)
		if err != nil {
			return err
		}
		return in.loadDataURL(ctx, dataURL(mime, "utf-8", []byte(text)), opts)
	}
	return in.loadDataURL(ctx, dataURL(mime, "", data), opts)
}

func (in *instance) LoadImage(ctx context.Context, data []byte, opts engine.LoadOptions) error {
	html, err := imageDocument(data, opts.MimeType)
	if err != nil {
		return err
	}
	opts.BaseURL = ""
	html, err = prepareHTML(html, "", opts.UserStyle)
	if err != nil {
		return err
	}
	return in.setContent(ctx, html, opts)
}

// setContent replaces the tab's document with html.
func (in *instance) setContent(ctx context.Context, html string, opts engine.LoadOptions) error {
	actions := []chromedp.Action{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
	}
	return in.finishLoad(ctx, actions, opts)
}

func (in *instance) loadDataURL(ctx context.Context, u string, opts engine.LoadOptions) error {
	actions := []chromedp.Action{chromedp.Navigate(u)}
	if opts.UserStyle != "" {
		actions = append(actions, chromedp.Evaluate(injectStyleScript(opts.UserStyle), nil))
	}
	return in.finishLoad(ctx, actions, opts)
}

// finishLoad runs the load actions, waits for fonts, runs the user script
// and measures the result.
func (in *instance) finishLoad(ctx context.Context, actions []chromedp.Action, opts engine.LoadOptions) error {
	actions = append(actions, chromedp.Evaluate(`document.fonts ? document.fonts.ready.then(() => true) : true`, nil,
		func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams { return p.WithAwaitPromise(true) }))
	if opts.UserScript != "" {
		actions = append(actions, chromedp.Evaluate(opts.UserScript, nil))
	}
	if err := in.run(ctx, actions...); err != nil {
		return err
	}
	return in.measure(ctx)
}

// print renders the tab to PDF. An empty ranges prints every page.
func (in *instance) print(ctx context.Context, ranges string) ([]byte, error) {
	s := in.setup
	params := page.PrintToPDF().
		WithPaperWidth(s.Size.Width / engine.UnitsIN).
		WithPaperHeight(s.Size.Height / engine.UnitsIN).
		WithMarginTop(s.Margins.Top / engine.UnitsIN).
		WithMarginRight(s.Margins.Right / engine.UnitsIN).
		WithMarginBottom(s.Margins.Bottom / engine.UnitsIN).
		WithMarginLeft(s.Margins.Left / engine.UnitsIN).
		WithPrintBackground(true)
	if ranges != "" {
		params = params.WithPageRanges(ranges)
	}

	var buf []byte
	err := in.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = params.Do(ctx)
		return err
	}))
	return buf, err
}

func (in *instance) WritePDF(ctx context.Context, w io.Writer, pageStart, pageEnd, pageStep int) error {
	pages, err := engine.PageSelection(pageStart, pageEnd, pageStep, in.pageCount)
	if err != nil {
		return err
	}
	ranges, err := pageRanges(pages)
	if err != nil {
		return err
	}
	data, err := in.print(ctx, ranges)
	if err != nil {
		return err
	}
	if len(in.meta) > 0 {
		if data, err = pdf.SetInfo(data, infoEntries(in.meta)); err != nil {
			return fmt.Errorf("writing metadata: %w", err)
		}
	}
	_, err = w.Write(data)
	return err
}

func (in *instance) WritePNG(ctx context.Context, w io.Writer, width, height int) error {
	var buf []byte
	if err := in.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return err
	}
	return resizePNG(w, buf, width, height)
}
