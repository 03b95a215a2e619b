// Package enginetest provides an in-memory engine for tests.
//
// The fake lays content out without a browser: every form feed character
// in loaded text starts a new page, and each page is one viewport tall.
// Its PDF and PNG output is small but well formed.
package enginetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/porticus-lab/htmlbook/engine"
)

// UnreachableHost is a host name whose URLs always fail to load.
const UnreachableHost = "unreachable.invalid"

// Engine is a fake engine.Engine.
type Engine struct {
	// NewErr, when set, is returned by NewInstance.
	NewErr error

	mu        sync.Mutex
	instances []*Instance
	destroyed atomic.Int64
}

var _ engine.Engine = (*Engine)(nil)

// New returns a fake engine.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) Version() string   { return "enginetest/1.0" }
func (e *Engine) BuildInfo() string { return "enginetest 1.0 (in-memory)" }

// NewInstance creates a fake instance.
func (e *Engine) NewInstance(ctx context.Context, setup engine.Setup) (engine.Instance, error) {
	if e.NewErr != nil {
		return nil, e.NewErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in := &Instance{
		e:        e,
		Setup:    setup,
		Metadata: make(map[engine.Metadata]string),
		pages:    1,
	}
	in.docWidth = in.ViewportWidth()
	in.docHeight = in.ViewportHeight()

	e.mu.Lock()
	e.instances = append(e.instances, in)
	e.mu.Unlock()
	return in, nil
}

// Instances returns every instance created so far.
func (e *Engine) Instances() []*Instance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Instance(nil), e.instances...)
}

// Destroyed returns how many times Destroy has been called on instances of e.
func (e *Engine) Destroyed() int {
	return int(e.destroyed.Load())
}

// Load records one successful load call.
type Load struct {
	Method  string
	Content string
	Options engine.LoadOptions
}

// Instance is a fake engine.Instance.
type Instance struct {
	Setup    engine.Setup
	Metadata map[engine.Metadata]string
	Loads    []Load

	e         *Engine
	pages     int
	docWidth  float64
	docHeight float64
}

var _ engine.Instance = (*Instance)(nil)

func (in *Instance) SetMetadata(key engine.Metadata, value string) {
	in.Metadata[key] = value
}

func (in *Instance) PageCount() int          { return in.pages }
func (in *Instance) DocumentWidth() float64  { return in.docWidth }
func (in *Instance) DocumentHeight() float64 { return in.docHeight }

func (in *Instance) ViewportWidth() float64 {
	return in.Setup.Size.Width - in.Setup.Margins.Left - in.Setup.Margins.Right
}

func (in *Instance) ViewportHeight() float64 {
	return in.Setup.Size.Height - in.Setup.Margins.Top - in.Setup.Margins.Bottom
}

func (in *Instance) Destroy() {
	in.e.destroyed.Add(1)
}

func (in *Instance) layoutText(method, content string, opts engine.LoadOptions) {
	in.pages = 1 + strings.Count(content+opts.UserStyle+opts.UserScript, "\f")
	in.docWidth = in.ViewportWidth()
	in.docHeight = float64(in.pages) * in.ViewportHeight()
	in.Loads = append(in.Loads, Load{Method: method, Content: content, Options: opts})
}

func (in *Instance) LoadURL(ctx context.Context, rawURL string, opts engine.LoadOptions) error {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q", rawURL)
	}
	if u.Hostname() == UnreachableHost {
		return errors.New("net::ERR_NAME_NOT_RESOLVED")
	}
	in.layoutText("loadUrl", rawURL, opts)
	return nil
}

func (in *Instance) LoadHTML(ctx context.Context, content string, opts engine.LoadOptions) error {
	in.layoutText("loadHtml", content, opts)
	return nil
}

func (in *Instance) LoadXML(ctx context.Context, content string, opts engine.LoadOptions) error {
	if !strings.HasPrefix(strings.TrimSpace(content), "<") {
		return errors.New("XML parse error: start tag expected")
	}
	in.layoutText("loadXml", content, opts)
	return nil
}

func (in *Instance) LoadData(ctx context.Context, data []byte, opts engine.LoadOptions) error {
	if strings.HasPrefix(opts.MimeType, "image/") {
		return in.LoadImage(ctx, data, opts)
	}
	if opts.TextEncoding != "" && !strings.EqualFold(opts.TextEncoding, "utf-8") {
		return fmt.Errorf("unsupported text encoding %q", opts.TextEncoding)
	}
	in.layoutText("loadData", string(data), opts)
	return nil
}

func (in *Instance) LoadImage(ctx context.Context, data []byte, opts engine.LoadOptions) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unsupported image data: %w", err)
	}
	in.pages = 1
	in.docWidth = float64(cfg.Width) * engine.UnitsPX
	in.docHeight = float64(cfg.Height) * engine.UnitsPX
	in.Loads = append(in.Loads, Load{Method: "loadImage", Options: opts})
	return nil
}

// WritePDF writes a PDF with one empty page per selected page. Each object
// is a separate Write call.
func (in *Instance) WritePDF(ctx context.Context, w io.Writer, pageStart, pageEnd, pageStep int) error {
	pages, err := engine.PageSelection(pageStart, pageEnd, pageStep, in.pages)
	if err != nil {
		return err
	}
	return writePDF(w, len(pages), in.Setup.Size, in.Metadata)
}

// WritePNG writes a PNG of the document's size in CSS pixels, or the
// requested size.
func (in *Instance) WritePNG(ctx context.Context, w io.Writer, width, height int) error {
	natW := max(1, int(in.docWidth/engine.UnitsPX))
	natH := max(1, int(in.docHeight/engine.UnitsPX))
	width, height, err := engine.ImageSize(natW, natH, width, height)
	if err != nil {
		return err
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return png.Encode(w, img)
}
