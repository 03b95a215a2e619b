package htmlbook_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/porticus-lab/htmlbook"
	"github.com/porticus-lab/htmlbook/engine"
	"github.com/porticus-lab/htmlbook/internal/enginetest"
	"github.com/porticus-lab/htmlbook/internal/pdf"
	"github.com/porticus-lab/htmlbook/props"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newTestDocument(t *testing.T, cfg htmlbook.Config, opts ...htmlbook.Option) (*htmlbook.Document, *enginetest.Engine) {
	t.Helper()
	e := enginetest.New()
	d, err := htmlbook.New(context.Background(), cfg, append([]htmlbook.Option{htmlbook.WithEngine(e)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d, e
}

func TestNew_PassesSetupAndMetadata(t *testing.T) {
	cfg := htmlbook.DefaultConfig()
	cfg.Size = htmlbook.Letter
	cfg.Media = htmlbook.Screen
	cfg.Title = "Quarterly"
	cfg.CreationDate = time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)

	d, e := newTestDocument(t, cfg)
	inst := e.Instances()[0]
	if inst.Setup.Size != htmlbook.Letter || inst.Setup.Media != htmlbook.Screen {
		t.Errorf("setup = %+v", inst.Setup)
	}
	if len(inst.Metadata) != 2 {
		t.Errorf("metadata = %v, want title and creation date", inst.Metadata)
	}
	for k, v := range inst.Metadata {
		switch k.Key() {
		case "Title":
			if v != "Quarterly" {
				t.Errorf("Title = %q", v)
			}
		case "CreationDate":
			if v != "2024-02-29T12:00:00Z" {
				t.Errorf("CreationDate = %q", v)
			}
		default:
			t.Errorf("unexpected metadata %v = %q", k, v)
		}
	}
	if d.Config() != cfg {
		t.Errorf("Config() = %+v, want %+v", d.Config(), cfg)
	}
}

func TestFromOptions_EmptyTitle(t *testing.T) {
	e := enginetest.New()
	d, err := htmlbook.FromOptions(context.Background(), props.Map{"title": ""}, htmlbook.WithEngine(e))
	if err != nil {
		t.Fatalf("FromOptions: %v", err)
	}
	defer d.Close()

	title, ok := e.Instances()[0].Metadata[engine.Title]
	if !ok || title != "" {
		t.Errorf("Title = %q, %v; want an explicit empty title", title, ok)
	}
}

func TestNew_EngineFailure(t *testing.T) {
	e := enginetest.New()
	e.NewErr = errors.New("browser crashed")
	_, err := htmlbook.New(context.Background(), htmlbook.DefaultConfig(), htmlbook.WithEngine(e))

	var ee *htmlbook.EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("error = %v, want *EngineError", err)
	}
	if ee.Op != "new" || err.Error() != "browser crashed" {
		t.Errorf("error = %q (op %q)", err, ee.Op)
	}
}

func TestFromOptions(t *testing.T) {
	e := enginetest.New()
	d, err := htmlbook.FromOptions(context.Background(), props.Map{"size": "a5", "margin": 0}, htmlbook.WithEngine(e))
	if err != nil {
		t.Fatalf("FromOptions: %v", err)
	}
	defer d.Close()
	if d.Config().Size != htmlbook.A5 {
		t.Errorf("size = %+v, want A5", d.Config().Size)
	}
	if d.ViewportWidth() != htmlbook.A5.Width {
		t.Errorf("ViewportWidth = %v, want %v", d.ViewportWidth(), htmlbook.A5.Width)
	}

	d2, err := htmlbook.FromOptions(context.Background(), nil, htmlbook.WithEngine(e))
	if err != nil {
		t.Fatalf("FromOptions(nil): %v", err)
	}
	defer d2.Close()
	if d2.Config() != htmlbook.DefaultConfig() {
		t.Errorf("FromOptions(nil) config = %+v", d2.Config())
	}

	if _, err := htmlbook.FromOptions(context.Background(), "A4", htmlbook.WithEngine(e)); err == nil {
		t.Error("FromOptions with a string should fail")
	}
	if n := len(e.Instances()); n != 2 {
		t.Errorf("instances = %d, want 2", n)
	}
}

func TestDocument_Viewport(t *testing.T) {
	d, _ := newTestDocument(t, htmlbook.DefaultConfig())

	want := htmlbook.A4.Width - 144
	if !approx(d.ViewportWidth(), want) {
		t.Errorf("ViewportWidth = %v, want %v", d.ViewportWidth(), want)
	}
	if !approx(d.ViewportHeight(), htmlbook.A4.Height-144) {
		t.Errorf("ViewportHeight = %v", d.ViewportHeight())
	}
	if d.PageCount() != 1 {
		t.Errorf("PageCount of empty document = %d, want 1", d.PageCount())
	}
}

func TestDocument_Close(t *testing.T) {
	d, e := newTestDocument(t, htmlbook.DefaultConfig())

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if e.Destroyed() != 1 {
		t.Errorf("Destroyed = %d, want 1", e.Destroyed())
	}

	ctx := context.Background()
	if err := d.LoadHTML(ctx, "<p>late</p>", htmlbook.LoadOptions{}); !errors.Is(err, htmlbook.ErrClosed) {
		t.Errorf("LoadHTML after Close = %v, want ErrClosed", err)
	}
	if _, err := d.WriteToPDFBuffer(ctx, htmlbook.DefaultPageRange()); !errors.Is(err, htmlbook.ErrClosed) {
		t.Errorf("WriteToPDFBuffer after Close = %v, want ErrClosed", err)
	}
	if d.PageCount() != 0 || d.ViewportWidth() != 0 {
		t.Error("accessors should return zero after Close")
	}
}

func TestDocument_ReleasedWhenUnreachable(t *testing.T) {
	e := enginetest.New()
	func() {
		_, err := htmlbook.New(context.Background(), htmlbook.DefaultConfig(), htmlbook.WithEngine(e))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for e.Destroyed() == 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	if e.Destroyed() != 1 {
		t.Fatalf("Destroyed = %d, want 1", e.Destroyed())
	}
}

func TestWith(t *testing.T) {
	e := enginetest.New()
	var pages int
	err := htmlbook.With(context.Background(), htmlbook.DefaultConfig(), func(d *htmlbook.Document) error {
		if err := d.LoadHTML(context.Background(), "one\ftwo", htmlbook.LoadOptions{}); err != nil {
			return err
		}
		pages = d.PageCount()
		return nil
	}, htmlbook.WithEngine(e))
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if pages != 2 {
		t.Errorf("PageCount = %d, want 2", pages)
	}
	if e.Destroyed() != 1 {
		t.Errorf("Destroyed = %d, want 1", e.Destroyed())
	}
}

func TestDocument_LoadFailureKeepsDocumentUsable(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	d, e := newTestDocument(t, htmlbook.DefaultConfig(), htmlbook.WithLogger(zap.New(core)))
	ctx := context.Background()

	err := d.LoadURL(ctx, "https://"+enginetest.UnreachableHost+"/", htmlbook.LoadOptions{})
	var ee *htmlbook.EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("LoadURL error = %v, want *EngineError", err)
	}
	if ee.Op != "loadUrl" || err.Error() != "net::ERR_NAME_NOT_RESOLVED" {
		t.Errorf("LoadURL error = %q (op %q)", err, ee.Op)
	}
	if logs.FilterMessage("engine call failed").Len() != 1 {
		t.Errorf("engine failure was not logged: %v", logs.All())
	}

	if err := d.LoadHTML(ctx, "<p>ok</p>", htmlbook.LoadOptions{UserStyle: "p { color: red }"}); err != nil {
		t.Fatalf("LoadHTML after failed LoadURL: %v", err)
	}
	loads := e.Instances()[0].Loads
	if len(loads) != 1 || loads[0].Method != "loadHtml" || loads[0].Options.UserStyle != "p { color: red }" {
		t.Errorf("loads = %+v", loads)
	}
}

func TestDocument_LoadErrors(t *testing.T) {
	d, _ := newTestDocument(t, htmlbook.DefaultConfig())
	ctx := context.Background()

	tests := []struct {
		name string
		load func() error
		op   string
	}{
		{"invalid url", func() error { return d.LoadURL(ctx, "not a url", htmlbook.LoadOptions{}) }, "loadUrl"},
		{"bad xml", func() error { return d.LoadXML(ctx, "plain text", htmlbook.LoadOptions{}) }, "loadXml"},
		{"bad encoding", func() error {
			return d.LoadData(ctx, []byte("x"), htmlbook.LoadOptions{TextEncoding: "klingon"})
		}, "loadData"},
		{"bad image", func() error { return d.LoadImage(ctx, []byte("GIF?"), htmlbook.LoadOptions{}) }, "loadImage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ee *htmlbook.EngineError
			if err := tt.load(); !errors.As(err, &ee) || ee.Op != tt.op {
				t.Errorf("error = %v, want EngineError from %s", err, tt.op)
			}
		})
	}
}

func TestDocument_WriteToPDFBuffer(t *testing.T) {
	cfg := htmlbook.DefaultConfig()
	cfg.Title = "Pages (draft)"
	d, _ := newTestDocument(t, cfg)
	ctx := context.Background()

	if err := d.LoadHTML(ctx, "a\fb\fc\fd", htmlbook.LoadOptions{}); err != nil {
		t.Fatalf("LoadHTML: %v", err)
	}
	if d.PageCount() != 4 {
		t.Fatalf("PageCount = %d, want 4", d.PageCount())
	}

	tests := []struct {
		name string
		r    htmlbook.PageRange
		want int
	}{
		{"all", htmlbook.DefaultPageRange(), 4},
		{"from second", htmlbook.PageRange{Start: 2, End: htmlbook.MaxPageCount, Step: 1}, 3},
		{"odd", htmlbook.PageRange{Start: 1, End: 4, Step: 2}, 2},
		{"clamped", htmlbook.PageRange{Start: -5, End: 99, Step: 1}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := d.WriteToPDFBuffer(ctx, tt.r)
			if err != nil {
				t.Fatalf("WriteToPDFBuffer: %v", err)
			}
			if !res.IsPDF() {
				t.Fatal("output is not a PDF")
			}
			n, err := pdf.PageCount(res.Bytes())
			if err != nil {
				t.Fatalf("PageCount: %v", err)
			}
			if n != tt.want {
				t.Errorf("pages = %d, want %d", n, tt.want)
			}
		})
	}

	res, err := d.WriteToPDFBuffer(ctx, htmlbook.DefaultPageRange())
	if err != nil {
		t.Fatalf("WriteToPDFBuffer: %v", err)
	}
	doc, err := pdf.Load(res.Bytes())
	if err != nil {
		t.Fatalf("pdf.Load: %v", err)
	}
	if got := doc.Info()["Title"]; got != "Pages (draft)" {
		t.Errorf("Title = %q", got)
	}
}

func TestDocument_WriteToPDFBuffer_InvalidStep(t *testing.T) {
	d, _ := newTestDocument(t, htmlbook.DefaultConfig())
	_, err := d.WriteToPDFBuffer(context.Background(), htmlbook.PageRange{Start: 1, End: 1, Step: 0})
	var ee *htmlbook.EngineError
	if !errors.As(err, &ee) || ee.Op != "writeToPdfBuffer" {
		t.Errorf("error = %v, want EngineError from writeToPdfBuffer", err)
	}
}

func TestDocument_MaxOutputSize(t *testing.T) {
	d, _ := newTestDocument(t, htmlbook.DefaultConfig(), htmlbook.WithMaxOutputSize(200))
	_, err := d.WriteToPDFBuffer(context.Background(), htmlbook.DefaultPageRange())
	if !errors.Is(err, htmlbook.ErrSinkFull) {
		t.Fatalf("error = %v, want ErrSinkFull", err)
	}
	if _, err := d.WriteToPNGBuffer(context.Background(), htmlbook.ImageSize{Width: 10, Height: 10}); err != nil {
		t.Errorf("small PNG should fit: %v", err)
	}
}

func TestDocument_WriteToPNGBuffer(t *testing.T) {
	d, _ := newTestDocument(t, htmlbook.DefaultConfig())
	ctx := context.Background()

	res, err := d.WriteToPNGBuffer(ctx, htmlbook.ImageSize{Width: 120, Height: -1})
	if err != nil {
		t.Fatalf("WriteToPNGBuffer: %v", err)
	}
	if !res.IsPNG() {
		t.Fatal("output is not a PNG")
	}
	cfg, err := png.DecodeConfig(res.Reader())
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 120 || cfg.Height <= 120 {
		t.Errorf("size = %dx%d, want 120 wide in portrait", cfg.Width, cfg.Height)
	}
}

func TestDocument_WriteToPNGBuffer_HugeSize(t *testing.T) {
	d, _ := newTestDocument(t, htmlbook.DefaultConfig())
	ctx := context.Background()

	sizes := []htmlbook.ImageSize{
		{Width: 1 << 40, Height: 1 << 40},
		{Width: math.MaxInt, Height: -1},
		{Width: -1, Height: engine.MaxImageSide + 1},
	}
	for _, size := range sizes {
		_, err := d.WriteToPNGBuffer(ctx, size)
		var engErr *htmlbook.EngineError
		if !errors.As(err, &engErr) || engErr.Op != "writeToPngBuffer" {
			t.Errorf("WriteToPNGBuffer(%+v) error = %v, want a writeToPngBuffer EngineError", size, err)
		}
	}
	if _, err := d.WriteToPNGBuffer(ctx, htmlbook.ImageSize{Width: 8, Height: 8}); err != nil {
		t.Errorf("document unusable after a rejected size: %v", err)
	}
}

func TestDocument_LoadImage(t *testing.T) {
	d, _ := newTestDocument(t, htmlbook.DefaultConfig())
	ctx := context.Background()

	src, err := d.WriteToPNGBuffer(ctx, htmlbook.ImageSize{Width: 40, Height: 30})
	if err != nil {
		t.Fatalf("WriteToPNGBuffer: %v", err)
	}
	if err := d.LoadImage(ctx, src.Bytes(), htmlbook.LoadOptions{}); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if d.DocumentWidth() != 40*htmlbook.UnitsPX || d.DocumentHeight() != 30*htmlbook.UnitsPX {
		t.Errorf("document size = %vx%v", d.DocumentWidth(), d.DocumentHeight())
	}
}

func TestDocument_WriteToFile(t *testing.T) {
	d, _ := newTestDocument(t, htmlbook.DefaultConfig())
	ctx := context.Background()
	dir := t.TempDir()

	pdfPath := filepath.Join(dir, "out.pdf")
	if err := d.WriteToPDF(ctx, pdfPath, htmlbook.DefaultPageRange()); err != nil {
		t.Fatalf("WriteToPDF: %v", err)
	}
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("file is not a PDF")
	}

	pngPath := filepath.Join(dir, "out.png")
	if err := d.WriteToPNG(ctx, pngPath, htmlbook.DefaultImageSize()); err != nil {
		t.Fatalf("WriteToPNG: %v", err)
	}
	if _, err := os.Stat(pngPath); err != nil {
		t.Errorf("Stat: %v", err)
	}
}

func TestDocument_WriteToFile_FailureLeavesNothing(t *testing.T) {
	d, _ := newTestDocument(t, htmlbook.DefaultConfig())
	dir := t.TempDir()
	path := filepath.Join(dir, "out.pdf")

	err := d.WriteToPDF(context.Background(), path, htmlbook.PageRange{Start: 1, End: 1, Step: 0})
	var ee *htmlbook.EngineError
	if !errors.As(err, &ee) || ee.Op != "writeToPdf" {
		t.Fatalf("error = %v, want EngineError from writeToPdf", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("directory not empty after failed write: %v", entries)
	}
}

func TestDocument_WriteToFile_MissingDirectory(t *testing.T) {
	d, _ := newTestDocument(t, htmlbook.DefaultConfig())
	path := filepath.Join(t.TempDir(), "missing", "out.png")
	if err := d.WriteToPNG(context.Background(), path, htmlbook.DefaultImageSize()); err == nil {
		t.Error("WriteToPNG into a missing directory should fail")
	}
}

func TestParsePageRange(t *testing.T) {
	r, err := htmlbook.ParsePageRange(props.Map{}, 1)
	if err != nil {
		t.Fatalf("ParsePageRange: %v", err)
	}
	if r != htmlbook.DefaultPageRange() {
		t.Errorf("default range = %+v", r)
	}

	r, err = htmlbook.ParsePageRange(props.Map{"pageStart": 2.9, "pageStep": 2}, 1)
	if err != nil {
		t.Fatalf("ParsePageRange: %v", err)
	}
	if r.Start != 2 || r.End != htmlbook.MaxPageCount || r.Step != 2 {
		t.Errorf("range = %+v", r)
	}

	_, err = htmlbook.ParsePageRange(7, 1)
	if err == nil || err.Error() != "Argument 2 must be object, not number" {
		t.Errorf("error = %v", err)
	}
	_, err = htmlbook.ParsePageRange(props.Map{"pageEnd": "3"}, 0)
	if err == nil || err.Error() != "Property `pageEnd` must be number, not string" {
		t.Errorf("error = %v", err)
	}
}

func TestParseImageSize(t *testing.T) {
	s, err := htmlbook.ParseImageSize(props.Map{"height": 300}, 1)
	if err != nil {
		t.Fatalf("ParseImageSize: %v", err)
	}
	if s.Width != -1 || s.Height != 300 {
		t.Errorf("size = %+v", s)
	}
	if _, err := htmlbook.ParseImageSize(props.Map{"width": true}, 1); err == nil {
		t.Error("boolean width should fail")
	}
}

func TestParseLoadOptions(t *testing.T) {
	all := props.Map{
		"mimeType":     "text/plain",
		"textEncoding": "latin1",
		"userStyle":    "body{}",
		"userScript":   "1",
		"baseUrl":      "https://example.com/",
	}

	u, err := htmlbook.ParseURLOptions(all)
	if err != nil {
		t.Fatalf("ParseURLOptions: %v", err)
	}
	if u.UserStyle != "body{}" || u.UserScript != "1" || u.BaseURL != "" || u.MimeType != "" {
		t.Errorf("url options = %+v", u)
	}

	c, err := htmlbook.ParseContentOptions(all)
	if err != nil {
		t.Fatalf("ParseContentOptions: %v", err)
	}
	if c.BaseURL != "https://example.com/" || c.TextEncoding != "" {
		t.Errorf("content options = %+v", c)
	}

	o, err := htmlbook.ParseDataOptions(all)
	if err != nil {
		t.Fatalf("ParseDataOptions: %v", err)
	}
	if o.MimeType != "text/plain" || o.TextEncoding != "latin1" {
		t.Errorf("data options = %+v", o)
	}

	_, err = htmlbook.ParseDataOptions(props.Map{"mimeType": 1})
	if err == nil || !strings.Contains(err.Error(), "mimeType") {
		t.Errorf("error = %v", err)
	}
	_, err = htmlbook.ParseURLOptions("x")
	if err == nil || err.Error() != "Argument 2 must be object, not string" {
		t.Errorf("error = %v", err)
	}
}
