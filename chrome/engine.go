// Package chrome renders documents with headless Chrome over the DevTools
// protocol.
//
// An [Engine] owns one browser process. Every document instance it creates
// lives in its own tab, so instances never share layout state.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/porticus-lab/htmlbook/engine"
)

// ErrClosed is returned when creating an instance on a closed Engine.
var ErrClosed = errors.New("chrome: engine is closed")

// Engine implements [engine.Engine] with a headless Chrome browser.
//
// It is safe for concurrent use. Call [Engine.Close] when the Engine is no
// longer needed to stop the browser.
type Engine struct {
	cfg           config
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	product   string
	revision  string
	userAgent string
	jsVersion string
	protocol  string

	mu     sync.Mutex
	closed bool
}

var _ engine.Engine = (*Engine)(nil)

// Available reports whether a Chrome or Chromium executable can be found
// on this system.
func Available() bool {
	return lookBrowser() != ""
}

// New starts a headless browser with the given options.
//
// The browser is started eagerly so errors surface at creation time. The
// caller must call [Engine.Close] when finished.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.chromePath == "" && cfg.autoDownload && !Available() {
		path, err := resolveBrowser()
		if err != nil {
			return nil, err
		}
		cfg.chromePath = path
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if cfg.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.chromePath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	e := &Engine{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}
	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		e.protocol, e.product, e.revision, e.userAgent, e.jsVersion, err = browser.GetVersion().Do(ctx)
		return err
	}))
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chrome: starting browser: %w", err)
	}

	cfg.logger.Info("browser started",
		zap.String("product", e.product),
		zap.String("revision", e.revision),
	)
	return e, nil
}

// Version returns the browser product version, e.g. "HeadlessChrome/126.0.6478.126".
func (e *Engine) Version() string {
	return e.product
}

// BuildInfo describes the browser build.
func (e *Engine) BuildInfo() string {
	return fmt.Sprintf("%s (revision %s, V8 %s, protocol %s)\n%s",
		e.product, e.revision, e.jsVersion, e.protocol, e.userAgent)
}

// Close stops the browser process. Instances created by the Engine stop
// working. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.browserCancel()
	e.allocCancel()
	e.cfg.logger.Info("browser stopped")
	return nil
}

// NewInstance opens a tab laid out for setup.
func (e *Engine) NewInstance(ctx context.Context, setup engine.Setup) (engine.Instance, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	tabCtx, tabCancel := chromedp.NewContext(e.browserCtx)
	in := &instance{
		e:         e,
		id:        uuid.NewString(),
		setup:     setup,
		tabCtx:    tabCtx,
		tabCancel: tabCancel,
		meta:      make(map[engine.Metadata]string),
		log:       e.cfg.logger,
	}

	// The first Run on a tab context creates the tab, so it must not run
	// under a derived context; cancel the whole tab if ctx ends first.
	width, height := in.viewportPixels()
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx,
		emulation.SetDeviceMetricsOverride(width, height, 1, false),
		emulation.SetEmulatedMedia().WithMedia(setup.Media.String()),
	)
	stop()
	if err == nil {
		err = in.measure(ctx)
	}
	if err != nil {
		tabCancel()
		return nil, fmt.Errorf("creating tab: %w", err)
	}

	in.log.Debug("tab opened", zap.String("instance", in.id))
	return in, nil
}
