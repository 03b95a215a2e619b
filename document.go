package htmlbook

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/porticus-lab/htmlbook/engine"
)

// Document is a paginated document backed by one engine instance.
//
// Methods are serialized by an internal mutex, so a Document may be shared
// between goroutines, but calls never overlap.
//
// The engine instance is released when [Document.Close] is called or, if it
// never is, after the Document becomes unreachable. Either way it is
// released exactly once.
type Document struct {
	cfg     Config
	opts    documentConfig
	h       *handle
	cleanup runtime.Cleanup

	mu     sync.Mutex
	closed bool
}

// handle owns the engine instance. It is kept apart from Document so the
// GC cleanup does not keep the Document reachable.
type handle struct {
	id   string
	inst engine.Instance
	log  *zap.Logger
	once sync.Once
}

func (h *handle) release() {
	h.once.Do(func() {
		h.inst.Destroy()
		h.log.Debug("document released", zap.String("id", h.id))
	})
}

// New creates a Document laid out according to cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*Document, error) {
	dc := defaultDocumentConfig()
	for _, o := range opts {
		o(&dc)
	}
	if dc.engine == nil {
		e, err := DefaultEngine()
		if err != nil {
			return nil, err
		}
		dc.engine = e
	}

	inst, err := dc.engine.NewInstance(ctx, cfg.setup())
	if err != nil {
		return nil, &EngineError{Op: "new", Err: err}
	}
	for _, m := range cfg.metadata() {
		inst.SetMetadata(m.key, m.value)
	}

	h := &handle{
		id:   uuid.NewString(),
		inst: inst,
		log:  dc.logger,
	}
	d := &Document{cfg: cfg, opts: dc, h: h}
	d.cleanup = runtime.AddCleanup(d, (*handle).release, h)

	dc.logger.Debug("document created",
		zap.String("id", h.id),
		zap.Float64("width", cfg.Size.Width),
		zap.Float64("height", cfg.Size.Height),
		zap.Stringer("media", cfg.Media),
	)
	return d, nil
}

// FromOptions parses an options object with [ParseConfig] and creates a
// Document from it. A nil arg means no options were given.
func FromOptions(ctx context.Context, arg any, opts ...Option) (*Document, error) {
	cfg := DefaultConfig()
	if arg != nil {
		var err error
		if cfg, err = ParseConfig(arg); err != nil {
			return nil, err
		}
	}
	return New(ctx, cfg, opts...)
}

// With creates a Document, passes it to fn and closes it when fn returns.
func With(ctx context.Context, cfg Config, fn func(*Document) error, opts ...Option) error {
	d, err := New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}

// Close releases the engine instance. Close is idempotent; other methods
// return [ErrClosed] afterwards.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.cleanup.Stop()
	d.h.release()
	return nil
}

// Config returns the configuration the Document was created with.
func (d *Document) Config() Config {
	return d.cfg
}

// do runs fn with the engine instance while holding the document lock.
func (d *Document) do(fn func(engine.Instance) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	return fn(d.h.inst)
}

func (d *Document) query(fn func(engine.Instance)) {
	_ = d.do(func(inst engine.Instance) error {
		fn(inst)
		return nil
	})
}

// PageCount returns the number of pages the loaded content lays out to.
// It returns 0 after Close.
func (d *Document) PageCount() int {
	var n int
	d.query(func(inst engine.Instance) { n = inst.PageCount() })
	return n
}

// DocumentWidth returns the width of the laid out content in points.
func (d *Document) DocumentWidth() float64 {
	var v float64
	d.query(func(inst engine.Instance) { v = inst.DocumentWidth() })
	return v
}

// DocumentHeight returns the height of the laid out content in points.
func (d *Document) DocumentHeight() float64 {
	var v float64
	d.query(func(inst engine.Instance) { v = inst.DocumentHeight() })
	return v
}

// ViewportWidth returns the width of the page content box in points.
func (d *Document) ViewportWidth() float64 {
	var v float64
	d.query(func(inst engine.Instance) { v = inst.ViewportWidth() })
	return v
}

// ViewportHeight returns the height of the page content box in points.
func (d *Document) ViewportHeight() float64 {
	var v float64
	d.query(func(inst engine.Instance) { v = inst.ViewportHeight() })
	return v
}

func (d *Document) engineError(op string, err error) error {
	d.opts.logger.Debug("engine call failed",
		zap.String("id", d.h.id),
		zap.String("op", op),
		zap.Error(err),
	)
	return &EngineError{Op: op, Err: err}
}

func (d *Document) String() string {
	return fmt.Sprintf("htmlbook.Document(%s)", d.h.id)
}
