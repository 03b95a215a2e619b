// Package jsbind exposes htmlbook documents to JavaScript running in a goja
// runtime.
//
// The module object carries a Document class, a createDocument factory,
// the engine's version strings and the page count and length unit
// constants:
//
//	vm := goja.New()
//	if err := jsbind.Register(vm, "htmlbook"); err != nil {
//	    log.Fatal(err)
//	}
//	_, err := vm.RunString(`
//	    const doc = new htmlbook.Document({size: "letter", margin: "1in"});
//	    doc.loadHtml("<h1>Hello</h1>").writeToPdf("hello.pdf");
//	`)
//
// Argument and option errors throw TypeError with the messages of package
// props. Engine failures throw an Error carrying the engine's message.
package jsbind

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/porticus-lab/htmlbook"
	"github.com/porticus-lab/htmlbook/engine"
)

type config struct {
	ctx     context.Context
	engine  engine.Engine
	docOpts []htmlbook.Option
	logger  *zap.Logger
}

// Option configures the module.
type Option func(*config)

// WithContext sets the context passed to every document call. Cancelling
// it aborts calls in flight. Defaults to context.Background().
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		c.ctx = ctx
	}
}

// WithEngine sets the engine documents are created with. By default the
// shared [htmlbook.DefaultEngine] is used.
func WithEngine(e engine.Engine) Option {
	return func(c *config) {
		c.engine = e
	}
}

// WithDocumentOptions adds options applied to every document the script
// creates.
func WithDocumentOptions(opts ...htmlbook.Option) Option {
	return func(c *config) {
		c.docOpts = append(c.docOpts, opts...)
	}
}

// WithLogger sets the logger, which is also handed to the documents.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// module holds the per-runtime state of the binding.
type module struct {
	vm    *goja.Runtime
	cfg   config
	ctor  *goja.Object
	proto *goja.Object
	key   *goja.Symbol
}

// Require builds the module object for vm. It resolves the engine first,
// so it fails if the default engine cannot be started.
func Require(vm *goja.Runtime, opts ...Option) (*goja.Object, error) {
	cfg := config{
		ctx:    context.Background(),
		logger: htmlbook.Logger(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.engine == nil {
		e, err := htmlbook.DefaultEngine()
		if err != nil {
			return nil, fmt.Errorf("jsbind: %w", err)
		}
		cfg.engine = e
	}
	cfg.docOpts = append([]htmlbook.Option{
		htmlbook.WithEngine(cfg.engine),
		htmlbook.WithLogger(cfg.logger),
	}, cfg.docOpts...)

	m := &module{
		vm:  vm,
		cfg: cfg,
		key: goja.NewSymbol("htmlbook.document"),
	}
	if err := m.defineClass(); err != nil {
		return nil, fmt.Errorf("jsbind: %w", err)
	}

	exports := vm.NewObject()
	constants := []struct {
		name  string
		value any
	}{
		{"Document", m.ctor},
		{"createDocument", m.createDocument},
		{"engineVersion", cfg.engine.Version()},
		{"engineBuildInfo", cfg.engine.BuildInfo()},
		{"MIN_PAGE_COUNT", htmlbook.MinPageCount},
		{"MAX_PAGE_COUNT", htmlbook.MaxPageCount},
		{"UNITS_PT", htmlbook.UnitsPT},
		{"UNITS_PC", htmlbook.UnitsPC},
		{"UNITS_IN", htmlbook.UnitsIN},
		{"UNITS_CM", htmlbook.UnitsCM},
		{"UNITS_MM", htmlbook.UnitsMM},
		{"UNITS_PX", htmlbook.UnitsPX},
	}
	for _, c := range constants {
		if err := exports.DefineDataProperty(c.name, vm.ToValue(c.value), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return nil, fmt.Errorf("jsbind: defining %s: %w", c.name, err)
		}
	}

	cfg.logger.Debug("module installed", zap.String("engine", cfg.engine.Version()))
	return exports, nil
}

// Register installs the module as the global variable name.
func Register(vm *goja.Runtime, name string, opts ...Option) error {
	exports, err := Require(vm, opts...)
	if err != nil {
		return err
	}
	return vm.Set(name, exports)
}
