package jsbind

import (
	"github.com/dop251/goja"

	"github.com/porticus-lab/htmlbook"
)

// defineClass creates the Document constructor and its prototype.
func (m *module) defineClass() error {
	ctor := m.vm.ToValue(m.construct).(*goja.Object)
	proto := m.vm.NewObject()

	accessors := []struct {
		name string
		get  func(*htmlbook.Document) float64
	}{
		{"pageCount", func(d *htmlbook.Document) float64 { return float64(d.PageCount()) }},
		{"documentWidth", (*htmlbook.Document).DocumentWidth},
		{"documentHeight", (*htmlbook.Document).DocumentHeight},
		{"viewportWidth", (*htmlbook.Document).ViewportWidth},
		{"viewportHeight", (*htmlbook.Document).ViewportHeight},
	}
	for _, a := range accessors {
		get := a.get
		getter := m.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return m.vm.ToValue(get(m.document(call)))
		})
		if err := proto.DefineAccessorProperty(a.name, getter, nil, goja.FLAG_TRUE, goja.FLAG_TRUE); err != nil {
			return err
		}
	}

	methods := []struct {
		name string
		fn   func(goja.FunctionCall) goja.Value
	}{
		{"loadUrl", m.loadURL},
		{"loadHtml", m.loadHTML},
		{"loadXml", m.loadXML},
		{"loadData", m.loadData},
		{"loadImage", m.loadImage},
		{"writeToPdf", m.writeToPDF},
		{"writeToPdfBuffer", m.writeToPDFBuffer},
		{"writeToPng", m.writeToPNG},
		{"writeToPngBuffer", m.writeToPNGBuffer},
	}
	for _, fn := range methods {
		if err := proto.DefineDataProperty(fn.name, m.vm.ToValue(fn.fn), goja.FLAG_TRUE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return err
		}
	}

	if err := proto.DefineDataProperty("constructor", ctor, goja.FLAG_TRUE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		return err
	}
	if err := ctor.Set("prototype", proto); err != nil {
		return err
	}
	m.ctor, m.proto = ctor, proto
	return nil
}

// construct implements `new Document(options?)`. Called as a plain
// function it behaves like createDocument.
func (m *module) construct(call goja.ConstructorCall) *goja.Object {
	d := m.newDocument(call.Arguments)
	obj := call.This
	if !m.inherits(obj) {
		obj = m.instance(d)
	}
	m.wrap(obj, d)
	return obj
}

// createDocument implements createDocument(options?).
func (m *module) createDocument(call goja.FunctionCall) goja.Value {
	d := m.newDocument(call.Arguments)
	obj := m.instance(d)
	m.wrap(obj, d)
	return obj
}

// instance returns a fresh object inheriting from Document.prototype.
func (m *module) instance(d *htmlbook.Document) *goja.Object {
	obj := m.vm.NewObject()
	if err := obj.SetPrototype(m.proto); err != nil {
		d.Close()
		m.throw(err)
	}
	return obj
}

// inherits reports whether Document.prototype is on the prototype chain
// of obj.
func (m *module) inherits(obj *goja.Object) bool {
	for p := obj; p != nil; p = p.Prototype() {
		if p == m.proto {
			return true
		}
	}
	return false
}

func (m *module) newDocument(args []goja.Value) *htmlbook.Document {
	m.checkArgs(args, 0, 1)
	cfg := htmlbook.DefaultConfig()
	if len(args) == 1 {
		var err error
		if cfg, err = htmlbook.ParseConfig(m.hostValue(args[0])); err != nil {
			m.throw(err)
		}
	}
	d, err := htmlbook.New(m.cfg.ctx, cfg, m.cfg.docOpts...)
	if err != nil {
		m.throw(err)
	}
	return d
}

// wrap stores d in obj. The document stays reachable only through obj, so
// it is released once the script drops the object.
func (m *module) wrap(obj *goja.Object, d *htmlbook.Document) {
	if err := obj.DefineDataPropertySymbol(m.key, m.vm.ToValue(d), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE); err != nil {
		d.Close()
		m.throw(err)
	}
}

// document returns the document wrapped by the receiver of call.
func (m *module) document(call goja.FunctionCall) *htmlbook.Document {
	if obj, ok := call.This.(*goja.Object); ok {
		if v := obj.GetSymbol(m.key); v != nil {
			if d, ok := v.Export().(*htmlbook.Document); ok {
				return d
			}
		}
	}
	panic(m.vm.NewTypeError("Illegal invocation"))
}

// options returns the options argument at position i, or nil if it was
// not passed.
func (m *module) options(args []goja.Value, i int) (any, bool) {
	if len(args) <= i {
		return nil, false
	}
	return m.hostValue(args[i]), true
}

func (m *module) loadURL(call goja.FunctionCall) goja.Value {
	m.checkArgs(call.Arguments, 1, 1)
	url := m.stringArgument(call.Arguments, 0)
	var opts htmlbook.LoadOptions
	if arg, ok := m.options(call.Arguments, 1); ok {
		var err error
		if opts, err = htmlbook.ParseURLOptions(arg); err != nil {
			m.throw(err)
		}
	}
	if err := m.document(call).LoadURL(m.cfg.ctx, url, opts); err != nil {
		m.throw(err)
	}
	return call.This
}

func (m *module) loadHTML(call goja.FunctionCall) goja.Value {
	content, opts := m.contentArguments(call)
	if err := m.document(call).LoadHTML(m.cfg.ctx, content, opts); err != nil {
		m.throw(err)
	}
	return call.This
}

func (m *module) loadXML(call goja.FunctionCall) goja.Value {
	content, opts := m.contentArguments(call)
	if err := m.document(call).LoadXML(m.cfg.ctx, content, opts); err != nil {
		m.throw(err)
	}
	return call.This
}

func (m *module) contentArguments(call goja.FunctionCall) (string, htmlbook.LoadOptions) {
	m.checkArgs(call.Arguments, 1, 1)
	content := m.stringArgument(call.Arguments, 0)
	var opts htmlbook.LoadOptions
	if arg, ok := m.options(call.Arguments, 1); ok {
		var err error
		if opts, err = htmlbook.ParseContentOptions(arg); err != nil {
			m.throw(err)
		}
	}
	return content, opts
}

func (m *module) loadData(call goja.FunctionCall) goja.Value {
	data, opts := m.dataArguments(call)
	if err := m.document(call).LoadData(m.cfg.ctx, data, opts); err != nil {
		m.throw(err)
	}
	return call.This
}

func (m *module) loadImage(call goja.FunctionCall) goja.Value {
	data, opts := m.dataArguments(call)
	if err := m.document(call).LoadImage(m.cfg.ctx, data, opts); err != nil {
		m.throw(err)
	}
	return call.This
}

func (m *module) dataArguments(call goja.FunctionCall) ([]byte, htmlbook.LoadOptions) {
	m.checkArgs(call.Arguments, 1, 1)
	data := m.bufferArgument(call.Arguments, 0)
	var opts htmlbook.LoadOptions
	if arg, ok := m.options(call.Arguments, 1); ok {
		var err error
		if opts, err = htmlbook.ParseDataOptions(arg); err != nil {
			m.throw(err)
		}
	}
	return data, opts
}

func (m *module) pageRange(args []goja.Value, i int) htmlbook.PageRange {
	r := htmlbook.DefaultPageRange()
	if arg, ok := m.options(args, i); ok {
		var err error
		if r, err = htmlbook.ParsePageRange(arg, i); err != nil {
			m.throw(err)
		}
	}
	return r
}

func (m *module) imageSize(args []goja.Value, i int) htmlbook.ImageSize {
	s := htmlbook.DefaultImageSize()
	if arg, ok := m.options(args, i); ok {
		var err error
		if s, err = htmlbook.ParseImageSize(arg, i); err != nil {
			m.throw(err)
		}
	}
	return s
}

func (m *module) writeToPDF(call goja.FunctionCall) goja.Value {
	m.checkArgs(call.Arguments, 1, 1)
	path := m.stringArgument(call.Arguments, 0)
	r := m.pageRange(call.Arguments, 1)
	if err := m.document(call).WriteToPDF(m.cfg.ctx, path, r); err != nil {
		m.throw(err)
	}
	return goja.Undefined()
}

func (m *module) writeToPDFBuffer(call goja.FunctionCall) goja.Value {
	m.checkArgs(call.Arguments, 0, 1)
	r := m.pageRange(call.Arguments, 0)
	res, err := m.document(call).WriteToPDFBuffer(m.cfg.ctx, r)
	if err != nil {
		m.throw(err)
	}
	return m.vm.ToValue(m.vm.NewArrayBuffer(res.Bytes()))
}

func (m *module) writeToPNG(call goja.FunctionCall) goja.Value {
	m.checkArgs(call.Arguments, 1, 1)
	path := m.stringArgument(call.Arguments, 0)
	size := m.imageSize(call.Arguments, 1)
	if err := m.document(call).WriteToPNG(m.cfg.ctx, path, size); err != nil {
		m.throw(err)
	}
	return goja.Undefined()
}

func (m *module) writeToPNGBuffer(call goja.FunctionCall) goja.Value {
	m.checkArgs(call.Arguments, 0, 1)
	size := m.imageSize(call.Arguments, 0)
	res, err := m.document(call).WriteToPNGBuffer(m.cfg.ctx, size)
	if err != nil {
		m.throw(err)
	}
	return m.vm.ToValue(m.vm.NewArrayBuffer(res.Bytes()))
}
