package jsbind

import (
	"errors"

	"github.com/dop251/goja"

	"github.com/porticus-lab/htmlbook/props"
)

// kind wraps a JavaScript value whose kind has no Go counterpart.
type kind props.Kind

func (k kind) Kind() props.Kind { return props.Kind(k) }

// objectBag reads the properties of a JavaScript object, including
// inherited ones.
type objectBag struct {
	m   *module
	obj *goja.Object
}

func (b objectBag) Lookup(name string) (any, bool) {
	v := b.obj.Get(name)
	if v == nil {
		return nil, false
	}
	return b.m.hostValue(v), true
}

// hostValue converts a JavaScript value into the value set package props
// understands.
func (m *module) hostValue(v goja.Value) any {
	switch {
	case v == nil || goja.IsUndefined(v):
		return nil
	case goja.IsNull(v):
		return props.Null{}
	}
	if _, ok := goja.AssertFunction(v); ok {
		return kind(props.KindFunction)
	}
	if _, ok := v.(*goja.Symbol); ok {
		return kind("symbol")
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return v.Export()
	}
	switch x := obj.Export().(type) {
	case goja.ArrayBuffer:
		return x.Bytes()
	case []byte:
		return x
	}
	if obj.ClassName() == "Date" {
		return obj.Export()
	}
	return objectBag{m: m, obj: obj}
}

// argument converts positional argument i of call.
func (m *module) argument(args []goja.Value, i int) any {
	if i >= len(args) {
		return nil
	}
	return m.hostValue(args[i])
}

func (m *module) stringArgument(args []goja.Value, i int) string {
	v := m.argument(args, i)
	s, ok := v.(string)
	if !ok {
		m.throw(props.ArgumentError(i, props.KindString, v))
	}
	return s
}

func (m *module) bufferArgument(args []goja.Value, i int) []byte {
	v := m.argument(args, i)
	b, ok := v.([]byte)
	if !ok {
		m.throw(props.ArgumentError(i, props.KindBuffer, v))
	}
	return b
}

func (m *module) checkArgs(args []goja.Value, required, optional int) {
	if err := props.CheckArgs(len(args), required, optional); err != nil {
		m.throw(err)
	}
}

// throw raises err in the runtime: a TypeError for shape errors and an
// Error with the same message for everything else.
func (m *module) throw(err error) {
	var te *props.TypeError
	if errors.As(err, &te) {
		panic(m.vm.NewTypeError("%s", te.Error()))
	}
	panic(m.vm.NewGoError(err))
}
