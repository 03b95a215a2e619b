// Package props converts loosely typed caller values into native Go values.
//
// A host value is any Go value a scripting host or a decoded document can
// hand over: nil (undefined), Null, bool, a Go number, string, time.Time
// (date), []byte (buffer), a Bag or a string-keyed map (object), or a
// function.
// Coercers turn one host value into one typed value; Parse applies a table
// of coercers to the properties of a Bag.
//
//	var title string
//	var width float64 = -1
//	err := props.Parse(arg, 0,
//		props.Field("title", props.String, &title),
//		props.Field("width", props.Length(units), &width),
//	)
package props

import (
	"reflect"
	"time"
)

// Kind names the dynamic type of a host value.
type Kind string

const (
	KindUndefined Kind = "undefined"
	KindNull      Kind = "null"
	KindBoolean   Kind = "boolean"
	KindNumber    Kind = "number"
	KindString    Kind = "string"
	KindDate      Kind = "date"
	KindBuffer    Kind = "buffer"
	KindObject    Kind = "object"
	KindFunction  Kind = "function"
	KindUnknown   Kind = "unknown"
)

// Null is the host's null value, distinct from an absent (nil) value.
type Null struct{}

// Typed lets a host wrapper report its own kind.
type Typed interface {
	Kind() Kind
}

// KindOf reports the kind of v.
func KindOf(v any) Kind {
	switch v := v.(type) {
	case nil:
		return KindUndefined
	case Null:
		return KindNull
	case Typed:
		return v.Kind()
	case bool:
		return KindBoolean
	case string:
		return KindString
	case time.Time:
		return KindDate
	case []byte:
		return KindBuffer
	case Bag, map[string]any:
		return KindObject
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.Func:
		return KindFunction
	case reflect.Map:
		if _, ok := AsBag(v); ok {
			return KindObject
		}
	}
	return KindUnknown
}
