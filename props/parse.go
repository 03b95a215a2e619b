package props

import (
	"fmt"
	"reflect"
)

// Bag is a set of named properties. Lookup reports whether the property
// exists, whether set directly or inherited, and returns its value.
type Bag interface {
	Lookup(name string) (any, bool)
}

// Map is a Bag backed by a Go map.
type Map map[string]any

// Lookup implements Bag.
func (m Map) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// AsBag returns v as a Bag if it has object semantics: a Bag, or any map
// keyed by strings.
func AsBag(v any) (Bag, bool) {
	switch v := v.(type) {
	case Bag:
		return v, true
	case map[string]any:
		return Map(v), true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		return mapBag{rv}, true
	}
	return nil, false
}

// mapBag is a Bag over a string-keyed map of any element type.
type mapBag struct {
	m reflect.Value
}

func (b mapBag) Lookup(name string) (any, bool) {
	v := b.m.MapIndex(reflect.ValueOf(name).Convert(b.m.Type().Key()))
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

// Descriptor binds one property name to a coercer and a destination.
type Descriptor struct {
	Name  string
	apply func(v any) error
}

// Field returns a Descriptor that stores the coerced value of property name
// in dst. dst is written only when the coercion succeeds.
func Field[T any](name string, coerce Coercer[T], dst *T) Descriptor {
	return Descriptor{
		Name: name,
		apply: func(v any) error {
			value, err := coerce(v, name)
			if err != nil {
				return err
			}
			*dst = value
			return nil
		},
	}
}

// Parse applies descs to the properties of arg, which is the caller's
// argument at position pos (0-based) and must be a Bag or map[string]any.
//
// Descriptors are applied in order. Absent properties leave their
// destinations untouched and unknown properties are ignored. Parse stops at
// the first failing coercion and returns its error; destinations of
// earlier descriptors keep the values already written.
func Parse(arg any, pos int, descs ...Descriptor) error {
	bag, ok := AsBag(arg)
	if !ok {
		return ArgumentError(pos, KindObject, arg)
	}
	seen := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		if _, dup := seen[d.Name]; dup {
			panic(fmt.Sprintf("props: duplicate descriptor %q", d.Name))
		}
		seen[d.Name] = struct{}{}
	}
	for _, d := range descs {
		v, ok := bag.Lookup(d.Name)
		if !ok {
			continue
		}
		if err := d.apply(v); err != nil {
			return err
		}
	}
	return nil
}
