package orm

import (
	"reflect"
	"strings"
)

// Collection is an ordered result set.
type Collection[T any] []T

// Entities is the collection type returned by queries.
type Entities = Collection[*Entity]

// Len returns the number of items.
func (c Collection[T]) Len() int { return len(c) }

// At returns the item at index i.
func (c Collection[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(c) {
		var zero T
		return zero, false
	}
	return c[i], true
}

// First returns the first item.
func (c Collection[T]) First() (T, bool) { return c.At(0) }

// Push appends items to the collection.
func (c *Collection[T]) Push(items ...T) {
	*c = append(*c, items...)
}

// Items returns the items as a plain slice.
func (c Collection[T]) Items() []T { return []T(c) }

// Each calls fn for every item in order.
func (c Collection[T]) Each(fn func(i int, item T)) {
	for i, item := range c {
		fn(i, item)
	}
}

// Pluck extracts the value at a dotted path from every item. Paths walk
// through entity attributes, string-keyed maps, exported struct fields and
// pointers; a nested collection or slice along the way is flattened.
// Missing values come back as nil.
//
//	posts.Pluck("user.name")  // every post's user name
func (c Collection[T]) Pluck(path string) []any {
	segs := splitPath(path)
	out := make([]any, 0, len(c))
	for _, item := range c {
		out = extract(out, item, segs)
	}
	return out
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func extract(out []any, v any, path []string) []any {
	if len(path) == 0 {
		return append(out, v)
	}
	switch x := v.(type) {
	case nil:
		return append(out, nil)
	case *Entity:
		if x == nil {
			return append(out, nil)
		}
		next, _ := x.Get(path[0])
		return extract(out, next, path[1:])
	case map[string]any:
		return extract(out, x[path[0]], path[1:])
	case Entities:
		for _, e := range x {
			out = extract(out, e, path)
		}
		return out
	case []any:
		for _, e := range x {
			out = extract(out, e, path)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return append(out, nil)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return append(out, nil)
		}
		for i := range rv.Len() {
			out = extract(out, rv.Index(i).Interface(), path)
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return append(out, nil)
		}
		mv := rv.MapIndex(reflect.ValueOf(path[0]).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return append(out, nil)
		}
		return extract(out, mv.Interface(), path[1:])
	case reflect.Struct:
		fv := rv.FieldByName(path[0])
		if !fv.IsValid() || !fv.CanInterface() {
			return append(out, nil)
		}
		return extract(out, fv.Interface(), path[1:])
	default:
		return append(out, nil)
	}
}
