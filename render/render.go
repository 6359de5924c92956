// Package render turns a view's assigns into a plain JSON-compatible
// tree, expanding embedded sub-component references by invoking their
// own render. Struct-like values are flattened to their exported field
// map by reflection, the same way a template engine dots into a struct.
package render

import (
	"reflect"
	"sort"

	"github.com/RodolfoSilva/live-data/view"
)

// Component is a discovered sub-component's rendered subtree, recorded in
// discovery order.
type Component struct {
	ID     string
	Module view.Renderer
	Tree   any
}

// Tree renders v with assigns and returns the resulting JSON-compatible
// tree along with every sub-component discovered while walking it, in
// discovery order.
func Tree(v view.Renderer, assigns map[string]any) (any, []Component, error) {
	raw, err := v.Render(assigns)
	if err != nil {
		return nil, nil, err
	}
	var components []Component
	out, err := walk(raw, &components)
	if err != nil {
		return nil, nil, err
	}
	return out, components, nil
}

func walk(v any, components *[]Component) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case view.ComponentRef:
		sub, subComponents, err := Tree(val.Module, val.Assigns)
		if err != nil {
			return nil, err
		}
		*components = append(*components, Component{ID: val.ID, Module: val.Module, Tree: sub})
		*components = append(*components, subComponents...)
		return sub, nil
	case map[string]any:
		return walkMap(val, components)
	case []any:
		return walkSlice(val, components)
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return val, nil
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Ptr:
			if rv.IsNil() {
				return nil, nil
			}
			return walk(rv.Elem().Interface(), components)
		case reflect.Map:
			m := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				m[toStringKey(iter.Key())] = iter.Value().Interface()
			}
			return walkMap(m, components)
		case reflect.Slice, reflect.Array:
			s := make([]any, rv.Len())
			for i := range s {
				s[i] = rv.Index(i).Interface()
			}
			return walkSlice(s, components)
		case reflect.Struct:
			return walkStruct(rv, components)
		default:
			// scalar-like (e.g. named string/int types)
			return v, nil
		}
	}
}

// walkStruct flattens a struct-like value to its exported field map.
func walkStruct(rv reflect.Value, components *[]Component) (any, error) {
	typ := rv.Type()
	m := make(map[string]any, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !rv.Field(i).CanInterface() {
			continue
		}
		m[f.Name] = rv.Field(i).Interface()
	}
	return walkMap(m, components)
}

func walkMap(m map[string]any, components *[]Component) (any, error) {
	out := make(map[string]any, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys) // map iteration order is non-deterministic; sorted so sub-components are discovered in a stable order
	for _, k := range keys {
		v, err := walk(m[k], components)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue // null elision: a field becoming null is equivalent to removal
		}
		out[k] = v
	}
	return out, nil
}

func walkSlice(s []any, components *[]Component) (any, error) {
	out := make([]any, 0, len(s))
	for _, v := range s {
		rv, err := walk(v, components)
		if err != nil {
			return nil, err
		}
		if rv == nil {
			continue // null elision, order preserved
		}
		out = append(out, rv)
	}
	return out, nil
}

func toStringKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if s, ok := k.Interface().(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}
