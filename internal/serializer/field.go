package serializer

import "fmt"

// Field binds one member of record type T to its MappingSpec. Fields are
// built once per record type with Bind, BindOptional or BindFunc and grouped
// into a Schema, whose order is the order of every batch request.
type Field[T any] struct {
	Name string
	Spec MappingSpec

	get   func(*T) (any, bool)
	set   func(*T, any) error
	probe any // zero value of the bound Go type, nil when unknown
}

// Bind maps a plain member. It is always written, except for a nil []byte.
func Bind[T, V any](name string, spec MappingSpec, ref func(*T) *V) Field[T] {
	var zero V
	return Field[T]{
		Name: name,
		Spec: spec,
		get: func(r *T) (any, bool) {
			v := *ref(r)
			if b, ok := any(v).([]byte); ok && b == nil {
				return nil, false
			}
			return v, true
		},
		set: func(r *T, v any) error {
			tv, ok := v.(V)
			if !ok {
				return fmt.Errorf("cannot assign %T to %T", v, zero)
			}
			*ref(r) = tv
			return nil
		},
		probe: zero,
	}
}

// BindOptional maps a pointer member. A nil pointer is absent and is left out
// of writes.
func BindOptional[T, V any](name string, spec MappingSpec, ref func(*T) **V) Field[T] {
	var zero V
	return Field[T]{
		Name: name,
		Spec: spec,
		get: func(r *T) (any, bool) {
			p := *ref(r)
			if p == nil {
				return nil, false
			}
			return *p, true
		},
		set: func(r *T, v any) error {
			tv, ok := v.(V)
			if !ok {
				return fmt.Errorf("cannot assign %T to *%T", v, zero)
			}
			*ref(r) = &tv
			return nil
		},
		probe: zero,
	}
}

// BindFunc maps a member through explicit accessors, for records whose shape
// is only known at run time. get reports false for an absent value.
func BindFunc[T any](name string, spec MappingSpec, get func(*T) (any, bool), set func(*T, any) error) Field[T] {
	return Field[T]{Name: name, Spec: spec, get: get, set: set}
}
