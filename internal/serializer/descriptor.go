package serializer

import (
	"fmt"

	"github.com/KevinKickass/plcmap/internal/address"
	"github.com/KevinKickass/plcmap/internal/codec"
	"github.com/KevinKickass/plcmap/internal/types"
)

// Resolver turns address strings into regions.
type Resolver interface {
	ResolveBit(addr string) (address.Region, error)
	ResolveByte(addr string, length int) (address.Region, error)
}

// Descriptor is the per-call binding of one field to its region and, once
// fetched or encoded, its raw bytes. It is discarded after the call.
type Descriptor struct {
	Index    int // position in the schema
	Field    string
	DataType types.DataType
	Count    int
	Region   address.Region
	Payload  []byte
}

// Schema is the ordered mapping table of record type T.
type Schema[T any] struct {
	fields []Field[T]
}

func NewSchema[T any](fields ...Field[T]) *Schema[T] {
	return &Schema[T]{fields: fields}
}

// Fields returns the mapped fields in declaration order.
func (s *Schema[T]) Fields() []Field[T] {
	return s.fields
}

// Validate checks every field without resolving addresses.
func (s *Schema[T]) Validate() error {
	if len(s.fields) == 0 {
		return ErrEmptyDescriptorSet
	}
	for _, f := range s.fields {
		if err := f.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Descriptors validates the schema and resolves one descriptor per field, in
// declaration order.
func (s *Schema[T]) Descriptors(resolver Resolver) ([]*Descriptor, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	descs := make([]*Descriptor, 0, len(s.fields))
	for i, f := range s.fields {
		region, err := resolve(resolver, f.Spec)
		if err != nil {
			return nil, fieldError(ErrInvalidMappingSpec, f.Name, f.Spec.DataType, err)
		}
		descs = append(descs, &Descriptor{
			Index:    i,
			Field:    f.Name,
			DataType: f.Spec.DataType,
			Count:    f.Spec.Count,
			Region:   region,
		})
	}
	return descs, nil
}

func (f Field[T]) validate() error {
	if f.Name == "" {
		return fmt.Errorf("%w: field at address %q has no name", ErrInvalidMappingSpec, f.Spec.Address)
	}
	if err := f.Spec.Validate(); err != nil {
		return fieldError(ErrInvalidMappingSpec, f.Name, f.Spec.DataType, err)
	}
	if f.probe != nil && !codec.Accepts(f.Spec.DataType, f.probe) {
		return fieldError(ErrInvalidMappingSpec, f.Name, f.Spec.DataType,
			fmt.Errorf("type mismatch: %T cannot hold %s", f.probe, f.Spec.DataType))
	}
	if f.get == nil || f.set == nil {
		return fieldError(ErrInvalidMappingSpec, f.Name, f.Spec.DataType, fmt.Errorf("missing accessor"))
	}
	return nil
}

func resolve(resolver Resolver, spec MappingSpec) (address.Region, error) {
	switch spec.DataType {
	case types.DataTypeBool:
		return resolver.ResolveBit(spec.Address)
	case types.DataTypeString:
		region, err := resolver.ResolveByte(spec.Address, codec.Length(spec.DataType, spec.Count))
		if err != nil {
			return address.Region{}, err
		}
		// byte 0 at the declared address holds the controller's maximum
		// length and is never written
		return region.Shift(1), nil
	default:
		return resolver.ResolveByte(spec.Address, codec.Length(spec.DataType, spec.Count))
	}
}
