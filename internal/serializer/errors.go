package serializer

import (
	"errors"
	"fmt"

	"github.com/KevinKickass/plcmap/internal/types"
)

var (
	ErrInvalidMappingSpec    = errors.New("invalid mapping spec")
	ErrEmptyDescriptorSet    = errors.New("record type has no mapped fields")
	ErrResponseCountMismatch = errors.New("response count mismatch")
	ErrDecodeFailure         = errors.New("decode failure")
	ErrEncodeFailure         = errors.New("encode failure")
)

// FieldError reports a failure tied to one mapped field. It unwraps to both
// the failure kind (one of the Err* values above) and the underlying cause.
type FieldError struct {
	Field    string
	DataType types.DataType
	Kind     error
	Err      error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: field %q (%s): %v", e.Kind, e.Field, e.DataType, e.Err)
}

func (e *FieldError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func fieldError(kind error, field string, dt types.DataType, err error) error {
	return &FieldError{Field: field, DataType: dt, Kind: kind, Err: err}
}
