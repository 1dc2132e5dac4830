package serializer

import (
	"errors"
	"fmt"

	"github.com/KevinKickass/plcmap/internal/types"
)

// MappingSpec declares where and how one record field lives in controller
// memory.
type MappingSpec struct {
	Address  string
	DataType types.DataType
	Count    int
}

// Spec is shorthand for a MappingSpec literal.
func Spec(addr string, dt types.DataType, count int) MappingSpec {
	return MappingSpec{Address: addr, DataType: dt, Count: count}
}

// Validate checks the address, type and count rules.
func (s MappingSpec) Validate() error {
	switch {
	case s.Address == "":
		return errors.New("address must not be empty")
	case !s.DataType.Valid():
		return fmt.Errorf("unknown data type %q", s.DataType)
	case s.Count < 0:
		return fmt.Errorf("count must not be negative, got %d", s.Count)
	case s.DataType == types.DataTypeString && s.Count > types.MaxStringLength:
		return fmt.Errorf("string count must not exceed %d, got %d", types.MaxStringLength, s.Count)
	case s.DataType.Scalar() && s.Count > 1:
		return fmt.Errorf("only byte and string fields may have count > 1, got %d", s.Count)
	}
	return nil
}
