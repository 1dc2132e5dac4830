// Package codec converts between Go values and the raw big-endian bytes a
// controller stores for each data type.
//
// Every supported kind has exactly one encoder and one decoder, registered in
// a fixed table. The Go value for each kind is:
//
//	bool         bool
//	byte         []byte
//	uint16       uint16
//	int16        int16
//	uint32       uint32
//	int32        int32
//	time         time.Duration (milliseconds on the wire)
//	float32      float32
//	float64      float64
//	string       string
//	date         time.Time (days since 1990-01-01 on the wire)
//	time_of_day  time.Duration since midnight (milliseconds on the wire)
//	dtl          time.Time
package codec

import (
	"errors"
	"fmt"

	"github.com/KevinKickass/plcmap/internal/types"
)

var ErrUnsupportedDataType = errors.New("unsupported data type")

type kindCodec struct {
	encode  func(count int, v any) ([]byte, error)
	decode  func(count int, payload []byte) (any, error)
	accepts func(v any) bool
}

var codecs = map[types.DataType]kindCodec{
	types.DataTypeBool:      typed(encodeBool, decodeBool),
	types.DataTypeByte:      typed(encodeBytes, decodeBytes),
	types.DataTypeUint16:    typed(encodeUint16, decodeUint16),
	types.DataTypeInt16:     typed(encodeInt16, decodeInt16),
	types.DataTypeUint32:    typed(encodeUint32, decodeUint32),
	types.DataTypeInt32:     typed(encodeInt32, decodeInt32),
	types.DataTypeTime:      typed(encodeTime, decodeTime),
	types.DataTypeFloat32:   typed(encodeFloat32, decodeFloat32),
	types.DataTypeFloat64:   typed(encodeFloat64, decodeFloat64),
	types.DataTypeString:    typed(encodeString, decodeString),
	types.DataTypeDate:      typed(encodeDate, decodeDate),
	types.DataTypeTimeOfDay: typed(encodeTimeOfDay, decodeTimeOfDay),
	types.DataTypeDTL:       typed(encodeDTL, decodeDTL),
}

func typed[V any](enc func(int, V) ([]byte, error), dec func(int, []byte) (V, error)) kindCodec {
	return kindCodec{
		encode: func(count int, v any) ([]byte, error) {
			tv, ok := v.(V)
			if !ok {
				var zero V
				return nil, fmt.Errorf("expected %T, got %T", zero, v)
			}
			return enc(count, tv)
		},
		decode: func(count int, payload []byte) (any, error) {
			return dec(count, payload)
		},
		accepts: func(v any) bool {
			_, ok := v.(V)
			return ok
		},
	}
}

func lookup(dt types.DataType) (kindCodec, error) {
	c, ok := codecs[dt]
	if !ok {
		return kindCodec{}, fmt.Errorf("%w: %q", ErrUnsupportedDataType, dt)
	}
	return c, nil
}

// Encode renders v as the wire bytes of dt. count is the element count for
// byte and string kinds and is ignored otherwise.
func Encode(dt types.DataType, count int, v any) ([]byte, error) {
	c, err := lookup(dt)
	if err != nil {
		return nil, err
	}
	return c.encode(count, v)
}

// Decode interprets payload as dt and returns the matching Go value.
func Decode(dt types.DataType, count int, payload []byte) (any, error) {
	c, err := lookup(dt)
	if err != nil {
		return nil, err
	}
	return c.decode(count, payload)
}

// Accepts reports whether v has the Go type that dt encodes from and decodes
// to. A zero value works as a type probe.
func Accepts(dt types.DataType, v any) bool {
	c, err := lookup(dt)
	if err != nil {
		return false
	}
	return c.accepts(v)
}

// Length is the region length in bytes for count elements of dt.
func Length(dt types.DataType, count int) int {
	switch dt {
	case types.DataTypeByte:
		return count
	case types.DataTypeString:
		// leading length byte plus the characters
		return 1 + count*dt.ByteLength()
	default:
		return dt.ByteLength()
	}
}

func need(payload []byte, n int) error {
	if len(payload) < n {
		return fmt.Errorf("payload too short: need %d bytes, got %d", n, len(payload))
	}
	return nil
}
