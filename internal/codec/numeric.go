package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/KevinKickass/plcmap/internal/types"
)

func encodeBool(_ int, v bool) ([]byte, error) {
	if v {
		return []byte{0x01}, nil
	}
	return []byte{0x00}, nil
}

func decodeBool(_ int, b []byte) (bool, error) {
	if err := need(b, 1); err != nil {
		return false, err
	}
	return b[0]&0x01 != 0, nil
}

func encodeBytes(count int, v []byte) ([]byte, error) {
	if len(v) < count {
		return nil, fmt.Errorf("need %d bytes, got %d", count, len(v))
	}
	out := make([]byte, count)
	copy(out, v)
	return out, nil
}

func decodeBytes(count int, b []byte) ([]byte, error) {
	if err := need(b, count); err != nil {
		return nil, err
	}
	out := make([]byte, count)
	copy(out, b)
	return out, nil
}

func encodeUint16(_ int, v uint16) ([]byte, error) {
	return binary.BigEndian.AppendUint16(nil, v), nil
}

func decodeUint16(_ int, b []byte) (uint16, error) {
	if err := need(b, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func encodeInt16(_ int, v int16) ([]byte, error) {
	return binary.BigEndian.AppendUint16(nil, uint16(v)), nil
}

func decodeInt16(_ int, b []byte) (int16, error) {
	if err := need(b, 2); err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func encodeUint32(_ int, v uint32) ([]byte, error) {
	return binary.BigEndian.AppendUint32(nil, v), nil
}

func decodeUint32(_ int, b []byte) (uint32, error) {
	if err := need(b, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func encodeInt32(_ int, v int32) ([]byte, error) {
	return binary.BigEndian.AppendUint32(nil, uint32(v)), nil
}

func decodeInt32(_ int, b []byte) (int32, error) {
	if err := need(b, 4); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// TIME shares the uint32 wire form, counting milliseconds.
func encodeTime(_ int, v time.Duration) ([]byte, error) {
	ms := v / time.Millisecond
	if ms < 0 || ms > math.MaxUint32 {
		return nil, fmt.Errorf("duration %s out of range", v)
	}
	return binary.BigEndian.AppendUint32(nil, uint32(ms)), nil
}

func decodeTime(_ int, b []byte) (time.Duration, error) {
	ms, err := decodeUint32(0, b)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func encodeFloat32(_ int, v float32) ([]byte, error) {
	return binary.BigEndian.AppendUint32(nil, math.Float32bits(v)), nil
}

func decodeFloat32(_ int, b []byte) (float32, error) {
	if err := need(b, 4); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func encodeFloat64(_ int, v float64) ([]byte, error) {
	return binary.BigEndian.AppendUint64(nil, math.Float64bits(v)), nil
}

func decodeFloat64(_ int, b []byte) (float64, error) {
	if err := need(b, 8); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// encodeString writes the declared count into byte 0, followed by the text
// truncated or zero-padded to count bytes.
func encodeString(count int, v string) ([]byte, error) {
	if count < 0 || count > types.MaxStringLength {
		return nil, fmt.Errorf("string count %d out of range", count)
	}
	out := make([]byte, 1+count)
	out[0] = byte(count)

	i := 1
	for _, r := range v {
		if i > count {
			break
		}
		if r > unicode.MaxASCII {
			r = '?'
		}
		out[i] = byte(r)
		i++
	}
	return out, nil
}

// decodeString reads the current length from byte 0, bounded by count, and
// drops the zero padding encodeString leaves behind.
func decodeString(count int, b []byte) (string, error) {
	if err := need(b, 1); err != nil {
		return "", err
	}
	n := min(int(b[0]), count)
	if err := need(b, 1+n); err != nil {
		return "", err
	}
	return strings.TrimRight(string(b[1:1+n]), "\x00"), nil
}
