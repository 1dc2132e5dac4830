package layout

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KevinKickass/plcmap/internal/types"
)

// ParseValue converts command line text into the Go value of dt.
//
//	byte         hex digits, spaces allowed: "01 02 ff"
//	time         Go duration: "1m30s"
//	date         "2006-01-02"
//	time_of_day  "15:04:05"
//	dtl          RFC 3339 with optional fraction: "2023-05-27T12:11:22.333225555Z"
func ParseValue(dt types.DataType, text string) (any, error) {
	switch dt {
	case types.DataTypeBool:
		return strconv.ParseBool(text)
	case types.DataTypeByte:
		return hex.DecodeString(strings.ReplaceAll(text, " ", ""))
	case types.DataTypeUint16:
		v, err := strconv.ParseUint(text, 0, 16)
		return uint16(v), err
	case types.DataTypeInt16:
		v, err := strconv.ParseInt(text, 0, 16)
		return int16(v), err
	case types.DataTypeUint32:
		v, err := strconv.ParseUint(text, 0, 32)
		return uint32(v), err
	case types.DataTypeInt32:
		v, err := strconv.ParseInt(text, 0, 32)
		return int32(v), err
	case types.DataTypeTime:
		return time.ParseDuration(text)
	case types.DataTypeFloat32:
		v, err := strconv.ParseFloat(text, 32)
		return float32(v), err
	case types.DataTypeFloat64:
		return strconv.ParseFloat(text, 64)
	case types.DataTypeString:
		return text, nil
	case types.DataTypeDate:
		return time.Parse(time.DateOnly, text)
	case types.DataTypeTimeOfDay:
		t, err := time.Parse(time.TimeOnly, text)
		if err != nil {
			return nil, err
		}
		return time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second, nil
	case types.DataTypeDTL:
		return time.Parse(time.RFC3339Nano, text)
	default:
		return nil, fmt.Errorf("unknown data type %q", dt)
	}
}

// FormatValue renders a decoded value in the same notation ParseValue reads.
func FormatValue(dt types.DataType, v any) string {
	switch val := v.(type) {
	case []byte:
		return hex.EncodeToString(val)
	case time.Time:
		if dt == types.DataTypeDate {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.RFC3339Nano)
	case time.Duration:
		if dt == types.DataTypeTimeOfDay {
			return time.Time{}.Add(val).Format(time.TimeOnly)
		}
		return val.String()
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}
