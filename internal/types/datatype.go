package types

import "fmt"

// DataType is the logical type of a mapped controller variable.
type DataType string

const (
	DataTypeBool      DataType = "bool"
	DataTypeByte      DataType = "byte"
	DataTypeUint16    DataType = "uint16"
	DataTypeInt16     DataType = "int16"
	DataTypeUint32    DataType = "uint32"
	DataTypeInt32     DataType = "int32"
	DataTypeTime      DataType = "time"
	DataTypeFloat32   DataType = "float32"
	DataTypeFloat64   DataType = "float64"
	DataTypeString    DataType = "string"
	DataTypeDate      DataType = "date"
	DataTypeTimeOfDay DataType = "time_of_day"
	DataTypeDTL       DataType = "dtl"
)

// MaxStringLength is the largest character count a controller string can hold.
const MaxStringLength = 254

// DataTypes lists every supported kind in declaration order.
var DataTypes = []DataType{
	DataTypeBool,
	DataTypeByte,
	DataTypeUint16,
	DataTypeInt16,
	DataTypeUint32,
	DataTypeInt32,
	DataTypeTime,
	DataTypeFloat32,
	DataTypeFloat64,
	DataTypeString,
	DataTypeDate,
	DataTypeTimeOfDay,
	DataTypeDTL,
}

// ByteLength returns the wire width of one element. Zero for unknown kinds.
func (dt DataType) ByteLength() int {
	switch dt {
	case DataTypeBool, DataTypeByte, DataTypeString:
		return 1
	case DataTypeUint16, DataTypeInt16, DataTypeDate:
		return 2
	case DataTypeUint32, DataTypeInt32, DataTypeTime, DataTypeFloat32, DataTypeTimeOfDay:
		return 4
	case DataTypeFloat64:
		return 8
	case DataTypeDTL:
		return 12
	default:
		return 0
	}
}

// Valid reports whether dt is one of the supported kinds.
func (dt DataType) Valid() bool {
	return dt.ByteLength() > 0
}

// Scalar reports whether the kind holds exactly one element.
func (dt DataType) Scalar() bool {
	return dt != DataTypeByte && dt != DataTypeString
}

func (dt DataType) String() string {
	return string(dt)
}

// ParseDataType maps a layout or CLI name onto a DataType.
func ParseDataType(s string) (DataType, error) {
	dt := DataType(s)
	if !dt.Valid() {
		return "", fmt.Errorf("unknown data type: %q", s)
	}
	return dt, nil
}
