package address

import "fmt"

// Area is a controller memory area.
type Area string

const (
	AreaDB     Area = "DB" // data block
	AreaInput  Area = "I"  // process image inputs
	AreaOutput Area = "Q"  // process image outputs
	AreaFlag   Area = "M"  // flags / merker
)

// Region is a resolved span of controller memory: either a single bit or a
// byte range. Two regions are equal when they address the same memory, no
// matter how the source address was spelled.
type Region struct {
	Area       Area
	DBNumber   int
	ByteOffset int
	BitOffset  int
	Length     int
	Bit        bool
}

// Shift returns a copy of r moved by n bytes.
func (r Region) Shift(n int) Region {
	r.ByteOffset += n
	return r
}

// End is the first byte offset past the region.
func (r Region) End() int {
	if r.Bit {
		return r.ByteOffset + 1
	}
	return r.ByteOffset + r.Length
}

func (r Region) String() string {
	prefix := string(r.Area)
	if r.Area == AreaDB {
		prefix = fmt.Sprintf("DB%d.DB", r.DBNumber)
	}
	if r.Bit {
		return fmt.Sprintf("%sX%d.%d", prefix, r.ByteOffset, r.BitOffset)
	}
	return fmt.Sprintf("%sB%d[%d]", prefix, r.ByteOffset, r.Length)
}
