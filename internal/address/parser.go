package address

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidAddress = errors.New("invalid address")

// Parser turns address strings such as "DB1.2.3", "DB1.DBW4", "M10.0" or
// "V100" into regions.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ResolveBit resolves a single-bit region. A missing bit part means bit 0.
func (p *Parser) ResolveBit(addr string) (Region, error) {
	loc, err := parse(addr)
	if err != nil {
		return Region{}, err
	}
	if loc.width != 0 && loc.width != 'X' {
		return Region{}, invalid(addr, "byte width prefix on a bit address")
	}

	return Region{
		Area:       loc.area,
		DBNumber:   loc.db,
		ByteOffset: loc.byteOffset,
		BitOffset:  loc.bitOffset,
		Length:     1,
		Bit:        true,
	}, nil
}

// ResolveByte resolves a byte range of the given length starting at addr.
func (p *Parser) ResolveByte(addr string, length int) (Region, error) {
	if length < 0 {
		return Region{}, invalid(addr, fmt.Sprintf("negative length %d", length))
	}

	loc, err := parse(addr)
	if err != nil {
		return Region{}, err
	}
	if loc.hasBit && loc.bitOffset != 0 {
		return Region{}, invalid(addr, "bit offset on a byte address")
	}

	return Region{
		Area:       loc.area,
		DBNumber:   loc.db,
		ByteOffset: loc.byteOffset,
		Length:     length,
	}, nil
}

type location struct {
	area       Area
	db         int
	byteOffset int
	bitOffset  int
	hasBit     bool
	width      byte // X, B, W, D or 0 when absent
}

func parse(addr string) (location, error) {
	s := strings.ToUpper(strings.TrimSpace(addr))
	if s == "" {
		return location{}, invalid(addr, "empty")
	}

	var loc location
	var rest string

	switch {
	case strings.HasPrefix(s, "DB"):
		head, tail, ok := strings.Cut(s[2:], ".")
		if !ok {
			return location{}, invalid(addr, "missing byte offset")
		}
		db, err := strconv.Atoi(head)
		if err != nil || db <= 0 {
			return location{}, invalid(addr, "bad data block number")
		}
		loc.area = AreaDB
		loc.db = db
		rest = tail
		if strings.HasPrefix(rest, "DB") && len(rest) > 2 {
			loc.width = rest[2]
			rest = rest[3:]
		}
	case s[0] == 'V':
		// V memory is an alias of DB1
		loc.area = AreaDB
		loc.db = 1
		rest = s[1:]
	case s[0] == 'I' || s[0] == 'Q' || s[0] == 'M':
		loc.area = Area(s[:1])
		rest = s[1:]
		if len(rest) > 0 && strings.IndexByte("XBWD", rest[0]) >= 0 {
			loc.width = rest[0]
			rest = rest[1:]
		}
	default:
		return location{}, invalid(addr, "unknown area")
	}

	if loc.width != 0 && strings.IndexByte("XBWD", loc.width) < 0 {
		return location{}, invalid(addr, "unknown width prefix")
	}

	byteStr, bitStr, hasBit := strings.Cut(rest, ".")
	offset, err := strconv.Atoi(byteStr)
	if err != nil || offset < 0 {
		return location{}, invalid(addr, "bad byte offset")
	}
	loc.byteOffset = offset

	if hasBit {
		bit, err := strconv.Atoi(bitStr)
		if err != nil || bit < 0 || bit > 7 {
			return location{}, invalid(addr, "bit offset must be 0-7")
		}
		loc.bitOffset = bit
		loc.hasBit = true
	}

	switch {
	case loc.width == 'X' && !hasBit:
		return location{}, invalid(addr, "bit address without bit offset")
	case loc.width != 0 && loc.width != 'X' && hasBit:
		return location{}, invalid(addr, "bit offset on a byte address")
	}

	return loc, nil
}

func invalid(addr, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidAddress, addr, reason)
}
