package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// DateEpochUnix is 1990-01-01T00:00:00Z, day zero of the DATE encoding.
const DateEpochUnix = 631152000

const (
	dtlLength = 12
	day       = 24 * time.Hour
)

func dateEpoch() time.Time {
	return time.Unix(DateEpochUnix, 0).UTC()
}

// encodeDate writes the signed 16-bit day offset from the epoch. Only
// non-negative offsets are accepted since decodeDate reads them unsigned.
func encodeDate(_ int, v time.Time) ([]byte, error) {
	y, m, d := v.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Sub(dateEpoch()) / day
	if days < 0 || days > math.MaxInt16 {
		return nil, fmt.Errorf("date %s outside the 16-bit day range from 1990-01-01", v.Format(time.DateOnly))
	}
	return binary.BigEndian.AppendUint16(nil, uint16(int16(days))), nil
}

func decodeDate(_ int, b []byte) (time.Time, error) {
	days, err := decodeUint16(0, b)
	if err != nil {
		return time.Time{}, err
	}
	return dateEpoch().AddDate(0, 0, int(days)), nil
}

// encodeTimeOfDay writes whole seconds since midnight as milliseconds.
func encodeTimeOfDay(_ int, v time.Duration) ([]byte, error) {
	if v < 0 || v >= day {
		return nil, fmt.Errorf("time of day %s out of range", v)
	}
	ms := uint32(v/time.Second) * 1000
	return binary.BigEndian.AppendUint32(nil, ms), nil
}

func decodeTimeOfDay(_ int, b []byte) (time.Duration, error) {
	ms, err := decodeUint32(0, b)
	if err != nil {
		return 0, err
	}
	v := time.Duration(ms/1000) * time.Second
	if v >= day {
		return 0, fmt.Errorf("time of day %d ms out of range", ms)
	}
	return v, nil
}

// DTL layout:
//
//	[year:u16][month:u8][day:u8][weekday:u8][hour:u8][minute:u8][second:u8][nanosecond:u32]
//
// weekday is 1 for Monday through 7 for Sunday. Fields are taken in UTC.
func encodeDTL(_ int, v time.Time) ([]byte, error) {
	v = v.UTC()
	if v.Year() < 0 || v.Year() > math.MaxUint16 {
		return nil, fmt.Errorf("year %d out of range", v.Year())
	}

	out := make([]byte, 0, dtlLength)
	out = binary.BigEndian.AppendUint16(out, uint16(v.Year()))
	out = append(out,
		byte(v.Month()),
		byte(v.Day()),
		isoWeekday(v.Weekday()),
		byte(v.Hour()),
		byte(v.Minute()),
		byte(v.Second()),
	)
	out = binary.BigEndian.AppendUint32(out, uint32(v.Nanosecond()))
	return out, nil
}

func decodeDTL(_ int, b []byte) (time.Time, error) {
	if err := need(b, dtlLength); err != nil {
		return time.Time{}, err
	}

	year := int(binary.BigEndian.Uint16(b[0:2]))
	month := time.Month(b[2])
	dom := int(b[3])
	hour, minute, second := int(b[5]), int(b[6]), int(b[7])
	nsec := binary.BigEndian.Uint32(b[8:12])

	switch {
	case month < time.January || month > time.December:
		return time.Time{}, fmt.Errorf("invalid month %d", month)
	case dom < 1 || dom > daysIn(year, month):
		return time.Time{}, fmt.Errorf("invalid day %d for %d-%02d", dom, year, month)
	case hour > 23 || minute > 59 || second > 59:
		return time.Time{}, fmt.Errorf("invalid time %02d:%02d:%02d", hour, minute, second)
	case nsec >= uint32(time.Second):
		return time.Time{}, fmt.Errorf("invalid nanosecond %d", nsec)
	}

	return time.Date(year, month, dom, hour, minute, second, int(nsec), time.UTC), nil
}

func isoWeekday(wd time.Weekday) byte {
	if wd == time.Sunday {
		return 7
	}
	return byte(wd)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
