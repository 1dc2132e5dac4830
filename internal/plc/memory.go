// Package plc holds controller channels that live in process. Memory is a
// simulated controller used by tests and by the CLI's simulate mode.
package plc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/KevinKickass/plcmap/internal/address"
)

// MaxAreaSize bounds every simulated data block and memory area.
const MaxAreaSize = 65536

var ErrOutOfRange = errors.New("region out of range")

type areaKey struct {
	area address.Area
	db   int
}

// Memory is an in-process controller image. Areas grow on write and read as
// zero where nothing was written yet.
type Memory struct {
	mu     sync.RWMutex
	areas  map[areaKey][]byte
	reads  int
	writes int
}

func NewMemory() *Memory {
	return &Memory{areas: make(map[areaKey][]byte)}
}

// BatchRead returns one payload per region, in request order.
func (m *Memory) BatchRead(ctx context.Context, regions []address.Region) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, r := range regions {
		if err := checkRegion(r); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	payloads := make([][]byte, len(regions))
	for i, r := range regions {
		data := m.areas[keyOf(r)]
		if r.Bit {
			payloads[i] = []byte{(byteAt(data, r.ByteOffset) >> r.BitOffset) & 0x01}
			continue
		}
		out := make([]byte, r.Length)
		if r.ByteOffset < len(data) {
			copy(out, data[r.ByteOffset:])
		}
		payloads[i] = out
	}
	return payloads, nil
}

// BatchWrite applies every payload or none of them.
func (m *Memory) BatchWrite(ctx context.Context, regions []address.Region, payloads [][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(regions) != len(payloads) {
		return fmt.Errorf("got %d regions and %d payloads", len(regions), len(payloads))
	}
	for i, r := range regions {
		if err := checkRegion(r); err != nil {
			return err
		}
		want := r.Length
		if r.Bit {
			want = 1
		}
		if len(payloads[i]) != want {
			return fmt.Errorf("payload for %s has %d bytes, want %d", r, len(payloads[i]), want)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	for i, r := range regions {
		key := keyOf(r)
		data := grow(m.areas[key], r.End())
		if r.Bit {
			mask := byte(1) << r.BitOffset
			if payloads[i][0]&0x01 != 0 {
				data[r.ByteOffset] |= mask
			} else {
				data[r.ByteOffset] &^= mask
			}
		} else {
			copy(data[r.ByteOffset:], payloads[i])
		}
		m.areas[key] = data
	}
	return nil
}

// Load places raw bytes at a byte offset, bypassing any encoding.
func (m *Memory) Load(area address.Area, db, offset int, data []byte) error {
	r := address.Region{Area: area, DBNumber: db, ByteOffset: offset, Length: len(data)}
	if err := checkRegion(r); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyOf(r)
	buf := grow(m.areas[key], r.End())
	copy(buf[offset:], data)
	m.areas[key] = buf
	return nil
}

// Dump returns a copy of length bytes starting at offset.
func (m *Memory) Dump(area address.Area, db, offset, length int) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]byte, length)
	data := m.areas[areaKey{area: area, db: db}]
	if offset < len(data) {
		copy(out, data[offset:])
	}
	return out
}

// Stats returns the number of batch reads and writes served so far.
func (m *Memory) Stats() (reads, writes int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads, m.writes
}

func keyOf(r address.Region) areaKey {
	if r.Area == address.AreaDB {
		return areaKey{area: r.Area, db: r.DBNumber}
	}
	return areaKey{area: r.Area}
}

func checkRegion(r address.Region) error {
	if r.ByteOffset < 0 || r.Length < 0 || r.End() > MaxAreaSize {
		return fmt.Errorf("%w: %s", ErrOutOfRange, r)
	}
	if r.Bit && (r.BitOffset < 0 || r.BitOffset > 7) {
		return fmt.Errorf("%w: %s", ErrOutOfRange, r)
	}
	return nil
}

func byteAt(data []byte, offset int) byte {
	if offset < len(data) {
		return data[offset]
	}
	return 0
}

func grow(data []byte, size int) []byte {
	if len(data) >= size {
		return data
	}
	out := make([]byte, size)
	copy(out, data)
	return out
}
