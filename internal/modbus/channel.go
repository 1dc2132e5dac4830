package modbus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/KevinKickass/plcmap/internal/address"
	"go.uber.org/zap"
)

var ErrUnmappedRegion = errors.New("region has no holding register mapping")

// RegisterMap places controller memory areas onto holding registers, as
// exposed by a Modbus gateway. Byte n of an area lives in register base+n/2,
// high byte first.
type RegisterMap struct {
	Blocks map[int]uint16          // data block number -> first register
	Areas  map[address.Area]uint16 // I, Q, M -> first register
}

func (m RegisterMap) base(r address.Region) (uint16, bool) {
	if r.Area == address.AreaDB {
		base, ok := m.Blocks[r.DBNumber]
		return base, ok
	}
	base, ok := m.Areas[r.Area]
	return base, ok
}

// Channel serves region reads and writes over Modbus TCP. Regions that do
// not start or end on a register boundary, and single bits, are written by
// read-modify-write of the covering registers.
type Channel struct {
	client    *Client
	unitID    uint8
	registers RegisterMap
	logger    *zap.Logger
}

func NewChannel(client *Client, unitID uint8, registers RegisterMap, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Channel{
		client:    client,
		unitID:    unitID,
		registers: registers,
		logger:    logger,
	}
}

// span is the run of registers covering a region.
type span struct {
	first uint16
	count int
	skew  int // byte position of the region inside the first register
}

func (ch *Channel) span(r address.Region) (span, error) {
	base, ok := ch.registers.base(r)
	if !ok {
		return span{}, fmt.Errorf("%w: %s", ErrUnmappedRegion, r)
	}

	start, end := r.ByteOffset, r.End()
	if end <= start {
		return span{first: base}, nil
	}

	first := int(base) + start/2
	count := (end-1)/2 - start/2 + 1
	if first+count > 0x10000 {
		return span{}, fmt.Errorf("%w: %s exceeds the register space", ErrUnmappedRegion, r)
	}

	return span{first: uint16(first), count: count, skew: start % 2}, nil
}

func (ch *Channel) BatchRead(ctx context.Context, regions []address.Region) ([][]byte, error) {
	spans := make([]span, len(regions))
	for i, r := range regions {
		sp, err := ch.span(r)
		if err != nil {
			return nil, err
		}
		spans[i] = sp
	}

	if err := ch.client.Connect(); err != nil {
		return nil, err
	}

	payloads := make([][]byte, len(regions))
	for i, r := range regions {
		raw, err := ch.readSpan(ctx, spans[i])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", r, err)
		}

		skew := spans[i].skew
		if r.Bit {
			payloads[i] = []byte{(raw[skew] >> r.BitOffset) & 0x01}
			continue
		}
		payloads[i] = raw[skew : skew+r.Length]
	}

	ch.logger.Debug("Modbus batch read", zap.Int("regions", len(regions)))

	return payloads, nil
}

func (ch *Channel) BatchWrite(ctx context.Context, regions []address.Region, payloads [][]byte) error {
	if len(regions) != len(payloads) {
		return fmt.Errorf("got %d regions and %d payloads", len(regions), len(payloads))
	}

	spans := make([]span, len(regions))
	for i, r := range regions {
		want := r.Length
		if r.Bit {
			want = 1
		}
		if len(payloads[i]) != want {
			return fmt.Errorf("payload for %s has %d bytes, want %d", r, len(payloads[i]), want)
		}

		sp, err := ch.span(r)
		if err != nil {
			return err
		}
		spans[i] = sp
	}

	if err := ch.client.Connect(); err != nil {
		return err
	}

	for i, r := range regions {
		if err := ch.writeRegion(ctx, r, spans[i], payloads[i]); err != nil {
			return fmt.Errorf("write %s: %w", r, err)
		}
	}

	ch.logger.Debug("Modbus batch write", zap.Int("regions", len(regions)))

	return nil
}

func (ch *Channel) writeRegion(ctx context.Context, r address.Region, sp span, payload []byte) error {
	if sp.count == 0 {
		return nil
	}

	var raw []byte
	if r.Bit || sp.skew != 0 || len(payload)%2 != 0 {
		current, err := ch.readSpan(ctx, sp)
		if err != nil {
			return err
		}
		raw = current
	} else {
		raw = make([]byte, 2*sp.count)
	}

	if r.Bit {
		mask := byte(1) << r.BitOffset
		if payload[0]&0x01 != 0 {
			raw[sp.skew] |= mask
		} else {
			raw[sp.skew] &^= mask
		}
	} else {
		copy(raw[sp.skew:], payload)
	}

	return ch.writeSpan(ctx, sp, raw)
}

func (ch *Channel) readSpan(ctx context.Context, sp span) ([]byte, error) {
	raw := make([]byte, 0, 2*sp.count)
	for done := 0; done < sp.count; {
		n := min(sp.count-done, MaxRegistersPerRead)
		registers, err := ch.client.ReadHoldingRegisters(ctx, ch.unitID, sp.first+uint16(done), uint16(n))
		if err != nil {
			return nil, err
		}
		for _, v := range registers {
			raw = binary.BigEndian.AppendUint16(raw, v)
		}
		done += n
	}
	return raw, nil
}

func (ch *Channel) writeSpan(ctx context.Context, sp span, raw []byte) error {
	for done := 0; done < sp.count; {
		n := min(sp.count-done, MaxRegistersPerWrite)
		values := make([]uint16, n)
		for i := range values {
			values[i] = binary.BigEndian.Uint16(raw[2*(done+i):])
		}
		if err := ch.client.WriteMultipleRegisters(ctx, ch.unitID, sp.first+uint16(done), values); err != nil {
			return err
		}
		done += n
	}
	return nil
}
