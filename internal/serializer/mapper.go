package serializer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KevinKickass/plcmap/internal/address"
	"github.com/KevinKickass/plcmap/internal/codec"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Channel exchanges raw bytes with a controller. Both calls are a single
// request/response exchange and must keep the order of the regions.
type Channel interface {
	BatchRead(ctx context.Context, regions []address.Region) ([][]byte, error)
	BatchWrite(ctx context.Context, regions []address.Region, payloads [][]byte) error
}

// Mapper reads and writes whole records of type T through a Channel.
type Mapper[T any] struct {
	schema   *Schema[T]
	channel  Channel
	resolver Resolver
	logger   *zap.Logger
}

// NewMapper builds a Mapper. A nil resolver falls back to the address
// parser and a nil logger to a no-op logger.
func NewMapper[T any](schema *Schema[T], channel Channel, resolver Resolver, logger *zap.Logger) *Mapper[T] {
	if resolver == nil {
		resolver = address.NewParser()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Mapper[T]{
		schema:   schema,
		channel:  channel,
		resolver: resolver,
		logger:   logger,
	}
}

// Schema returns the mapping table the Mapper works with.
func (m *Mapper[T]) Schema() *Schema[T] {
	return m.schema
}

// Read fetches every mapped field in one batch and returns a new record.
// Either every field decodes or no record is returned.
func (m *Mapper[T]) Read(ctx context.Context) (*T, error) {
	start := time.Now()
	callID := uuid.New()

	descs, err := m.schema.Descriptors(m.resolver)
	if err != nil {
		return nil, err
	}

	payloads, err := m.channel.BatchRead(ctx, regionsOf(descs))
	if err != nil {
		return nil, err
	}

	if len(payloads) != len(descs) {
		return nil, fmt.Errorf("%w: requested %d regions, received %d payloads",
			ErrResponseCountMismatch, len(descs), len(payloads))
	}

	for i, d := range descs {
		d.Payload = payloads[i]
	}

	record := new(T)
	for _, d := range descs {
		value, err := codec.Decode(d.DataType, d.Count, d.Payload)
		if err != nil {
			return nil, fieldError(ErrDecodeFailure, d.Field, d.DataType, err)
		}
		if err := m.schema.fields[d.Index].set(record, value); err != nil {
			return nil, fieldError(ErrDecodeFailure, d.Field, d.DataType, err)
		}
	}

	m.logger.Debug("Record read",
		zap.String("call_id", callID.String()),
		zap.Int("fields", len(descs)),
		zap.Duration("duration", time.Since(start)))

	return record, nil
}

// Write encodes every field that holds a value and sends them in one batch.
// Absent fields are skipped, not written and not reported. The record is
// only read from.
func (m *Mapper[T]) Write(ctx context.Context, record *T) error {
	if record == nil {
		return errors.New("nil record")
	}

	start := time.Now()
	callID := uuid.New()

	descs, err := m.schema.Descriptors(m.resolver)
	if err != nil {
		return err
	}

	pending := make([]*Descriptor, 0, len(descs))
	for _, d := range descs {
		value, ok := m.schema.fields[d.Index].get(record)
		if !ok {
			continue
		}

		payload, err := codec.Encode(d.DataType, d.Count, value)
		if err != nil {
			return fieldError(ErrEncodeFailure, d.Field, d.DataType, err)
		}
		d.Payload = payload
		pending = append(pending, d)
	}

	if len(pending) == 0 {
		m.logger.Debug("Record write skipped, no field holds a value",
			zap.String("call_id", callID.String()))
		return nil
	}

	if err := m.channel.BatchWrite(ctx, regionsOf(pending), payloadsOf(pending)); err != nil {
		return err
	}

	m.logger.Debug("Record written",
		zap.String("call_id", callID.String()),
		zap.Int("fields", len(pending)),
		zap.Int("skipped", len(descs)-len(pending)),
		zap.Duration("duration", time.Since(start)))

	return nil
}

func regionsOf(descs []*Descriptor) []address.Region {
	regions := make([]address.Region, len(descs))
	for i, d := range descs {
		regions[i] = d.Region
	}
	return regions
}

func payloadsOf(descs []*Descriptor) [][]byte {
	payloads := make([][]byte, len(descs))
	for i, d := range descs {
		payloads[i] = d.Payload
	}
	return payloads
}
