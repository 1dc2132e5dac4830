package plc

import (
	"context"
	"testing"

	"github.com/KevinKickass/plcmap/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ReadUnwrittenIsZero(t *testing.T) {
	mem := NewMemory()

	payloads, err := mem.BatchRead(context.Background(), []address.Region{
		{Area: address.AreaDB, DBNumber: 1, ByteOffset: 10, Length: 4},
		{Area: address.AreaFlag, ByteOffset: 0, BitOffset: 3, Length: 1, Bit: true},
	})
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Equal(t, []byte{0, 0, 0, 0}, payloads[0])
	assert.Equal(t, []byte{0}, payloads[1])
}

func TestMemory_WriteThenRead(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	word := address.Region{Area: address.AreaDB, DBNumber: 2, ByteOffset: 4, Length: 2}
	bit := address.Region{Area: address.AreaDB, DBNumber: 2, ByteOffset: 4, BitOffset: 1, Length: 1, Bit: true}

	require.NoError(t, mem.BatchWrite(ctx, []address.Region{word}, [][]byte{{0x00, 0x10}}))
	require.NoError(t, mem.BatchWrite(ctx, []address.Region{bit}, [][]byte{{0x01}}))

	assert.Equal(t, []byte{0x02, 0x10}, mem.Dump(address.AreaDB, 2, 4, 2))

	payloads, err := mem.BatchRead(ctx, []address.Region{bit, word})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, payloads[0])
	assert.Equal(t, []byte{0x02, 0x10}, payloads[1])

	require.NoError(t, mem.BatchWrite(ctx, []address.Region{bit}, [][]byte{{0x00}}))
	assert.Equal(t, []byte{0x00, 0x10}, mem.Dump(address.AreaDB, 2, 4, 2))

	reads, writes := mem.Stats()
	assert.Equal(t, 1, reads)
	assert.Equal(t, 3, writes)
}

func TestMemory_BlocksAreSeparate(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, mem.Load(address.AreaDB, 1, 0, []byte{0xAA}))
	require.NoError(t, mem.Load(address.AreaDB, 2, 0, []byte{0xBB}))
	require.NoError(t, mem.Load(address.AreaFlag, 0, 0, []byte{0xCC}))

	assert.Equal(t, []byte{0xAA}, mem.Dump(address.AreaDB, 1, 0, 1))
	assert.Equal(t, []byte{0xBB}, mem.Dump(address.AreaDB, 2, 0, 1))
	assert.Equal(t, []byte{0xCC}, mem.Dump(address.AreaFlag, 0, 0, 1))
}

func TestMemory_WriteIsAllOrNothing(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	err := mem.BatchWrite(ctx,
		[]address.Region{
			{Area: address.AreaDB, DBNumber: 1, ByteOffset: 0, Length: 1},
			{Area: address.AreaDB, DBNumber: 1, ByteOffset: 1, Length: 2},
		},
		[][]byte{{0x01}, {0x02}})
	require.Error(t, err)
	assert.Equal(t, []byte{0x00}, mem.Dump(address.AreaDB, 1, 0, 1))

	err = mem.BatchWrite(ctx,
		[]address.Region{{Area: address.AreaDB, DBNumber: 1, ByteOffset: MaxAreaSize - 1, Length: 2}},
		[][]byte{{0x01, 0x02}})
	assert.ErrorIs(t, err, ErrOutOfRange)

	err = mem.BatchWrite(ctx, []address.Region{{Area: address.AreaDB, DBNumber: 1, Length: 1}}, nil)
	assert.Error(t, err)
}

func TestMemory_CancelledContext(t *testing.T) {
	mem := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mem.BatchRead(ctx, []address.Region{{Area: address.AreaDB, DBNumber: 1, Length: 1}})
	assert.ErrorIs(t, err, context.Canceled)
}
