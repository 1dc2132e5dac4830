package modbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KevinKickass/plcmap/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChannel(t *testing.T, srv *testServer) *Channel {
	t.Helper()

	client := NewClient(srv.addr(), time.Second)
	t.Cleanup(func() { _ = client.Close() })

	return NewChannel(client, 1, RegisterMap{
		Blocks: map[int]uint16{1: 0, 2: 100},
		Areas:  map[address.Area]uint16{address.AreaFlag: 200},
	}, nil)
}

func TestChannel_ReadAlignedAndSkewed(t *testing.T) {
	srv := newTestServer(t, 512)
	srv.setRegisters(0, 0x0102, 0x0304)
	srv.setRegisters(100, 0xA0B0)
	ch := newTestChannel(t, srv)

	payloads, err := ch.BatchRead(context.Background(), []address.Region{
		{Area: address.AreaDB, DBNumber: 1, ByteOffset: 0, Length: 4},
		{Area: address.AreaDB, DBNumber: 1, ByteOffset: 1, Length: 2},
		{Area: address.AreaDB, DBNumber: 2, ByteOffset: 0, BitOffset: 5, Length: 1, Bit: true},
		{Area: address.AreaDB, DBNumber: 2, ByteOffset: 1, BitOffset: 4, Length: 1, Bit: true},
	})
	require.NoError(t, err)
	require.Len(t, payloads, 4)

	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, payloads[0])
	assert.Equal(t, []byte{0x02, 0x03}, payloads[1])
	assert.Equal(t, []byte{0x01}, payloads[2]) // 0xA0 bit 5
	assert.Equal(t, []byte{0x01}, payloads[3]) // 0xB0 bit 4
}

func TestChannel_WriteAligned(t *testing.T) {
	srv := newTestServer(t, 512)
	ch := newTestChannel(t, srv)

	err := ch.BatchWrite(context.Background(),
		[]address.Region{{Area: address.AreaFlag, ByteOffset: 2, Length: 4}},
		[][]byte{{0xDE, 0xAD, 0xBE, 0xEF}})
	require.NoError(t, err)

	assert.Equal(t, []uint16{0xDEAD, 0xBEEF}, srv.registerRange(201, 203))
	assert.Equal(t, []uint8{FuncCodeWriteMultipleRegisters}, srv.functionCodes(), "no read needed")
}

func TestChannel_WriteSkewedKeepsNeighbours(t *testing.T) {
	srv := newTestServer(t, 512)
	srv.setRegisters(0, 0x1111, 0x2222)
	ch := newTestChannel(t, srv)

	// string region shifted one byte past its max length byte
	err := ch.BatchWrite(context.Background(),
		[]address.Region{{Area: address.AreaDB, DBNumber: 1, ByteOffset: 1, Length: 2}},
		[][]byte{{0xAB, 0xCD}})
	require.NoError(t, err)

	assert.Equal(t, []uint16{0x11AB, 0xCD22}, srv.registerRange(0, 2))
	assert.Equal(t, []uint8{FuncCodeReadHoldingRegisters, FuncCodeWriteMultipleRegisters}, srv.functionCodes())
}

func TestChannel_WriteBit(t *testing.T) {
	srv := newTestServer(t, 512)
	srv.setRegisters(100, 0x00FF)
	ch := newTestChannel(t, srv)
	ctx := context.Background()

	require.NoError(t, ch.BatchWrite(ctx,
		[]address.Region{{Area: address.AreaDB, DBNumber: 2, ByteOffset: 0, BitOffset: 7, Length: 1, Bit: true}},
		[][]byte{{0x01}}))
	require.NoError(t, ch.BatchWrite(ctx,
		[]address.Region{{Area: address.AreaDB, DBNumber: 2, ByteOffset: 1, BitOffset: 0, Length: 1, Bit: true}},
		[][]byte{{0x00}}))

	assert.Equal(t, []uint16{0x80FE}, srv.registerRange(100, 101))
}

func TestChannel_LargeRegionIsChunked(t *testing.T) {
	srv := newTestServer(t, 1024)
	ch := newTestChannel(t, srv)
	ctx := context.Background()

	payload := make([]byte, 600)
	for i := range payload {
		payload[i] = byte(i)
	}
	region := address.Region{Area: address.AreaDB, DBNumber: 1, ByteOffset: 0, Length: len(payload)}

	require.NoError(t, ch.BatchWrite(ctx, []address.Region{region}, [][]byte{payload}))

	got, err := ch.BatchRead(ctx, []address.Region{region})
	require.NoError(t, err)
	assert.Equal(t, payload, got[0])

	// 300 registers: 123+123+54 on write, 125+125+50 on read
	assert.Len(t, srv.functionCodes(), 6)
}

func TestChannel_Errors(t *testing.T) {
	srv := newTestServer(t, 64)
	ch := newTestChannel(t, srv)
	ctx := context.Background()

	_, err := ch.BatchRead(ctx, []address.Region{{Area: address.AreaDB, DBNumber: 9, Length: 2}})
	assert.ErrorIs(t, err, ErrUnmappedRegion)

	err = ch.BatchWrite(ctx, []address.Region{{Area: address.AreaDB, DBNumber: 1, Length: 2}}, [][]byte{{0x01}})
	assert.Error(t, err)

	err = ch.BatchWrite(ctx, []address.Region{{Area: address.AreaDB, DBNumber: 1, Length: 2}}, nil)
	assert.Error(t, err)

	assert.Empty(t, srv.functionCodes(), "invalid batches never reach the wire")

	srv.failWith(0x02)
	_, err = ch.BatchRead(ctx, []address.Region{{Area: address.AreaDB, DBNumber: 1, Length: 2}})
	var exc *ExceptionError
	require.True(t, errors.As(err, &exc))
	assert.Equal(t, uint8(0x02), exc.ExceptionCode)
	assert.Equal(t, uint8(FuncCodeReadHoldingRegisters), exc.FunctionCode)
}

func TestClient_TransactionMismatchDropsConnection(t *testing.T) {
	srv := newTestServer(t, 8)
	srv.setRegisters(0, 0x1234)

	client := NewClient(srv.addr(), time.Second)
	require.NoError(t, client.Connect())
	defer client.Close()

	srv.skewTransactions(1)
	_, err := client.ReadHoldingRegisters(context.Background(), 1, 0, 1)
	assert.ErrorContains(t, err, "transaction ID mismatch")
	assert.False(t, client.IsConnected())

	srv.skewTransactions(0)
	require.NoError(t, client.Connect())
	values, err := client.ReadHoldingRegisters(context.Background(), 1, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x1234}, values)
}

func TestChannel_ConnectFailure(t *testing.T) {
	client := NewClient("127.0.0.1:1", 100*time.Millisecond)
	ch := NewChannel(client, 1, RegisterMap{Blocks: map[int]uint16{1: 0}}, nil)

	_, err := ch.BatchRead(context.Background(), []address.Region{{Area: address.AreaDB, DBNumber: 1, Length: 2}})
	assert.Error(t, err)
	assert.False(t, client.IsConnected())
}

func TestFrame_EncodeDecode(t *testing.T) {
	req := WriteMultipleRegistersRequest(7, 1, 0x0010, []uint16{0x0102, 0x0304})
	raw := req.Encode()

	assert.Equal(t, []byte{
		0x00, 0x07, 0x00, 0x00, 0x00, 0x0B, 0x01,
		0x10, 0x00, 0x10, 0x00, 0x02, 0x04, 0x01, 0x02, 0x03, 0x04,
	}, raw)

	decoded, err := DecodeFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), decoded.TransactionID)
	assert.Equal(t, uint8(FuncCodeWriteMultipleRegisters), decoded.FunctionCode)

	_, err = DecodeFrame(raw[:5])
	assert.Error(t, err)

	bad := append([]byte(nil), raw...)
	bad[2] = 0x01
	_, err = DecodeFrame(bad)
	assert.Error(t, err)
}
