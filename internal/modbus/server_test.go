package modbus

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// testServer is a minimal Modbus TCP slave with one holding register bank.
type testServer struct {
	listener  net.Listener
	mu        sync.Mutex
	registers []uint16
	requests  []uint8 // function codes in arrival order
	exception uint8   // when set, every request fails with this code
	txnSkew   uint16  // added to the transaction ID of every reply
}

func newTestServer(t *testing.T, size int) *testServer {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &testServer{listener: l, registers: make([]uint16, size)}
	go s.serve()
	t.Cleanup(func() { _ = l.Close() })

	return s
}

func (s *testServer) addr() string {
	return s.listener.Addr().String()
}

func (s *testServer) functionCodes() []uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint8(nil), s.requests...)
}

func (s *testServer) setRegisters(start int, values ...uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.registers[start:], values)
}

func (s *testServer) registerRange(start, end int) []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint16(nil), s.registers[start:end]...)
}

func (s *testServer) failWith(code uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exception = code
}

func (s *testServer) skewTransactions(n uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txnSkew = n
}

func (s *testServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *testServer) handle(conn net.Conn) {
	defer conn.Close()

	for {
		header := make([]byte, 6)
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		body := make([]byte, binary.BigEndian.Uint16(header[4:6]))
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}

		request, err := DecodeFrame(append(header, body...))
		if err != nil {
			return
		}

		response := &ModbusFrame{
			TransactionID: request.TransactionID,
			UnitID:        request.UnitID,
			FunctionCode:  request.FunctionCode,
			Data:          s.apply(request),
		}
		s.mu.Lock()
		response.TransactionID += s.txnSkew
		if s.exception != 0 {
			response.FunctionCode |= exceptionFlag
			response.Data = []byte{s.exception}
		}
		s.mu.Unlock()

		if _, err := conn.Write(response.Encode()); err != nil {
			return
		}
	}
}

func (s *testServer) apply(request *ModbusFrame) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, request.FunctionCode)

	start := binary.BigEndian.Uint16(request.Data[0:2])
	quantity := binary.BigEndian.Uint16(request.Data[2:4])

	switch request.FunctionCode {
	case FuncCodeReadHoldingRegisters:
		data := []byte{byte(2 * quantity)}
		for i := uint16(0); i < quantity; i++ {
			data = binary.BigEndian.AppendUint16(data, s.registers[start+i])
		}
		return data
	case FuncCodeWriteMultipleRegisters:
		for i := uint16(0); i < quantity; i++ {
			s.registers[start+i] = binary.BigEndian.Uint16(request.Data[5+2*i:])
		}
		return request.Data[0:4]
	}
	return nil
}
