package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/KevinKickass/plcmap/internal/config"
	"github.com/KevinKickass/plcmap/internal/layout"
	"github.com/KevinKickass/plcmap/internal/modbus"
	"github.com/KevinKickass/plcmap/internal/plc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const pumpLayout = `
name: pump
fields:
  - name: running
    address: M0.0
    type: bool
  - name: speed
    address: DB2.0
    type: float32
  - name: label
    address: DB2.4
    type: string
    count: 10
`

func loadPump(t *testing.T) *layout.Layout {
	t.Helper()
	l, err := layout.Parse([]byte(pumpLayout))
	require.NoError(t, err)
	return l
}

func TestParseAssignments(t *testing.T) {
	l := loadPump(t)

	record, err := parseAssignments(l, []string{"speed=1.5", "label=a=b"})
	require.NoError(t, err)
	assert.Equal(t, layout.Record{"speed": float32(1.5), "label": "a=b"}, record)

	testCases := []struct {
		name  string
		pairs []string
	}{
		{"no equals", []string{"speed"}},
		{"unknown field", []string{"pressure=3"}},
		{"bad value", []string{"running=maybe"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseAssignments(l, tc.pairs)
			assert.Error(t, err)
		})
	}
}

func TestPrintRecord(t *testing.T) {
	l := loadPump(t)

	var buf bytes.Buffer
	printRecord(&buf, l, layout.Record{"running": true, "speed": float32(2.25)})

	assert.Equal(t, "running = true\nspeed = 2.25\nlabel = <absent>\n", buf.String())
}

func TestOpenChannel(t *testing.T) {
	logger := zap.NewNop()

	channel, closeFn, err := openChannel(&config.Config{PLC: config.PLCConfig{Channel: config.ChannelMemory}}, logger)
	require.NoError(t, err)
	assert.IsType(t, &plc.Memory{}, channel)
	assert.NoError(t, closeFn())

	channel, closeFn, err = openChannel(&config.Config{
		PLC: config.PLCConfig{Channel: config.ChannelModbus},
		Modbus: config.ModbusConfig{
			Address: "127.0.0.1:1",
			Timeout: time.Second,
			Blocks:  map[string]uint16{"2": 100},
		},
	}, logger)
	require.NoError(t, err)
	assert.IsType(t, &modbus.Channel{}, channel)
	assert.NoError(t, closeFn())

	_, _, err = openChannel(&config.Config{PLC: config.PLCConfig{Channel: "serial"}}, logger)
	assert.Error(t, err)
}
