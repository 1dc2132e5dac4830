package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KevinKickass/plcmap/internal/address"
	"github.com/KevinKickass/plcmap/internal/modbus"
	"github.com/spf13/viper"
)

const (
	ChannelModbus = "modbus"
	ChannelMemory = "memory"
)

type Config struct {
	PLC    PLCConfig    `mapstructure:"plc"`
	Modbus ModbusConfig `mapstructure:"modbus"`
	Poll   PollConfig   `mapstructure:"poll"`
	Log    LogConfig    `mapstructure:"log"`
}

type PLCConfig struct {
	Channel string `mapstructure:"channel"`
}

type ModbusConfig struct {
	Address string            `mapstructure:"address"`
	UnitID  int               `mapstructure:"unit_id"`
	Timeout time.Duration     `mapstructure:"timeout"`
	Blocks  map[string]uint16 `mapstructure:"blocks"` // data block number -> first holding register
	Areas   map[string]uint16 `mapstructure:"areas"`  // I, Q, M -> first holding register
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// Load reads the config file at path. An empty path uses defaults and
// environment variables only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("plc.channel", ChannelModbus)
	v.SetDefault("modbus.address", "127.0.0.1:502")
	v.SetDefault("modbus.unit_id", 1)
	v.SetDefault("modbus.timeout", "1s")
	v.SetDefault("modbus.blocks", map[string]uint16{"1": 0})
	v.SetDefault("poll.interval", "1s")
	v.SetDefault("log.development", false)

	// Environment Variables mit Prefix PLCMAP_
	v.SetEnvPrefix("PLCMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.PLC.Channel {
	case ChannelModbus:
		if c.Modbus.Address == "" {
			return fmt.Errorf("modbus.address is required")
		}
		if c.Modbus.Timeout <= 0 {
			return fmt.Errorf("modbus.timeout must be positive")
		}
		if c.Modbus.UnitID < 0 || c.Modbus.UnitID > 255 {
			return fmt.Errorf("modbus.unit_id must be 0-255, got %d", c.Modbus.UnitID)
		}
		if _, err := c.Modbus.RegisterMap(); err != nil {
			return err
		}
	case ChannelMemory:
	default:
		return fmt.Errorf("unknown plc.channel %q", c.PLC.Channel)
	}

	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}

	return nil
}

// RegisterMap converts the configured bases into a modbus.RegisterMap.
func (m *ModbusConfig) RegisterMap() (modbus.RegisterMap, error) {
	rm := modbus.RegisterMap{
		Blocks: make(map[int]uint16, len(m.Blocks)),
		Areas:  make(map[address.Area]uint16, len(m.Areas)),
	}

	for key, base := range m.Blocks {
		db, err := strconv.Atoi(key)
		if err != nil || db <= 0 {
			return modbus.RegisterMap{}, fmt.Errorf("modbus.blocks: invalid data block number %q", key)
		}
		rm.Blocks[db] = base
	}

	for key, base := range m.Areas {
		// viper lower-cases map keys
		switch area := address.Area(strings.ToUpper(key)); area {
		case address.AreaInput, address.AreaOutput, address.AreaFlag:
			rm.Areas[area] = base
		default:
			return modbus.RegisterMap{}, fmt.Errorf("modbus.areas: unknown area %q", key)
		}
	}

	return rm, nil
}
