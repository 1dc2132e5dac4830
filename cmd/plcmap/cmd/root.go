package cmd

import (
	"fmt"
	"os"

	"github.com/KevinKickass/plcmap/internal/config"
	"github.com/KevinKickass/plcmap/internal/layout"
	"github.com/KevinKickass/plcmap/internal/modbus"
	"github.com/KevinKickass/plcmap/internal/plc"
	"github.com/KevinKickass/plcmap/internal/serializer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	layoutPath string
	simulate   bool
)

// session is everything a subcommand needs, built once per invocation.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	layout *layout.Layout
	mapper *serializer.Mapper[layout.Record]
	close  func() error
}

var current *session

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "plcmap",
	Short: "Read and write controller records",
	Long: `plcmap moves records between a controller and the command line.
A layout file names the fields of the record, their addresses and data types.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// help and completion need no controller
		if !cmd.HasParent() || cmd.Parent().HasParent() || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		current = s
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current == nil {
			return nil
		}
		defer current.logger.Sync()
		return current.close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (defaults and PLCMAP_* environment variables if empty)")
	rootCmd.PersistentFlags().StringVarP(&layoutPath, "layout", "l", "", "Record layout file")
	rootCmd.PersistentFlags().BoolVar(&simulate, "simulate", false, "Use an in-memory controller instead of Modbus")
}

func openSession() (*session, error) {
	if layoutPath == "" {
		return nil, fmt.Errorf("--layout is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if simulate {
		cfg.PLC.Channel = config.ChannelMemory
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	l, err := layout.Load(layoutPath)
	if err != nil {
		return nil, err
	}

	channel, closeChannel, err := openChannel(cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("Session opened",
		zap.String("layout", l.Name),
		zap.String("channel", cfg.PLC.Channel),
		zap.Int("fields", len(l.Fields)))

	return &session{
		cfg:    cfg,
		logger: logger,
		layout: l,
		mapper: serializer.NewMapper(l.Schema(), channel, nil, logger),
		close:  closeChannel,
	}, nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openChannel(cfg *config.Config, logger *zap.Logger) (serializer.Channel, func() error, error) {
	switch cfg.PLC.Channel {
	case config.ChannelMemory:
		return plc.NewMemory(), func() error { return nil }, nil
	case config.ChannelModbus:
		registers, err := cfg.Modbus.RegisterMap()
		if err != nil {
			return nil, nil, err
		}
		client := modbus.NewClient(cfg.Modbus.Address, cfg.Modbus.Timeout)
		channel := modbus.NewChannel(client, uint8(cfg.Modbus.UnitID), registers, logger)
		return channel, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown plc.channel %q", cfg.PLC.Channel)
	}
}
