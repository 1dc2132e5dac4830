package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KevinKickass/plcmap/internal/layout"
	"github.com/KevinKickass/plcmap/internal/serializer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Read the record cyclically until interrupted",
	Long: `Read the record every poll.interval and print each result.
Failed reads are logged and polling continues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		poller := serializer.NewPoller(current.layout.Name, current.mapper, current.cfg.Poll.Interval,
			func(record *layout.Record) {
				printRecord(out, current.layout, *record)
				fmt.Fprintln(out)
			}, current.logger)

		if err := poller.Start(); err != nil {
			return err
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case <-sigChan:
			current.logger.Info("Shutdown signal received")
		case <-cmd.Context().Done():
		}

		poller.Stop()
		current.logger.Info("Watch stopped", zap.String("record", current.layout.Name))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
