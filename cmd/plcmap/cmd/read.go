package cmd

import (
	"fmt"
	"io"

	"github.com/KevinKickass/plcmap/internal/layout"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the record once and print its fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		record, err := current.mapper.Read(cmd.Context())
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		printRecord(cmd.OutOrStdout(), current.layout, *record)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
}

// printRecord writes one "name = value" line per field, in layout order.
func printRecord(w io.Writer, l *layout.Layout, record layout.Record) {
	for _, f := range l.Fields {
		v, ok := record[f.Name]
		if !ok {
			fmt.Fprintf(w, "%s = <absent>\n", f.Name)
			continue
		}
		fmt.Fprintf(w, "%s = %s\n", f.Name, layout.FormatValue(f.Type, v))
	}
}
