package cmd

import (
	"fmt"
	"strings"

	"github.com/KevinKickass/plcmap/internal/layout"
	"github.com/spf13/cobra"
)

var assignments []string

var writeCmd = &cobra.Command{
	Use:   "write --set name=value [--set name=value ...]",
	Short: "Write selected fields of the record",
	Long: `Write selected fields of the record. Fields not named with --set are
left untouched on the controller.

Example:
  plcmap write -l tank.yaml --set level=12 --set label="pump A"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		record, err := parseAssignments(current.layout, assignments)
		if err != nil {
			return err
		}
		if err := current.mapper.Write(cmd.Context(), &record); err != nil {
			return fmt.Errorf("write failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d field(s)\n", len(record))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().StringArrayVar(&assignments, "set", nil, "Field assignment name=value (repeatable)")
	writeCmd.MarkFlagRequired("set")
}

// parseAssignments turns name=value pairs into a record holding only the
// named fields.
func parseAssignments(l *layout.Layout, pairs []string) (layout.Record, error) {
	record := make(layout.Record, len(pairs))
	for _, pair := range pairs {
		name, text, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q, want name=value", pair)
		}

		f, ok := l.Field(name)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", name)
		}

		v, err := layout.ParseValue(f.Type, text)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		record[name] = v
	}
	return record, nil
}
