package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"spkstore/internal/domain"
	"spkstore/internal/store"
)

func reportCmd(c *cli) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a diagnostics report for the scope",
		Long: "Print stored ids, the current id and the watchdog state. With the " +
			"default log format the report goes to the log; json and yaml print it.",
		Args: cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			sc := c.scopeState()
			if format == "log" {
				return c.wire.DB.View(cmd.Context(), sc.Diagnostics.LogSignedPreKeyReport)
			}

			var r store.Report
			err := c.wire.DB.View(cmd.Context(), func(tx domain.ReadTx) error {
				var err error
				r, err = sc.Diagnostics.Report(tx)
				return err
			})
			if err != nil {
				return err
			}

			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				defer enc.Close()
				return enc.Encode(r)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		}),
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json, yaml or log")
	return cmd
}
