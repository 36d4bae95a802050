//go:build spkdebug

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	debugCommands = append(debugCommands, resetCmd)
}

func resetCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove every signed pre-key and the watchdog state of the scope",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset without --yes")
			}
			sc := c.scopeState()
			if err := c.wire.DB.Update(cmd.Context(), sc.Diagnostics.RemoveAll); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s.\n", sc.Name)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}
