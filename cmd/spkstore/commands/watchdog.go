package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"spkstore/internal/domain"
)

func watchdogCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchdog",
		Short: "Show the rotation failure state",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			sc := c.scopeState()
			var st domain.WatchdogState
			err := c.wire.DB.View(cmd.Context(), func(tx domain.ReadTx) error {
				var err error
				st, err = sc.Watchdog.State(tx)
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Failures: %d\n", st.FailureCount)
			if !st.HasFirstFailure {
				return nil
			}
			since := "not failing"
			if st.Failing() {
				since = st.FailingFor(time.Now()).Round(time.Second).String() + " ago"
			}
			fmt.Fprintf(out, "First failure: %s (%s)\n", st.FirstFailure.UTC().Format(time.RFC3339), since)
			return nil
		}),
	}
	cmd.AddCommand(watchdogClearCmd(c))
	return cmd
}

func watchdogClearCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset the failure count and first-failure date",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			sc := c.scopeState()
			err := c.wire.DB.Update(cmd.Context(), func(tx domain.WriteTx) error {
				if err := sc.Watchdog.ClearPreKeyUpdateFailureCount(tx); err != nil {
					return err
				}
				return sc.Watchdog.ClearFirstPreKeyUpdateFailureDate(tx)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Watchdog cleared.")
			return nil
		}),
	}
}
