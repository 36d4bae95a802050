package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate the identity that signs pre-keys for the scope",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			if err := c.requirePassphrase(); err != nil {
				return err
			}
			sc := c.scopeState()
			_, fp, err := sc.IDs.GenerateIdentity(c.passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity created for %s.\nFingerprint: %s\n", sc.Name, fp)
			return nil
		}),
	}
}

func fingerprintCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the identity fingerprint",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			if err := c.requirePassphrase(); err != nil {
				return err
			}
			fp, err := c.scopeState().IDs.FingerprintIdentity(c.passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", fp)
			return nil
		}),
	}
}
