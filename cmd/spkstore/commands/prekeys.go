package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"spkstore/internal/crypto"
	"spkstore/internal/domain"
	"spkstore/internal/services/prekey"
)

func rotateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Generate a new signed pre-key and make it current",
		Long: "Generate a new signed pre-key and make it current. A failed attempt " +
			"is counted by the rotation watchdog; a successful one clears it.",
		Args: cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			if err := c.requirePassphrase(); err != nil {
				return err
			}
			rec, err := c.scopeState().PreKeys.Rotate(cmd.Context(), c.passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rotated signed pre-key %s (%s)\n",
				rec.ID, crypto.Fingerprint(rec.PublicKey.Slice()))
			return nil
		}),
	}
}

func listCmd(c *cli) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored signed pre-keys",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			sc := c.scopeState()

			var identity *domain.Identity
			if verify {
				if err := c.requirePassphrase(); err != nil {
					return err
				}
				id, err := sc.IDs.LoadIdentity(c.passphrase)
				if err != nil {
					return err
				}
				identity = &id
			}

			var (
				recs      []domain.SignedPreKeyRecord
				currentID domain.SignedPreKeyID
				hasCur    bool
			)
			err := c.wire.DB.View(cmd.Context(), func(tx domain.ReadTx) error {
				var err error
				if recs, err = sc.Keys.LoadSignedPreKeys(tx); err != nil {
					return err
				}
				currentID, hasCur, err = sc.Keys.CurrentSignedPreKeyID(tx)
				return err
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFINGERPRINT\tGENERATED\tCURRENT\tSIGNATURE")
			for _, rec := range recs {
				cur := ""
				if hasCur && rec.ID == currentID {
					cur = "*"
				}
				sig := "-"
				if identity != nil {
					sig = "bad"
					if prekey.VerifySignedPreKey(identity.EdPub, rec) {
						sig = "ok"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					rec.ID,
					crypto.Fingerprint(rec.PublicKey.Slice()),
					rec.GeneratedAt.UTC().Format(time.RFC3339),
					cur,
					sig,
				)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check each signature against the identity (needs -p)")
	return cmd
}

func currentCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the current signed pre-key",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			sc := c.scopeState()
			var (
				id     domain.SignedPreKeyID
				hasID  bool
				rec    domain.SignedPreKeyRecord
				hasRec bool
			)
			err := c.wire.DB.View(cmd.Context(), func(tx domain.ReadTx) error {
				var err error
				if id, hasID, err = sc.Keys.CurrentSignedPreKeyID(tx); err != nil {
					return err
				}
				rec, hasRec, err = sc.Keys.CurrentSignedPreKey(tx)
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case !hasID:
				fmt.Fprintln(out, "No current signed pre-key.")
			case !hasRec:
				fmt.Fprintf(out, "Current id %s points at a removed record.\n", id)
			default:
				fmt.Fprintf(out, "Current signed pre-key %s (%s), generated %s\n",
					rec.ID,
					crypto.Fingerprint(rec.PublicKey.Slice()),
					rec.GeneratedAt.UTC().Format(time.RFC3339),
				)
			}
			return nil
		}),
	}
}

func removeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove one signed pre-key",
		Long: "Remove one signed pre-key. Removing the current one leaves the " +
			"current id in place; run rotate to replace it.",
		Args: cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseSignedPreKeyID(args[0])
			if err != nil {
				return err
			}
			sc := c.scopeState()
			var existed, wasCurrent bool
			err = c.wire.DB.Update(cmd.Context(), func(tx domain.WriteTx) error {
				var err error
				if existed, err = sc.Keys.ContainsSignedPreKey(tx, id); err != nil {
					return err
				}
				cur, ok, err := sc.Keys.CurrentSignedPreKeyID(tx)
				if err != nil {
					return err
				}
				wasCurrent = ok && cur == id
				return sc.Keys.RemoveSignedPreKey(tx, id)
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !existed {
				fmt.Fprintf(out, "No signed pre-key %s.\n", id)
				return nil
			}
			fmt.Fprintf(out, "Removed signed pre-key %s.\n", id)
			if wasCurrent {
				fmt.Fprintln(out, "Warning: it was the current signed pre-key.")
			}
			return nil
		}),
	}
}

func cullCmd(c *cli) *cobra.Command {
	var (
		maxAge time.Duration
		keep   int
	)
	cmd := &cobra.Command{
		Use:   "cull",
		Short: "Remove old non-current signed pre-keys",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			cfg := c.wire.Config
			if cmd.Flags().Changed("max-age") {
				cfg.CullMaxAge = maxAge
			}
			if cmd.Flags().Changed("keep") {
				cfg.CullKeep = keep
			}
			removed, err := c.scopeState().PreKeys.Cull(cmd.Context(), cfg.CullMaxAge, cfg.CullKeep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Culled %d signed pre-key(s)", len(removed))
			for i, id := range removed {
				sep := ", "
				if i == 0 {
					sep = ": "
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s", sep, id)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		}),
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "remove records older than this (default from config)")
	cmd.Flags().IntVar(&keep, "keep", 0, "always keep this many newest non-current records (default from config)")
	return cmd
}
