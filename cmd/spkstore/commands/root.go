package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"spkstore/internal/app"
)

// cli holds flag values and the wired graph for one invocation.
type cli struct {
	configPath string
	home       string
	backend    string
	scope      string
	logLevel   string
	passphrase string

	wire *app.Wire
}

// debugCommands is extended by files built with the spkdebug tag.
var debugCommands []func(*cli) *cobra.Command

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd returns a fresh command tree.
func NewRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "spkstore",
		Short:        "Manage per-identity signed pre-keys",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd)
			if err != nil {
				return err
			}
			c.wire, err = app.NewWire(cfg)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "YAML config file")
	pf.StringVar(&c.home, "home", "", "state dir (default ~/.spkstore)")
	pf.StringVar(&c.backend, "backend", "", "storage backend: bolt or leveldb")
	pf.StringVar(&c.scope, "scope", "", "identity scope: primary or secondary")
	pf.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVarP(&c.passphrase, "passphrase", "p", "", "passphrase protecting the identity")

	root.AddCommand(
		initCmd(c),
		fingerprintCmd(c),
		rotateCmd(c),
		listCmd(c),
		currentCmd(c),
		removeCmd(c),
		watchdogCmd(c),
		reportCmd(c),
		cullCmd(c),
		serveMetricsCmd(c),
	)
	for _, mk := range debugCommands {
		root.AddCommand(mk(c))
	}
	return root
}

// config layers flags over the optional file over defaults.
func (c *cli) config(cmd *cobra.Command) (app.Config, error) {
	cfg := app.DefaultConfig()
	if c.configPath != "" {
		var err error
		if cfg, err = app.LoadConfig(c.configPath); err != nil {
			return app.Config{}, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("home") {
		cfg.Home = c.home
	}
	if flags.Changed("backend") {
		cfg.Backend = c.backend
	}
	if flags.Changed("scope") {
		cfg.Scope = c.scope
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if cfg.Home == "" {
		home, err := app.DefaultHome()
		if err != nil {
			return app.Config{}, err
		}
		cfg.Home = home
	}
	return cfg, nil
}

func (c *cli) requirePassphrase() error {
	if c.passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return nil
}

func (c *cli) scopeState() *app.Scope { return c.wire.Current() }

// run wraps a RunE so the wired database is closed however fn returns.
func (c *cli) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := c.wire.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close store: %w", cerr))
			}
		}()
		return fn(cmd, args)
	}
}
