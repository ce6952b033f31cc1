// Package cli implements complaintctl, the operator tool for settings and
// dry-run prioritization.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/transit-complaints/backend/internal/app"
	"github.com/transit-complaints/backend/internal/config"
	"github.com/transit-complaints/backend/internal/db"
	"github.com/transit-complaints/backend/internal/settings"
)

type options struct {
	verbose       bool
	settingsStore string
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "complaintctl",
		Short: "Operate the transit complaints backend",
		Long: `complaintctl reads and toggles runtime settings such as the AI
prioritization flag, seeds defaults, and runs a complaint through the
prioritization engine without storing it.

Configuration comes from .env and the environment, like the server.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().StringVar(&opts.settingsStore, "settings-store", "", "override SETTINGS_STORE (postgres, redis, memory)")

	root.AddCommand(newSettingsCmd(opts), newSeedCmd(opts), newPrioritizeCmd(opts))
	return root
}

// runtime is the object graph a command works with.
type runtime struct {
	cfg    config.Config
	logger zerolog.Logger
	gate   *settings.Gate
	close  func()
}

func openRuntime(ctx context.Context, opts *options, stderr io.Writer) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.SettingsStore = settingsBackend(cfg.SettingsStore, opts.settingsStore)

	level := zerolog.WarnLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	var store *db.Store
	closers := []func(){}
	if cfg.SettingsStore == "postgres" {
		store, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, store.Close)
	}

	settingsStore, closeSettings, err := app.SettingsStore(ctx, cfg, store, logger)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, err
	}
	closers = append(closers, closeSettings)

	return &runtime{
		cfg:    cfg,
		logger: logger,
		// the CLI is short-lived, every read goes to the store
		gate: settings.NewGate(settingsStore, 0, logger),
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

// settingsBackend resolves the --settings-store override against the
// configured store and normalizes the name.
func settingsBackend(configured, override string) string {
	name := configured
	if strings.TrimSpace(override) != "" {
		name = override
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "postgres"
	}
	return name
}
