package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/get-eventually/eventcore/config"
	"github.com/get-eventually/eventcore/logger/zaplogger"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags for all commands, and the App
// the commands run against.
type RootOptions struct {
	EnvFile       string
	Backend       string
	RootPartition string
	Format        string

	// App is opened from the configuration before running a command,
	// unless it has already been set.
	App *App
}

// NewRootCommand creates the root command of branchctl.
//
// When app is nil, the App is opened from the environment configuration
// and closed after the command has run.
func NewRootCommand(app *App) *cobra.Command {
	opts := &RootOptions{App: app}
	owned := false

	cmd := &cobra.Command{
		Use:   "branchctl",
		Short: "Manage company branches",
		Long: `Manage company branches, stored as event-sourced aggregates.

The Event Store backend is selected through the EVENTCORE_* environment
variables, optionally read from a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			if opts.App != nil {
				return nil
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			l, err := zaplogger.New(cfg.LogLevel, cfg.LogDevelopment)
			if err != nil {
				return err
			}

			opts.App, err = Open(cmd.Context(), cfg, l)
			if err != nil {
				return err
			}

			owned = true

			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if !owned {
				return nil
			}

			if l, ok := opts.App.Logger.(*zaplogger.Logger); ok {
				_ = (*zap.Logger)(l).Sync()
			}

			return opts.App.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "file to read EVENTCORE_* variables from")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "event store backend, overrides EVENTCORE_BACKEND")
	cmd.PersistentFlags().StringVar(&opts.RootPartition, "root-partition", "",
		"root partition key, overrides EVENTCORE_ROOT_PARTITION")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewRenameCommand(opts))
	cmd.AddCommand(NewChangeCountryCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return config.Config{}, err
	}

	if opts.Backend != "" {
		cfg.Backend = config.Backend(opts.Backend)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

// rootPartition returns the root partition key the commands should use.
func (opts *RootOptions) rootPartition() string {
	if opts.RootPartition != "" {
		return opts.RootPartition
	}

	return opts.App.Config.RootPartition
}
