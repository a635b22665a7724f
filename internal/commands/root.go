// Package commands provides the lumina command tree. Every subcommand builds
// its own Fx application, runs, and shuts it down again.
package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Raikerian/go-lumina-kitchen/internal/app"
	"github.com/Raikerian/go-lumina-kitchen/internal/config"
	"github.com/Raikerian/go-lumina-kitchen/internal/gemini"
	"github.com/Raikerian/go-lumina-kitchen/internal/infrastructure"
	"github.com/Raikerian/go-lumina-kitchen/internal/kitchen"
	"github.com/Raikerian/go-lumina-kitchen/internal/metrics"
	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
	"github.com/Raikerian/go-lumina-kitchen/internal/voice/backend"
	"github.com/Raikerian/go-lumina-kitchen/internal/voice/device"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "config.yaml"

type rootOptions struct {
	configPath string
}

// NewRootCommand builds the lumina command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "lumina",
		Short:         "Lumina Kitchen, an AI recipe studio and voice chef",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", DefaultConfigPath, "path to the YAML configuration file")

	root.AddCommand(
		newRecipeCommand(opts),
		newSearchCommand(opts),
		newFridgeCommand(opts),
		newKitchenCommand(opts),
		newChefCommand(opts),
		newVersionCommand(),
	)

	return root
}

// modules returns every application module. Providers are lazy, so a
// command only builds what it populates.
func (o *rootOptions) modules() []fx.Option {
	return []fx.Option{
		fx.Supply(config.Path(o.configPath)),
		config.Module,
		infrastructure.LoggerModule,
		metrics.Module,
		gemini.Module,
		kitchen.Module,
		voice.Module,
		device.Module,
		backend.Module,
		fx.WithLogger(infrastructure.NewFxLoggerAdapter),
	}
}

// execute builds an application from the common modules plus extra, starts
// it, runs fn and stops it.
func (o *rootOptions) execute(ctx context.Context, fn func(ctx context.Context) error, extra ...fx.Option) error {
	return app.New(append(o.modules(), extra...)...).Execute(ctx, fn)
}
