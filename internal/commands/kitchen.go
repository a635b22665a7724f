package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Raikerian/go-lumina-kitchen/internal/kitchen"
	"github.com/Raikerian/go-lumina-kitchen/internal/tui"
)

func newKitchenCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kitchen",
		Short: "Open the interactive recipe studio",
		Long: "Open the interactive recipe studio. Recipes you cook stay in the recipe book for the " +
			"whole session and repeated searches are answered from cache.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var svc *kitchen.Service
			return root.execute(cmd.Context(), func(ctx context.Context) error {
				return tui.RunKitchen(ctx, svc,
					tea.WithAltScreen(),
					tea.WithInput(cmd.InOrStdin()),
					tea.WithOutput(cmd.OutOrStdout()))
			},
				fx.Decorate(screenConfig),
				fx.Populate(&svc),
			)
		},
	}
}
