package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Raikerian/go-lumina-kitchen/internal/kitchen"
)

func newSearchCommand(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "search <query>",
		Short:   "Search the web for dishes, cuisines or food news",
		Example: `  lumina search authentic carbonara`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc *kitchen.Service
			return root.execute(cmd.Context(), func(ctx context.Context) error {
				result, err := svc.Search(ctx, strings.Join(args, " "))
				if err != nil {
					return fmt.Errorf("search failed: %w", err)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				return writeSearch(cmd.OutOrStdout(), result)
			}, fx.Populate(&svc))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the answer as JSON")

	return cmd
}
