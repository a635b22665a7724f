package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Raikerian/go-lumina-kitchen/internal/kitchen"
)

func newFridgeCommand(root *rootOptions) *cobra.Command {
	out := &outputOptions{}
	var listOnly bool

	cmd := &cobra.Command{
		Use:   "fridge <photo>",
		Short: "Cook from a photo of your fridge",
		Long: "Identify the ingredients in a photo of your fridge and generate a recipe from them. " +
			"With --list only the ingredients are printed.",
		Example: `  lumina fridge fridge.jpg --image-out dinner.png`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photo, mimeType, err := kitchen.ReadPhoto(args[0])
			if err != nil {
				return err
			}

			var svc *kitchen.Service
			return root.execute(cmd.Context(), func(ctx context.Context) error {
				if listOnly {
					found, err := svc.AnalyzeFridge(ctx, photo, mimeType)
					if err != nil {
						return fmt.Errorf("failed to analyse photo: %w", err)
					}
					_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(found, ", "))
					return err
				}

				recipe, found, err := svc.CreateFromFridgePhoto(ctx, photo, mimeType)
				if len(found) > 0 && !out.json {
					fmt.Fprintf(cmd.OutOrStdout(), "Found: %s\n\n", strings.Join(found, ", "))
				}
				if err != nil {
					return fmt.Errorf("failed to cook from photo: %w", err)
				}
				return out.writeRecipe(cmd, recipe)
			}, fx.Populate(&svc))
		},
	}
	cmd.Flags().BoolVar(&listOnly, "list", false, "only list the ingredients found")
	out.register(cmd)

	return cmd
}
