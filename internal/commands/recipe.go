package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Raikerian/go-lumina-kitchen/internal/kitchen"
)

type outputOptions struct {
	json     bool
	imageOut string
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "print the recipe as JSON")
	cmd.Flags().StringVar(&o.imageOut, "image-out", "", "write the generated food photo to this file")
}

func (o *outputOptions) writeRecipe(cmd *cobra.Command, recipe *kitchen.Recipe) error {
	write := writeRecipe
	if o.json {
		write = func(w io.Writer, r *kitchen.Recipe) error { return writeJSON(w, r) }
	}
	if err := write(cmd.OutOrStdout(), recipe); err != nil {
		return err
	}
	if o.imageOut != "" {
		return saveImage(o.imageOut, recipe.Image)
	}
	return nil
}

func newRecipeCommand(root *rootOptions) *cobra.Command {
	out := &outputOptions{}

	cmd := &cobra.Command{
		Use:   "recipe <ingredient>...",
		Short: "Generate a recipe from the ingredients you have",
		Long: "Generate a recipe from the ingredients you have. Ingredients may be given as " +
			"separate arguments or as one comma-separated list.",
		Example: `  lumina recipe chicken lemon thyme
  lumina recipe "chickpeas, spinach, coconut milk" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc *kitchen.Service
			return root.execute(cmd.Context(), func(ctx context.Context) error {
				recipe, err := svc.CreateFromIngredients(ctx, kitchen.ParseIngredients(args...))
				if err != nil {
					return fmt.Errorf("failed to generate recipe: %w", err)
				}
				return out.writeRecipe(cmd, recipe)
			}, fx.Populate(&svc))
		},
	}
	out.register(cmd)

	return cmd
}
