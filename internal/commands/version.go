package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AppVersion is the version of the application, should be set during build time.
var AppVersion = "dev"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "lumina %s\n", AppVersion)
			return err
		},
	}
}
