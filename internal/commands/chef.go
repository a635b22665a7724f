package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Raikerian/go-lumina-kitchen/internal/config"
	"github.com/Raikerian/go-lumina-kitchen/internal/tui"
	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
)

// DefaultScreenLogFile receives logs while a full-screen view owns the
// terminal.
const DefaultScreenLogFile = "lumina.log"

func newChefCommand(root *rootOptions) *cobra.Command {
	var (
		plain    bool
		provider string
	)

	cmd := &cobra.Command{
		Use:   "chef",
		Short: "Talk to the AI chef with your microphone",
		Long: "Start a live voice conversation with the AI chef. Speak normally and interrupt at any time. " +
			"Press q or Ctrl+C to end the session.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch provider {
			case "", config.ProviderGemini, config.ProviderOpenAI:
			default:
				return fmt.Errorf("unknown provider %q", provider)
			}

			var svc *voice.Service
			return root.execute(cmd.Context(), func(ctx context.Context) error {
				if plain {
					return tui.RunPlain(ctx, svc, cmd.OutOrStdout())
				}
				return tui.Run(ctx, svc, tea.WithAltScreen(), tea.WithOutput(cmd.OutOrStdout()))
			},
				fx.Decorate(func(cfg *config.Config) *config.Config {
					return chefConfig(cfg, provider, plain)
				}),
				fx.Populate(&svc),
			)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print status and transcript lines instead of the full-screen view")
	cmd.Flags().StringVar(&provider, "provider", "", "voice provider to use (gemini or openai)")

	return cmd
}

// chefConfig applies the chef flags.
func chefConfig(cfg *config.Config, provider string, plain bool) *config.Config {
	out := *cfg
	if provider != "" {
		out.Voice.Provider = provider
	}
	if !plain {
		return screenConfig(&out)
	}
	return &out
}

// screenConfig keeps logs off the terminal while a full-screen view is up.
// They go to DefaultScreenLogFile unless a file is configured.
func screenConfig(cfg *config.Config) *config.Config {
	out := *cfg
	if out.LogFile == "" {
		out.LogFile = DefaultScreenLogFile
	}
	return &out
}
