// Package commands provides CLI commands for the copilot client.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bizcopilot/copilot/internal/tui"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// NewRootCmd builds the command tree around deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	deps = withDefaults(deps)
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "copilot",
		Short: "Terminal client for the AI business copilot",
		Long: `copilot is a terminal client for the AI Copilot backend. It offers an
interactive chat with business assistant modes and one-shot quick actions
that generate contracts, marketing posts, financial analyses, summaries,
company cards and tax consultations.

Examples:
  copilot                               Start interactive chat
  copilot chat --mode legal             Chat in legal mode
  copilot ask "Как выбрать налоговый режим для ИП?"
  copilot summary --text "$(cat notes.txt)"
  copilot taxes --question "Нужно ли платить НДС?" --revenue 1500000
  copilot health                        Check the backend
  copilot config set api_url http://localhost:8000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "copilot %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return runChat(deps, opts, "")
		},
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Backend base address (overrides config and COPILOT_API_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Round-trip timeout, e.g. 90s")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.Flags().BoolP("version", "v", false, "Show version and exit")

	root.AddCommand(NewChatCmd(deps, opts))
	root.AddCommand(NewAskCmd(deps, opts))
	root.AddCommand(NewHealthCmd(deps, opts))
	root.AddCommand(NewConfigCmd(deps))
	for _, cmd := range NewActionCmds(deps, opts) {
		root.AddCommand(cmd)
	}

	return root
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(NewDependencies())

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, tui.FormatError(err))
		os.Exit(1)
	}
}
