package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bizcopilot/copilot/internal/models"
)

// NewHealthCmd creates the backend health check command
func NewHealthCmd(deps *Dependencies, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend and its language model are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(deps, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			var resp *models.HealthResponse
			err = progress("Проверка API", func() error {
				var herr error
				resp, herr = rt.client.Health(context.Background())
				return herr
			})
			if err != nil {
				return fmt.Errorf("API недоступен (%s): %w", rt.client.BaseURL(), err)
			}

			out := cmd.OutOrStdout()
			styled := isTerminal(out)
			fmt.Fprintf(out, "API:    %s\n", statusText(resp.Status, styled))
			fmt.Fprintf(out, "LLM:    %s\n", statusText(resp.LLMStatus, styled))
			fmt.Fprintf(out, "Server: %s\n", rt.client.BaseURL())
			if !resp.OK() {
				return fmt.Errorf("backend is degraded")
			}
			return nil
		},
	}
}

func statusText(status string, styled bool) string {
	if status == "" {
		status = "unknown"
	}
	if !styled {
		return status
	}
	if status == "ok" {
		return successStyle.Render(status)
	}
	return warnStyle.Render(status)
}
