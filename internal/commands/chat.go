package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bizcopilot/copilot/internal/actions"
	"github.com/bizcopilot/copilot/internal/models"
	"github.com/bizcopilot/copilot/internal/render"
	"github.com/bizcopilot/copilot/internal/session"
	"github.com/bizcopilot/copilot/internal/tui"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies, opts *globalOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with the business assistant.

Enter sends the message, Ctrl+O opens the quick actions, Ctrl+N starts a new
conversation. Type /help inside the chat for commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(deps, opts, mode)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Assistant mode: general, legal, marketing, finance, summary")
	return cmd
}

// resolveMode picks the flag value, then the configured default
func resolveMode(flag, configured string) (models.Mode, error) {
	name := flag
	if name == "" {
		name = configured
	}
	if name == "" {
		return models.DefaultMode, nil
	}
	mode, ok := models.ParseMode(name)
	if !ok {
		return "", fmt.Errorf("unknown mode %q", name)
	}
	return mode, nil
}

func runChat(deps *Dependencies, opts *globalOptions, modeFlag string) error {
	rt, err := newRuntime(deps, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	mode, err := resolveMode(modeFlag, rt.cfg.DefaultMode)
	if err != nil {
		return err
	}

	sess := session.New(rt.client,
		session.WithLogger(rt.log),
		session.WithMetrics(rt.metrics),
		session.WithMode(mode),
	)
	dispatcher := actions.NewDispatcher(rt.client,
		actions.WithLogger(rt.log),
		actions.WithMetrics(rt.metrics),
	)

	exportDir, _ := os.Getwd()
	rt.log.Info("chat started", zap.String("api_url", rt.client.BaseURL()), zap.String("mode", string(mode)))

	return deps.TUI.RunChat(tui.ChatConfig{
		Session:    sess,
		Dispatcher: dispatcher,
		Health:     rt.client,
		BaseURL:    rt.client.BaseURL(),
		Logger:     rt.log,
		Render:     render.OptionsFromConfig(rt.cfg.Markdown, getTerminalWidth()-12),
		ExportDir:  filepath.Clean(exportDir),
		AutoCopy:   rt.cfg.CopyToClipboard,
		Copy:       deps.Copy,
	})
}
