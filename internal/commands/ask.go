package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	apierrors "github.com/bizcopilot/copilot/internal/errors"
	"github.com/bizcopilot/copilot/internal/models"
	"github.com/bizcopilot/copilot/internal/session"
)

// NewAskCmd creates the one-shot chat command
func NewAskCmd(deps *Dependencies, opts *globalOptions) *cobra.Command {
	var (
		mode           string
		conversationID int64
		file           string
		copyResult     bool
	)

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send a single chat message and print the answer",
		Long: `Send a single chat message and print the answer.

The message is taken from the argument, from --file, or from stdin.
The conversation id is printed to stderr; pass it back with
--conversation-id to continue the same dialogue.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			return runAsk(cmd, deps, opts, askOptions{
				message:        message,
				mode:           mode,
				conversationID: conversationID,
				copy:           copyResult,
			})
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Assistant mode: general, legal, marketing, finance, summary")
	cmd.Flags().Int64Var(&conversationID, "conversation-id", 0, "Continue an existing conversation")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the message from a file")
	cmd.Flags().BoolVar(&copyResult, "copy", false, "Copy the answer to the clipboard")
	return cmd
}

type askOptions struct {
	message        string
	mode           string
	conversationID int64
	copy           bool
}

// readMessage resolves the message from args, a file, or piped stdin
func readMessage(stdin io.Reader, args []string, file string) (string, error) {
	var message string
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		message = string(data)
	case len(args) > 0:
		message = args[0]
	case stdin != nil && !isTerminalReader(stdin):
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		message = string(data)
	}

	if strings.TrimSpace(message) == "" {
		return "", apierrors.ErrEmptyMessage
	}
	return message, nil
}

func isTerminalReader(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice != 0
}

func runAsk(cmd *cobra.Command, deps *Dependencies, opts *globalOptions, ask askOptions) error {
	rt, err := newRuntime(deps, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	mode, err := resolveMode(ask.mode, rt.cfg.DefaultMode)
	if err != nil {
		return err
	}

	sessOpts := []session.Option{
		session.WithLogger(rt.log),
		session.WithMetrics(rt.metrics),
		session.WithMode(mode),
	}
	if ask.conversationID != 0 {
		sessOpts = append(sessOpts, session.WithConversationID(ask.conversationID))
	}
	sess := session.New(rt.client, sessOpts...)

	err = progress("Помощник думает", func() error {
		return sess.Send(context.Background(), ask.message)
	})
	if err != nil {
		return displayError(err, session.FallbackError)
	}

	turns := sess.Turns()
	answer := turns[len(turns)-1]
	if answer.Role != models.RoleAssistant {
		return errors.New(session.FallbackError)
	}

	printAnswer(cmd.OutOrStdout(), "✦ Помощник", answer.Text, rt.cfg.Markdown)

	if id, ok := sess.ConversationID(); ok {
		fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(fmt.Sprintf("conversation_id: %d", id)))
	}
	if ask.copy || rt.cfg.CopyToClipboard {
		copyText(cmd.ErrOrStderr(), deps.Copy, answer.Text)
	}
	return nil
}
