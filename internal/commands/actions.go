package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bizcopilot/copilot/internal/actions"
)

// FlagName maps a catalog field name to its command-line flag
func FlagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

// NewActionCmds creates one subcommand per quick action in the catalog
func NewActionCmds(deps *Dependencies, opts *globalOptions) []*cobra.Command {
	catalog := actions.Catalog()
	cmds := make([]*cobra.Command, 0, len(catalog))
	for _, action := range catalog {
		cmds = append(cmds, newActionCmd(deps, opts, action))
	}
	return cmds
}

func newActionCmd(deps *Dependencies, opts *globalOptions, action actions.Action) *cobra.Command {
	var (
		copyResult bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   string(action.Kind),
		Short: action.Icon + " " + action.Title,
		Long:  actionLong(action),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := actionValues(cmd.Flags(), cmd.InOrStdin(), action)
			if err != nil {
				return err
			}
			return runAction(cmd, deps, opts, action, values, copyResult, output)
		},
	}

	for _, f := range action.Fields {
		cmd.Flags().String(FlagName(f.Name), f.Default, fieldUsage(f))
	}
	cmd.Flags().BoolVar(&copyResult, "copy", false, "Copy the result to the clipboard")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Save the result to a file")
	return cmd
}

func actionLong(action actions.Action) string {
	var sb strings.Builder
	sb.WriteString(action.Title)
	sb.WriteString(".\n\nA flag value of \"-\" reads that field from stdin.\n\nFields:\n")
	for _, f := range action.Fields {
		marker := ""
		if f.Required {
			marker = " (required)"
		}
		fmt.Fprintf(&sb, "  --%s%s  %s\n", FlagName(f.Name), marker, f.Label)
	}
	return sb.String()
}

func fieldUsage(f actions.Field) string {
	usage := f.Label
	if len(f.Choices) > 0 {
		values := make([]string, 0, len(f.Choices))
		for _, c := range f.Choices {
			values = append(values, c.Value)
		}
		usage += " (" + strings.Join(values, ", ") + ")"
	}
	if f.Required {
		usage += ", required"
	}
	return usage
}

// actionValues collects the field flags. At most one flag may read stdin.
func actionValues(flags *pflag.FlagSet, stdin io.Reader, action actions.Action) (actions.Values, error) {
	values := action.Defaults()
	stdinUsed := false
	for _, f := range action.Fields {
		v, err := flags.GetString(FlagName(f.Name))
		if err != nil {
			return nil, err
		}
		if v == "-" {
			if stdinUsed {
				return nil, fmt.Errorf("only one field can be read from stdin")
			}
			stdinUsed = true
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read stdin: %w", err)
			}
			v = string(data)
		}
		values[f.Name] = v
	}
	return values, nil
}

func runAction(cmd *cobra.Command, deps *Dependencies, opts *globalOptions, action actions.Action, values actions.Values, copyResult bool, output string) error {
	rt, err := newRuntime(deps, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	d := actions.NewDispatcher(rt.client,
		actions.WithLogger(rt.log),
		actions.WithMetrics(rt.metrics),
	)
	if err := d.Open(action.Kind); err != nil {
		return err
	}

	var text string
	err = progress(action.Submit, func() error {
		var serr error
		text, serr = d.Submit(context.Background(), values)
		return serr
	})
	if err != nil {
		var verr *actions.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%s (%s)", verr.Error(), missingFlags(verr))
		}
		return &displayErr{msg: actions.Notice(err), err: err}
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), successStyle.Render("✓ Результат сохранён в "+output))
	} else {
		printAnswer(cmd.OutOrStdout(), action.Icon+" "+action.Title, text, rt.cfg.Markdown)
	}

	if copyResult || rt.cfg.CopyToClipboard {
		copyText(cmd.ErrOrStderr(), deps.Copy, text)
	}
	return nil
}

// missingFlags names the flags behind a validation failure
func missingFlags(verr *actions.ValidationError) string {
	action, _ := actions.Lookup(verr.Kind)
	var names []string
	for _, label := range append(append([]string{}, verr.Missing...), verr.Invalid...) {
		for _, f := range action.Fields {
			if f.Label == label || f.Name == label {
				names = append(names, "--"+FlagName(f.Name))
			}
		}
	}
	return strings.Join(names, ", ")
}
