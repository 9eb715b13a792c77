package render

import (
	"os"

	"github.com/bizcopilot/copilot/internal/config"
)

// OptionsFromConfig builds render options from the user's markdown settings.
// GLAMOUR_STYLE takes precedence over the configured style.
func OptionsFromConfig(md config.MarkdownConfig, width int) Options {
	opts := DefaultOptions().
		WithEmoji(md.EnableEmoji).
		WithPreserveNewLines(md.PreserveNewLines)

	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts = opts.WithStyle(style)
	} else if md.Style != "" {
		opts = opts.WithStyle(md.Style)
	}
	if width > 0 {
		opts = opts.WithWidth(width)
	}
	return opts
}
