// Package tui provides the terminal user interface for the copilot client.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bizcopilot/copilot/internal/errors"
)

// Palette
var (
	colorBorder = lipgloss.Color("#3b4261")

	colorPrimary   = lipgloss.Color("#7aa2f7")
	colorSecondary = lipgloss.Color("#bb9af7")
	colorAccent    = lipgloss.Color("#7dcfff")
	colorSuccess   = lipgloss.Color("#9ece6a")
	colorWarning   = lipgloss.Color("#e0af68")
	colorError     = lipgloss.Color("#f7768e")

	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#9aa5ce")
	colorTextMute = lipgloss.Color("#565f89")
)

var (
	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorTextMute).
			Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder).
				Padding(0, 1)

	userBubbleStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorSecondary).
			Foreground(colorText).
			Padding(0, 1).
			MarginLeft(4)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true).
			MarginLeft(4)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginRight(4)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	errorBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorError).
				Foreground(colorError).
				Padding(0, 1).
				MarginRight(4)

	timeStyle = lipgloss.NewStyle().
			Foreground(colorTextMute)

	inputPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			MarginRight(1)

	loadingStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorTextMute)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Bold(true)

	statusDescStyle = lipgloss.NewStyle().
			Foreground(colorTextMute)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	welcomeTitleStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	welcomeIconStyle = lipgloss.NewStyle().
				Foreground(colorAccent)

	suggestionStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	healthOKStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	healthWarnStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	healthDownStyle = lipgloss.NewStyle().
			Foreground(colorError)

	// Modal overlays
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true).
			MarginBottom(1)

	menuItemStyle = lipgloss.NewStyle().
			Foreground(colorText).
			PaddingLeft(2)

	menuSelectedStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	fieldLabelStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	fieldLabelFocusedStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	requiredStyle = lipgloss.NewStyle().
			Foreground(colorError)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	enabledStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	disabledStyle = lipgloss.NewStyle().
			Foreground(colorError)

	pathStyle = lipgloss.NewStyle().
			Foreground(colorTextMute).
			Italic(true)

	feedbackStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Italic(true).
			MarginTop(1)

	noticeBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Foreground(colorError).
			Padding(0, 1).
			MarginTop(1)
)

// Gradient colors for the loading animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"),
	lipgloss.Color("#feca57"),
	lipgloss.Color("#48dbfb"),
	lipgloss.Color("#ff9ff3"),
	lipgloss.Color("#54a0ff"),
	lipgloss.Color("#5f27cd"),
	lipgloss.Color("#00d2d3"),
	lipgloss.Color("#1dd1a1"),
}

// shortcut is one entry of a status bar
type shortcut struct {
	key  string
	desc string
}

func renderShortcuts(items []shortcut) string {
	parts := make([]string, 0, len(items))
	for _, s := range items {
		parts = append(parts, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return strings.Join(parts, statusDescStyle.Render("  │  "))
}

// FormatError returns a styled error message with a hint for the error class.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %s", errors.DisplayMessage(err, err.Error()))))

	if status := errors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP статус: %d", status)))
	}

	switch {
	case errors.IsRateLimitError(err):
		sb.WriteString(dimStyle.Render("\n  Подсказка: превышен лимит запросов, повторите позже"))
	case errors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Подсказка: проверьте, что сервер запущен и адрес api_url верен"))
	case errors.IsParseError(err):
		sb.WriteString(dimStyle.Render("\n  Подсказка: сервер вернул неожиданный ответ"))
	}

	return sb.String()
}
