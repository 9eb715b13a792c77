package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bizcopilot/copilot/internal/config"
	"github.com/bizcopilot/copilot/internal/models"
)

// configView represents the current view in the config menu
type configView int

const (
	viewMain configView = iota
	viewModeSelect
	viewStyleSelect
	viewEdit
)

// Menu item indices for main view
const (
	menuAPIURL = iota
	menuDefaultMode
	menuTimeout
	menuStyle
	menuCopyToClipboard
	menuExit
	menuItemCount
)

// MarkdownStyles lists the glamour standard styles offered in the menu
var MarkdownStyles = []string{"dark", "light", "notty", "dracula", "tokyo-night", "pink", "ascii"}

// feedbackClearMsg is sent to clear feedback messages
type feedbackClearMsg struct{}

// ConfigModel is the interactive settings editor
type ConfigModel struct {
	config     config.Config
	configPath string
	save       func(config.Config) error

	// Navigation
	view        configView
	cursor      int
	modeCursor  int
	styleCursor int
	editKey     string
	input       textinput.Model

	// Feedback
	feedback        string
	feedbackTimeout time.Duration

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewConfigModel creates a settings editor for cfg. save persists each change.
func NewConfigModel(cfg config.Config, configPath string, save func(config.Config) error) ConfigModel {
	if save == nil {
		save = config.SaveConfig
	}

	modeCursor := 0
	for i, info := range models.Modes {
		if string(info.Mode) == cfg.DefaultMode {
			modeCursor = i
			break
		}
	}

	styleCursor := 0
	for i, s := range MarkdownStyles {
		if s == cfg.Markdown.Style {
			styleCursor = i
			break
		}
	}

	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 50

	return ConfigModel{
		config:          cfg,
		configPath:      configPath,
		save:            save,
		modeCursor:      modeCursor,
		styleCursor:     styleCursor,
		input:           ti,
		feedbackTimeout: 2 * time.Second,
	}
}

// Config returns the edited configuration
func (m ConfigModel) Config() config.Config {
	return m.config
}

// Init initializes the model
func (m ConfigModel) Init() tea.Cmd {
	return nil
}

// clearFeedback returns a command that clears the feedback message after a delay
func clearFeedback(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return feedbackClearMsg{}
	})
}

// Update handles messages and updates the model
func (m ConfigModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case feedbackClearMsg:
		m.feedback = ""

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.view == viewEdit {
			return m.updateEdit(msg)
		}

		switch msg.String() {
		case "esc", "q":
			if m.view != viewMain {
				m.view = viewMain
				return m, nil
			}
			return m, tea.Quit

		case "up", "k":
			m.move(-1)

		case "down", "j":
			m.move(1)

		case "enter", " ":
			return m.handleSelect()
		}
	}

	return m, nil
}

func (m *ConfigModel) move(delta int) {
	wrap := func(v, n int) int { return (v + n) % n }
	switch m.view {
	case viewMain:
		m.cursor = wrap(m.cursor+delta, menuItemCount)
	case viewModeSelect:
		m.modeCursor = wrap(m.modeCursor+delta, len(models.Modes))
	case viewStyleSelect:
		m.styleCursor = wrap(m.styleCursor+delta, len(MarkdownStyles))
	}
}

func (m ConfigModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewMain
		m.input.Blur()
		return m, nil
	case "enter":
		m.view = viewMain
		m.input.Blur()
		return m.apply(m.editKey, m.input.Value())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ConfigModel) startEdit(key, value string) (tea.Model, tea.Cmd) {
	m.view = viewEdit
	m.editKey = key
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

// apply validates and saves one setting
func (m ConfigModel) apply(key, value string) (tea.Model, tea.Cmd) {
	next := m.config
	if err := next.Set(key, value); err != nil {
		m.feedback = "Ошибка: " + err.Error()
		return m, clearFeedback(m.feedbackTimeout)
	}
	if err := m.save(next); err != nil {
		m.feedback = fmt.Sprintf("Ошибка сохранения: %v", err)
		return m, clearFeedback(m.feedbackTimeout)
	}
	m.config = next
	got, _ := next.Get(key)
	m.feedback = fmt.Sprintf("%s = %s", key, got)
	return m, clearFeedback(m.feedbackTimeout)
}

// handleSelect handles menu item selection
func (m ConfigModel) handleSelect() (tea.Model, tea.Cmd) {
	switch m.view {
	case viewMain:
		switch m.cursor {
		case menuAPIURL:
			return m.startEdit("api_url", m.config.APIURL)
		case menuDefaultMode:
			m.view = viewModeSelect
		case menuTimeout:
			return m.startEdit("timeout_seconds", strconv.Itoa(m.config.TimeoutSeconds))
		case menuStyle:
			m.view = viewStyleSelect
		case menuCopyToClipboard:
			return m.apply("copy_to_clipboard", strconv.FormatBool(!m.config.CopyToClipboard))
		case menuExit:
			return m, tea.Quit
		}

	case viewModeSelect:
		m.view = viewMain
		return m.apply("default_mode", string(models.Modes[m.modeCursor].Mode))

	case viewStyleSelect:
		m.view = viewMain
		return m.apply("markdown.style", MarkdownStyles[m.styleCursor])
	}

	return m, nil
}

// View renders the TUI
func (m ConfigModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Загрузка...")
	}

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string
	sections = append(sections, titleStyle.Render("✦ Настройки"))
	sections = append(sections, pathStyle.Render("   "+m.configPath))

	var body string
	switch m.view {
	case viewMain:
		body = m.renderMainMenu()
	case viewModeSelect:
		body = m.renderList("Режим по умолчанию", modeLabels(), m.modeCursor)
	case viewStyleSelect:
		body = m.renderList("Стиль Markdown", MarkdownStyles, m.styleCursor)
	case viewEdit:
		body = lipgloss.JoinVertical(lipgloss.Left,
			fieldLabelFocusedStyle.Render(m.editKey),
			"",
			m.input.View(),
		)
	}
	sections = append(sections, modalStyle.Width(contentWidth).Render(body))

	if m.feedback != "" {
		sections = append(sections, feedbackStyle.Render("✓ "+m.feedback))
	}

	sections = append(sections, statusBarStyle.Render(m.renderStatusBar()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func modeLabels() []string {
	labels := make([]string, 0, len(models.Modes))
	for _, info := range models.Modes {
		labels = append(labels, fmt.Sprintf("%s (%s)", info.Label, info.Mode))
	}
	return labels
}

// renderMainMenu renders the main settings menu
func (m ConfigModel) renderMainMenu() string {
	rows := []struct {
		label string
		value string
	}{
		{"Сервер API", valueStyle.Render(m.config.APIURL)},
		{"Режим по умолчанию", valueStyle.Render(models.ModeLabel(models.Mode(m.config.DefaultMode)))},
		{"Таймаут, с", valueStyle.Render(strconv.Itoa(m.config.TimeoutSeconds))},
		{"Стиль Markdown", valueStyle.Render(m.config.Markdown.Style)},
		{"Копировать результаты", m.renderBoolValue(m.config.CopyToClipboard)},
		{"Выход", ""},
	}

	items := []string{}
	for i, row := range rows {
		cursor := "  "
		style := menuItemStyle
		if i == m.cursor {
			cursor = cursorStyle.Render("▸ ")
			style = menuSelectedStyle
		}
		line := cursor + style.Render(row.label)
		if row.value != "" {
			line += strings.Repeat(" ", max(2, 24-len([]rune(row.label)))) + row.value
		}
		items = append(items, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (m ConfigModel) renderList(title string, items []string, cursor int) string {
	lines := []string{fieldLabelFocusedStyle.Render(title), ""}
	for i, item := range items {
		if i == cursor {
			lines = append(lines, cursorStyle.Render("▸ ")+menuSelectedStyle.Render(item))
		} else {
			lines = append(lines, menuItemStyle.Render(item))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m ConfigModel) renderBoolValue(v bool) string {
	if v {
		return enabledStyle.Render("вкл")
	}
	return disabledStyle.Render("выкл")
}

func (m ConfigModel) renderStatusBar() string {
	if m.view == viewEdit {
		return renderShortcuts([]shortcut{{"Enter", "Сохранить"}, {"Esc", "Отмена"}})
	}
	return renderShortcuts([]shortcut{{"↑↓", "Выбор"}, {"Enter", "Изменить"}, {"Esc", "Назад"}})
}

// RunConfig starts the settings editor
func RunConfig(cfg config.Config, configPath string) error {
	p := tea.NewProgram(NewConfigModel(cfg, configPath, nil), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
