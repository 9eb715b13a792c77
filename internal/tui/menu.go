package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bizcopilot/copilot/internal/actions"
)

// menuModel lists the quick actions
type menuModel struct {
	items  []actions.Action
	cursor int
	width  int
}

func newMenuModel(width int) menuModel {
	return menuModel{items: actions.Catalog(), width: width}
}

// Update moves the cursor. It returns the chosen action on enter.
func (m menuModel) Update(msg tea.KeyMsg) (menuModel, *actions.Action) {
	switch msg.String() {
	case "up", "k":
		m.cursor--
		if m.cursor < 0 {
			m.cursor = len(m.items) - 1
		}
	case "down", "j":
		m.cursor++
		if m.cursor >= len(m.items) {
			m.cursor = 0
		}
	case "enter":
		chosen := m.items[m.cursor]
		return m, &chosen
	default:
		// digits pick directly
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			idx := int(s[0] - '1')
			if idx < len(m.items) {
				chosen := m.items[idx]
				return m, &chosen
			}
		}
	}
	return m, nil
}

func (m menuModel) View() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Быстрые действия"))
	content.WriteString("\n")

	for i, item := range m.items {
		line := item.Icon + " " + item.Title
		if i == m.cursor {
			content.WriteString(cursorStyle.Render("▸ ") + menuSelectedStyle.Render(line))
		} else {
			content.WriteString(menuItemStyle.Render(line))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(renderShortcuts([]shortcut{
		{"↑↓", "Выбор"},
		{"Enter", "Открыть"},
		{"Esc", "Назад"},
	}))
	return modalStyle.Width(m.width).Render(content.String())
}
