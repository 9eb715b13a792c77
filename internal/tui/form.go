package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bizcopilot/copilot/internal/actions"
)

// formField is one input of a quick-action form
type formField struct {
	def   actions.Field
	input textinput.Model
	area  textarea.Model
	// choice indexes choiceValues for select fields
	choice int
}

func (f formField) choiceValues() []string {
	values := make([]string, 0, len(f.def.Choices)+1)
	if f.def.Default == "" && !f.def.Required {
		values = append(values, "")
	}
	for _, c := range f.def.Choices {
		values = append(values, c.Value)
	}
	return values
}

func (f formField) choiceLabel() string {
	v := f.value()
	if v == "" {
		return "—"
	}
	for _, c := range f.def.Choices {
		if c.Value == v {
			return c.Label
		}
	}
	return v
}

func (f formField) value() string {
	switch {
	case len(f.def.Choices) > 0:
		values := f.choiceValues()
		if f.choice < 0 || f.choice >= len(values) {
			return ""
		}
		return values[f.choice]
	case f.def.Multiline:
		return f.area.Value()
	default:
		return f.input.Value()
	}
}

// formModel is the input overlay for one quick action
type formModel struct {
	action actions.Action
	fields []formField
	focus  int
	notice string
	busy   bool
	width  int
}

func newFormModel(action actions.Action, values actions.Values, width int) formModel {
	inputWidth := width - 12
	if inputWidth < 20 {
		inputWidth = 20
	}

	fields := make([]formField, 0, len(action.Fields))
	for _, def := range action.Fields {
		ff := formField{def: def}
		v := values[def.Name]
		switch {
		case len(def.Choices) > 0:
			for i, cv := range ff.choiceValues() {
				if cv == v {
					ff.choice = i
				}
			}
		case def.Multiline:
			ta := textarea.New()
			ta.Placeholder = def.Placeholder
			ta.ShowLineNumbers = false
			ta.CharLimit = 20000
			ta.SetWidth(inputWidth)
			ta.SetHeight(3)
			ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
			ta.SetValue(v)
			ta.Blur()
			ff.area = ta
		default:
			ti := textinput.New()
			ti.Placeholder = def.Placeholder
			ti.CharLimit = 2000
			ti.Width = inputWidth
			ti.SetValue(v)
			ti.Blur()
			ff.input = ti
		}
		fields = append(fields, ff)
	}

	f := formModel{action: action, fields: fields, width: width}
	f.setFocus(0)
	return f
}

func (f *formModel) setFocus(i int) {
	if len(f.fields) == 0 {
		return
	}
	f.focus = (i + len(f.fields)) % len(f.fields)
	for idx := range f.fields {
		field := &f.fields[idx]
		if idx == f.focus {
			if field.def.Multiline {
				field.area.Focus()
			} else {
				field.input.Focus()
			}
			continue
		}
		field.area.Blur()
		field.input.Blur()
	}
}

// Values returns the current input keyed by field name
func (f formModel) Values() actions.Values {
	values := make(actions.Values, len(f.fields))
	for _, field := range f.fields {
		values[field.def.Name] = field.value()
	}
	return values
}

// Update handles keys other than submit and cancel, which the parent owns.
func (f formModel) Update(msg tea.KeyMsg) (formModel, tea.Cmd) {
	if f.busy {
		return f, nil
	}

	switch msg.String() {
	case "tab":
		f.setFocus(f.focus + 1)
		return f, nil
	case "shift+tab":
		f.setFocus(f.focus - 1)
		return f, nil
	}

	field := &f.fields[f.focus]
	if len(field.def.Choices) > 0 {
		n := len(field.choiceValues())
		switch msg.String() {
		case "right", "l", " ", "enter":
			field.choice = (field.choice + 1) % n
		case "left", "h":
			field.choice = (field.choice - 1 + n) % n
		}
		return f, nil
	}

	var cmd tea.Cmd
	if field.def.Multiline {
		field.area, cmd = field.area.Update(msg)
	} else {
		if msg.String() == "enter" {
			f.setFocus(f.focus + 1)
			return f, nil
		}
		field.input, cmd = field.input.Update(msg)
	}
	return f, cmd
}

func (f formModel) View() string {
	var content strings.Builder

	content.WriteString(modalTitleStyle.Render(f.action.Icon + " " + f.action.Title))
	content.WriteString("\n")

	for i, field := range f.fields {
		labelStyle := fieldLabelStyle
		cursor := "  "
		if i == f.focus {
			labelStyle = fieldLabelFocusedStyle
			cursor = cursorStyle.Render("▸ ")
		}
		label := cursor + labelStyle.Render(field.def.Label)
		if field.def.Required {
			label += requiredStyle.Render(" *")
		}
		content.WriteString(label)
		content.WriteString("\n")

		switch {
		case len(field.def.Choices) > 0:
			choice := valueStyle.Render("‹ " + field.choiceLabel() + " ›")
			if i == f.focus {
				choice = menuSelectedStyle.Render("‹ " + field.choiceLabel() + " ›")
			}
			content.WriteString("  " + choice)
		case field.def.Multiline:
			content.WriteString(field.area.View())
		default:
			content.WriteString("  " + field.input.View())
		}
		content.WriteString("\n")
	}

	if f.busy {
		content.WriteString("\n")
		content.WriteString(loadingStyle.Render("  Генерация..."))
	}

	if f.notice != "" {
		content.WriteString(noticeBoxStyle.Render(f.notice + "\n\n" + hintStyle.Render("Enter/Esc — закрыть сообщение")))
	}

	content.WriteString("\n\n")
	content.WriteString(renderShortcuts([]shortcut{
		{"Tab", "Поле"},
		{"←→", "Выбор"},
		{"Ctrl+S", f.action.Submit},
		{"Esc", "Отмена"},
	}))

	return modalStyle.Width(f.width).Render(content.String())
}
