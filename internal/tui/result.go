package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bizcopilot/copilot/internal/render"
)

// resultModel is the read-only overlay showing a quick-action result
type resultModel struct {
	title    string
	text     string
	viewport viewport.Model
	status   string
	width    int
}

func newResultModel(title, text string, width, height int, opts render.Options) resultModel {
	vpWidth := width - 6
	if vpWidth < 20 {
		vpWidth = 20
	}
	vpHeight := height - 10
	if vpHeight < 5 {
		vpHeight = 5
	}

	vp := viewport.New(vpWidth, vpHeight)
	vp.SetContent(render.Text(text, opts.WithWidth(vpWidth-2)))

	return resultModel{
		title:    title,
		text:     text,
		viewport: vp,
		width:    width,
	}
}

func (r resultModel) Update(msg tea.Msg) (resultModel, tea.Cmd) {
	var cmd tea.Cmd
	r.viewport, cmd = r.viewport.Update(msg)
	return r, cmd
}

func (r resultModel) View() string {
	body := modalTitleStyle.Render("Результат · "+r.title) + "\n" + r.viewport.View()
	if r.status != "" {
		body += "\n" + noticeStyle.Render(r.status)
	}
	body += "\n\n" + renderShortcuts([]shortcut{
		{"↑↓", "Прокрутка"},
		{"c", "Копировать"},
		{"Esc", "Закрыть"},
	})
	return modalStyle.Width(r.width).Render(body)
}
