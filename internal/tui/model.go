package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/bizcopilot/copilot/internal/actions"
	"github.com/bizcopilot/copilot/internal/history"
	"github.com/bizcopilot/copilot/internal/logger"
	"github.com/bizcopilot/copilot/internal/models"
	"github.com/bizcopilot/copilot/internal/render"
	"github.com/bizcopilot/copilot/internal/session"
)

// ExamplePrompts are suggested on the empty chat screen
var ExamplePrompts = []string{
	"Как выбрать налоговый режим для ИП?",
	"Составь договор аренды офиса",
	"Создай пост для Instagram о новой услуге",
	"Проанализируй мои продажи за месяц",
}

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	replyMsg struct {
		reply session.Reply
	}
	actionDoneMsg struct {
		outcome actions.Outcome
	}
	healthMsg struct {
		resp *models.HealthResponse
		err  error
	}
)

// HealthChecker reports backend availability
type HealthChecker interface {
	Health(ctx context.Context) (*models.HealthResponse, error)
}

// ChatConfig wires the chat view to its collaborators
type ChatConfig struct {
	Session    *session.Session
	Dispatcher *actions.Dispatcher
	Health     HealthChecker
	BaseURL    string
	Logger     *zap.Logger
	Render     render.Options
	// ExportDir receives /save exports without an explicit path.
	ExportDir string
	// AutoCopy copies each quick-action result to the clipboard.
	AutoCopy bool
	// Copy overrides the clipboard writer.
	Copy func(string) error
}

type healthState struct {
	checked bool
	ok      bool
	text    string
}

// Model represents the TUI state
type Model struct {
	session    *session.Session
	dispatcher *actions.Dispatcher
	health     HealthChecker
	baseURL    string
	log        *zap.Logger
	renderOpts render.Options
	exportDir  string
	autoCopy   bool
	copyFn     func(string) error

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// Overlays, at most one non-nil
	menu   *menuModel
	form   *formModel
	result *resultModel

	// State
	ready          bool
	notice         string
	err            error
	healthState    healthState
	animationFrame int

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a new chat TUI model
func NewChatModel(cfg ChatConfig) Model {
	ta := textarea.New()
	ta.Placeholder = "Введите сообщение... (/help — команды)"
	ta.CharLimit = 8000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	copyFn := cfg.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	log := logger.OrNop(cfg.Logger)
	renderOpts := cfg.Render
	if renderOpts.Width == 0 {
		renderOpts = render.DefaultOptions()
	}

	return Model{
		session:    cfg.Session,
		dispatcher: cfg.Dispatcher,
		health:     cfg.Health,
		baseURL:    cfg.BaseURL,
		log:        log,
		renderOpts: renderOpts,
		exportDir:  cfg.ExportDir,
		autoCopy:   cfg.AutoCopy,
		copyFn:     copyFn,
		textarea:   ta,
		spinner:    s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.checkHealth(),
	)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case replyMsg:
		if m.session.Apply(msg.reply) {
			m.updateViewport()
			m.viewport.GotoBottom()
		}
		return m, nil

	case actionDoneMsg:
		return m.applyAction(msg.outcome)

	case healthMsg:
		m.healthState = evaluateHealth(msg.resp, msg.err)
		if msg.err != nil {
			m.log.Warn("health check failed", zap.Error(msg.err))
		}
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case animationTickMsg:
		if m.busy() {
			m.animationFrame++
			return m, animationTick()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.form != nil:
			return m.updateForm(msg)
		case m.result != nil:
			return m.updateResult(msg)
		case m.menu != nil:
			return m.updateMenu(msg)
		}
		if next, cmd, handled := m.handleChatKey(msg); handled {
			return next, cmd
		}
	}

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if !m.session.Pending() {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 3
	inputHeight := 5
	statusHeight := 1
	errorHeight := 2

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - errorHeight - 2
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := m.width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.updateViewport()
}

// handleChatKey processes keys for the chat view. handled is false when the
// key should go to the textarea.
func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit, true

	case "ctrl+o":
		menu := newMenuModel(m.modalWidth())
		m.menu = &menu
		return m, nil, true

	case "ctrl+n":
		m.resetConversation()
		return m, nil, true

	case "enter":
		input := strings.TrimSpace(m.textarea.Value())
		if input == "" || m.session.Pending() {
			return m, nil, true
		}
		if strings.HasPrefix(input, "/") || input == "exit" || input == "quit" {
			next, cmd := m.runCommand(input)
			return next, cmd, true
		}
		return m.submit(m.textarea.Value())
	}
	return m, nil, false
}

func (m Model) submit(text string) (tea.Model, tea.Cmd, bool) {
	req, ok := m.session.Begin(text)
	if !ok {
		return m, nil, true
	}
	m.textarea.Reset()
	m.notice = ""
	m.err = nil
	m.animationFrame = 0
	m.updateViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(
		m.sendMessage(req),
		m.spinner.Tick,
		animationTick(),
	), true
}

// runCommand executes a slash command typed into the input
func (m Model) runCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	name, args := fields[0], fields[1:]
	m.textarea.Reset()
	m.notice = ""
	m.err = nil

	switch name {
	case "/exit", "/quit", "exit", "quit":
		return m, tea.Quit

	case "/new":
		m.resetConversation()

	case "/mode":
		if len(args) == 0 {
			m.notice = "Режимы: " + modeList() + ". Текущий: " + models.ModeLabel(m.session.Mode())
			break
		}
		if err := m.session.SetMode(models.Mode(args[0])); err != nil {
			m.err = fmt.Errorf("неизвестный режим %q, доступны: %s", args[0], modeList())
			break
		}
		m.notice = "Режим: " + models.ModeLabel(m.session.Mode())

	case "/save":
		path := ""
		if len(args) > 0 {
			path = strings.Join(args, " ")
		}
		m.saveTranscript(path)

	case "/actions", "/a":
		menu := newMenuModel(m.modalWidth())
		m.menu = &menu

	case "/help":
		m.notice = "Команды: /mode [режим], /new, /save [файл.md|файл.json], /actions, /exit"

	default:
		m.err = fmt.Errorf("неизвестная команда %s (/help — список команд)", name)
	}
	return m, nil
}

func modeList() string {
	names := make([]string, 0, len(models.Modes))
	for _, info := range models.Modes {
		names = append(names, string(info.Mode))
	}
	return strings.Join(names, ", ")
}

func (m *Model) resetConversation() {
	m.session.Reset()
	m.notice = "Новый диалог"
	m.err = nil
	m.updateViewport()
}

func (m *Model) saveTranscript(path string) {
	id, hasID := m.session.ConversationID()
	t := history.Transcript{
		ConversationID: id,
		HasID:          hasID,
		Mode:           m.session.Mode(),
		Turns:          m.session.Turns(),
		ExportedAt:     time.Now(),
	}
	written, err := history.WriteFile(t, path, m.exportDir)
	if err != nil {
		m.err = err
		return
	}
	m.log.Info("transcript exported", zap.String("path", written), zap.Int("turns", len(t.Turns)))
	m.notice = "Сохранено: " + written
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.menu = nil
		return m, nil
	}
	menu, chosen := m.menu.Update(msg)
	m.menu = &menu
	if chosen == nil {
		return m, nil
	}

	if err := m.dispatcher.Open(chosen.Kind); err != nil {
		m.err = err
		m.menu = nil
		return m, nil
	}
	form := newFormModel(*chosen, m.dispatcher.Overlay().Values, m.modalWidth())
	m.menu = nil
	m.form = &form
	return m, textarea.Blink
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := *m.form

	if form.notice != "" {
		switch msg.String() {
		case "enter", "esc":
			m.dispatcher.DismissNotice()
			form.notice = ""
			m.form = &form
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.dispatcher.Close()
		m.form = nil
		return m, nil

	case "ctrl+s":
		if form.busy {
			return m, nil
		}
		sub, err := m.dispatcher.Begin(form.Values())
		if err != nil {
			form.notice = m.dispatcher.Overlay().Notice
			if form.notice == "" {
				form.notice = actions.Notice(err)
			}
			m.form = &form
			return m, nil
		}
		form.busy = true
		m.form = &form
		m.animationFrame = 0
		return m, tea.Batch(m.runAction(sub), animationTick())
	}

	form, cmd := form.Update(msg)
	m.form = &form
	return m, cmd
}

func (m Model) applyAction(out actions.Outcome) (tea.Model, tea.Cmd) {
	if !m.dispatcher.Apply(out) {
		return m, nil
	}

	overlay := m.dispatcher.Overlay()
	switch overlay.State {
	case actions.OverlayResult:
		title := string(out.Kind)
		if action, ok := actions.Lookup(out.Kind); ok {
			title = action.Title
		}
		result := newResultModel(title, overlay.Result, m.modalWidth(), m.height, m.renderOpts)
		if m.autoCopy {
			result.status = m.copyResult(overlay.Result)
		}
		m.form = nil
		m.result = &result

	case actions.OverlayInput:
		if m.form != nil {
			form := *m.form
			form.busy = false
			form.notice = overlay.Notice
			m.form = &form
		}
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.dispatcher.Close()
		m.result = nil
		return m, nil
	case "c":
		result := *m.result
		result.status = m.copyResult(result.text)
		m.result = &result
		return m, nil
	}

	result, cmd := m.result.Update(msg)
	m.result = &result
	return m, cmd
}

func (m Model) copyResult(text string) string {
	if err := m.copyFn(text); err != nil {
		m.log.Warn("clipboard copy failed", zap.Error(err))
		return "Не удалось скопировать: " + err.Error()
	}
	return "Скопировано в буфер обмена"
}

func (m Model) busy() bool {
	return m.session.Pending() || (m.form != nil && m.form.busy)
}

func (m Model) modalWidth() int {
	w := m.width - 8
	if w < 40 {
		w = 40
	}
	return w
}

// sendMessage creates a command that performs the chat round trip
func (m Model) sendMessage(req session.Request) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		return replyMsg{reply: sess.Do(context.Background(), req)}
	}
}

// runAction creates a command that performs a quick-action round trip
func (m Model) runAction(sub actions.Submission) tea.Cmd {
	d := m.dispatcher
	return func() tea.Msg {
		return actionDoneMsg{outcome: d.Run(context.Background(), sub)}
	}
}

// checkHealth queries the backend health endpoint
func (m Model) checkHealth() tea.Cmd {
	if m.health == nil {
		return nil
	}
	h := m.health
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		resp, err := h.Health(ctx)
		return healthMsg{resp: resp, err: err}
	}
}

func evaluateHealth(resp *models.HealthResponse, err error) healthState {
	switch {
	case err != nil || resp == nil:
		return healthState{checked: true, text: "API недоступен"}
	case resp.OK():
		return healthState{checked: true, ok: true, text: "API работает"}
	default:
		text := "API: " + resp.Status
		if resp.LLMStatus != "" {
			text += ", LLM: " + resp.LLMStatus
		}
		return healthState{checked: true, text: text}
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Загрузка...")
	}

	switch {
	case m.form != nil:
		return m.form.View()
	case m.result != nil:
		return m.result.View()
	case m.menu != nil:
		return m.menu.View()
	}

	contentWidth := m.width - 4
	var sections []string

	// Header
	sections = append(sections, headerStyle.Width(contentWidth).Render(m.renderHeader()))

	// Messages
	var messagesContent string
	if len(m.session.Turns()) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	// Input
	var inputContent string
	if m.session.Pending() {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("Вы"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	// Status line
	switch {
	case m.err != nil:
		sections = append(sections, errorStyle.Render("⚠ "+m.err.Error()))
	case m.notice != "":
		sections = append(sections, noticeStyle.Render(m.notice))
	}

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	parts := []string{
		titleStyle.Render("✦ ИИ-помощник для бизнеса"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render("режим: " + models.ModeLabel(m.session.Mode())),
	}
	if id, ok := m.session.ConversationID(); ok {
		parts = append(parts, hintStyle.Render("  •  "), subtitleStyle.Render(fmt.Sprintf("диалог #%d", id)))
	}

	status := healthWarnStyle.Render("○ проверка API")
	if m.healthState.checked {
		if m.healthState.ok {
			status = healthOKStyle.Render("● " + m.healthState.text)
		} else {
			status = healthDownStyle.Render("● " + m.healthState.text)
		}
	}
	parts = append(parts, hintStyle.Render("  •  "), status)

	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	lines := []string{
		welcomeIconStyle.Width(width).Align(lipgloss.Center).Render("✦"),
		"",
		welcomeTitleStyle.Width(width).Align(lipgloss.Center).Render("Начните диалог с ИИ-помощником"),
		hintStyle.Width(width).Align(lipgloss.Center).Render("Задайте любой вопрос о вашем бизнесе"),
		"",
		subtitleStyle.Render("Примеры вопросов:"),
	}
	for _, p := range ExamplePrompts {
		lines = append(lines, suggestionStyle.Render("  • "+p))
	}
	if m.baseURL != "" {
		lines = append(lines, "", pathStyle.Render("Сервер: "+m.baseURL))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders a colorful animated loading indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame
	spin := lipgloss.NewStyle().
		Foreground(gradientColors[frame%len(gradientColors)]).
		Bold(true).
		Render(chars[frame%len(chars)])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		style := lipgloss.NewStyle().Foreground(gradientColors[(i+frame)%len(gradientColors)])
		bar.WriteString(style.Render(barChars[(i+frame/2)%len(barChars)]))
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" Помощник думает... ")
	return fmt.Sprintf("%s %s %s", spin, bar.String(), text)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	bar := renderShortcuts([]shortcut{
		{"Enter", "Отправить"},
		{"Ctrl+O", "Действия"},
		{"Ctrl+N", "Новый диалог"},
		{"Esc", "Выход"},
	})
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport refreshes the viewport content with styled turns
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	var content strings.Builder
	for i, turn := range m.session.Turns() {
		if i > 0 {
			content.WriteString("\n")
		}
		stamp := timeStyle.Render(" " + turn.Timestamp.Format("15:04"))

		if turn.Role == models.RoleUser {
			label := userLabelStyle.Render("● Вы") + stamp
			bubble := userBubbleStyle.Width(bubbleWidth).Render(turn.Text)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render("✦ Помощник") + stamp
			rendered := render.Text(turn.Text, m.renderOpts.WithWidth(bubbleWidth-4))
			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
			content.WriteString(label + "\n" + bubble)
		}
		content.WriteString("\n")
	}

	if msg := m.session.LastError(); msg != "" {
		label := errorStyle.Render("⚠ Ошибка")
		bubble := errorBubbleStyle.Width(bubbleWidth).Render(msg)
		content.WriteString("\n" + label + "\n" + bubble + "\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat starts the chat TUI
func RunChat(cfg ChatConfig) error {
	p := tea.NewProgram(
		NewChatModel(cfg),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
