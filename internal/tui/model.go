package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/csheth/bioengine/internal/content"
	"github.com/csheth/bioengine/internal/core"
	"github.com/csheth/bioengine/internal/nav"
)

// Config wires runtime options into the TUI program.
type Config struct {
	// Runtime drives the session. When nil the model starts its own with
	// default timings and closes it on quit.
	Runtime  *core.Runtime
	Copy     *content.Copy
	Logger   *zap.Logger
	WidthCap int
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Copy == nil {
		config.Copy = content.Default()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	ownsRuntime := false
	if config.Runtime == nil {
		config.Runtime = core.NewRuntime(core.Options{Logger: config.Logger})
		ownsRuntime = true
	}
	pageCopy := config.Copy

	emailInput := textinput.New()
	emailInput.Placeholder = pageCopy.Login.EmailPlaceholder
	emailInput.CharLimit = 120
	emailInput.Width = 40

	passwordInput := textinput.New()
	passwordInput.Placeholder = pageCopy.Login.PasswordPlaceholder
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.EchoCharacter = '•'
	passwordInput.CharLimit = 120
	passwordInput.Width = 40

	messageInput := textinput.New()
	messageInput.Placeholder = pageCopy.Chat.Placeholder
	messageInput.CharLimit = 500
	messageInput.Width = 70

	paletteInput := textinput.New()
	paletteInput.Placeholder = "Type to filter commands…"
	paletteInput.CharLimit = 60
	paletteInput.Width = 40

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	m := &model{
		config:        config,
		ownsRuntime:   ownsRuntime,
		keys:          newKeyMap(),
		stage:         stageBrowse,
		emailInput:    emailInput,
		passwordInput: passwordInput,
		messageInput:  messageInput,
		paletteInput:  paletteInput,
		spinner:       spin,
		viewport:      vp,
		help:          help.New(),
		layout:        newPageLayout(config.WidthCap),
		markdown:      &markdownRenderer{},
		viewportDirty: true,
	}

	ctx := context.Background()
	if snap, err := config.Runtime.Snapshot(ctx); err == nil {
		m.snap = snap
	}
	updates, cancel, err := config.Runtime.Subscribe(ctx)
	if err != nil {
		m.errorMessage = err.Error()
	} else {
		m.updates = updates
		m.unsubscribe = cancel
	}
	m.enterPage()
	return m
}

type model struct {
	config      Config
	ownsRuntime bool
	keys        keyMap
	stage       stage
	focus       focusTarget

	emailInput    textinput.Model
	passwordInput textinput.Model
	messageInput  textinput.Model
	paletteInput  textinput.Model
	spinner       spinner.Model
	viewport      viewport.Model
	help          help.Model
	layout        pageLayout
	markdown      *markdownRenderer

	snap        core.Snapshot
	updates     <-chan core.Snapshot
	unsubscribe func()

	spinning       bool
	menuCursor     int
	paletteMatches []paletteCommand
	paletteCursor  int
	helpVisible    bool
	errorMessage   string
	infoMessage    string
	viewportDirty  bool
	stickToBottom  bool
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForSnapshot())
}

// waitForSnapshot blocks on the subscription so timer-driven changes (the
// page reveal, assistant replies) reach Update as messages.
func (m *model) waitForSnapshot() tea.Cmd {
	updates := m.updates
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return runtimeClosedMsg{}
		}
		return snapshotMsg{snap: snap}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.applyLayout()
		return m, nil
	case snapshotMsg:
		if msg.snap.Version < m.snap.Version {
			return m, m.waitForSnapshot()
		}
		cmd := m.applySnapshot(msg.snap)
		return m, tea.Batch(cmd, m.waitForSnapshot())
	case runtimeClosedMsg:
		return m, tea.Quit
	case spinner.TickMsg:
		if m.snap.PendingReplies == 0 {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.markViewportDirty()
		return m, cmd
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, m.quit()
		}
		return m.handleKey(msg)
	}

	if input := m.focusedInput(); input != nil {
		var cmd tea.Cmd
		*input, cmd = input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stagePalette:
		return m.handlePaletteKey(msg)
	case stageMenu:
		return m.handleMenuKey(msg)
	}
	if m.focus != focusNone {
		return m.handleInputKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m *model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.Home):
		return m, m.dispatch(core.Navigate{Page: nav.PageHome})
	case key.Matches(msg, m.keys.Features):
		return m, m.dispatch(core.Navigate{Page: nav.PageFeatures})
	case key.Matches(msg, m.keys.About):
		return m, m.dispatch(core.Navigate{Page: nav.PageAbout})
	case key.Matches(msg, m.keys.Login):
		return m, m.dispatch(core.Navigate{Page: nav.PageLogin})
	case key.Matches(msg, m.keys.Chat):
		return m, m.dispatch(m.chatIntent())
	case key.Matches(msg, m.keys.Logout):
		if !m.snap.Authenticated {
			m.infoMessage = "You are not logged in."
			return m, nil
		}
		return m, m.dispatch(core.Logout{})
	case key.Matches(msg, m.keys.Start):
		return m, m.dispatch(core.OpenChat{})
	case key.Matches(msg, m.keys.Menu):
		return m, m.dispatch(core.ToggleMobileMenu{})
	case key.Matches(msg, m.keys.Palette):
		m.openPalette()
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.helpVisible = !m.helpVisible
		return m, nil
	case key.Matches(msg, m.keys.Focus), key.Matches(msg, m.keys.Submit):
		if target := defaultFocus(m.snap.Page); target != focusNone {
			return m, m.setFocus(target)
		}
		if key.Matches(msg, m.keys.Submit) {
			return m, m.dispatch(core.OpenChat{})
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// chatIntent opens the chat directly when signed in and goes through the
// login page otherwise.
func (m *model) chatIntent() core.Intent {
	if m.snap.Authenticated {
		return core.Navigate{Page: nav.PageChat}
	}
	return core.OpenChat{}
}

func (m *model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Blur):
		m.blurInputs()
		return m, nil
	case key.Matches(msg, m.keys.Palette):
		m.openPalette()
		return m, nil
	case msg.Type == tea.KeyTab || msg.Type == tea.KeyShiftTab:
		switch m.focus {
		case focusEmail:
			return m, m.setFocus(focusPassword)
		case focusPassword:
			return m, m.setFocus(focusEmail)
		}
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		switch m.focus {
		case focusEmail:
			return m, m.setFocus(focusPassword)
		case focusPassword:
			return m, m.dispatch(core.SubmitLogin{})
		case focusMessage:
			return m, m.dispatch(core.SubmitMessage{})
		}
		return m, nil
	case msg.Type == tea.KeyUp || msg.Type == tea.KeyDown || msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.stickToBottom = m.viewport.AtBottom()
		return m, cmd
	}

	input := m.focusedInput()
	before := input.Value()
	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	after := input.Value()
	if after == before {
		return m, cmd
	}
	var draft core.Intent
	switch m.focus {
	case focusEmail:
		draft = core.UpdateEmailDraft{Value: after}
	case focusPassword:
		draft = core.UpdatePasswordDraft{Value: after}
	case focusMessage:
		draft = core.UpdateMessageDraft{Value: after}
	}
	return m, tea.Batch(cmd, m.dispatch(draft))
}

func (m *model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := content.NavEntries(m.snap.Authenticated)
	switch msg.String() {
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
		return m, nil
	case "down", "j":
		if m.menuCursor < len(entries)-1 {
			m.menuCursor++
		}
		return m, nil
	case "enter":
		if m.menuCursor < 0 || m.menuCursor >= len(entries) {
			return m, nil
		}
		entry := entries[m.menuCursor]
		if entry.Logout {
			return m, m.dispatch(core.Logout{})
		}
		return m, m.dispatch(core.Navigate{Page: entry.Page})
	case "esc", "m":
		return m, m.dispatch(core.ToggleMobileMenu{})
	case "q":
		return m, m.quit()
	}
	return m, nil
}

// dispatch sends intent to the runtime and adopts the snapshot it returns.
func (m *model) dispatch(intent core.Intent) tea.Cmd {
	snap, err := m.config.Runtime.Dispatch(context.Background(), intent)
	switch {
	case err == nil:
		m.errorMessage = ""
	case errors.Is(err, core.ErrClosed):
		return tea.Quit
	case errors.Is(err, nav.ErrLoginRequired):
		m.errorMessage = "Log in to open the chat. Press g to get started."
	default:
		m.errorMessage = err.Error()
	}
	if err != nil {
		m.config.Logger.Debug("intent rejected", zap.String("kind", intent.Kind()), zap.Error(err))
	}
	return m.applySnapshot(snap)
}

// applySnapshot is the single place view state follows the runtime.
func (m *model) applySnapshot(snap core.Snapshot) tea.Cmd {
	prev := m.snap
	m.snap = snap

	if m.emailInput.Value() != snap.EmailDraft {
		m.emailInput.SetValue(snap.EmailDraft)
	}
	if m.passwordInput.Value() != snap.PasswordDraft {
		m.passwordInput.SetValue(snap.PasswordDraft)
	}
	if m.messageInput.Value() != snap.MessageDraft {
		m.messageInput.SetValue(snap.MessageDraft)
	}

	var cmds []tea.Cmd
	if prev.Page != snap.Page {
		m.infoMessage = ""
		cmds = append(cmds, m.enterPage())
	}
	if len(snap.Messages) != len(prev.Messages) {
		m.stickToBottom = true
	}
	if prev.Page != snap.Page ||
		prev.TransitionVisible != snap.TransitionVisible ||
		prev.Authenticated != snap.Authenticated ||
		prev.PendingReplies != snap.PendingReplies ||
		len(prev.Messages) != len(snap.Messages) {
		m.markViewportDirty()
	}

	switch {
	case snap.MenuOpen && m.stage == stageBrowse:
		m.stage = stageMenu
		m.menuCursor = m.menuIndex(snap.Page)
	case !snap.MenuOpen && m.stage == stageMenu:
		m.stage = stageBrowse
	}

	if snap.PendingReplies > 0 && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// enterPage resets scroll and focus for the current page.
func (m *model) enterPage() tea.Cmd {
	m.viewport.GotoTop()
	m.stickToBottom = m.snap.Page == nav.PageChat
	m.layout.composerHeight = composerHeight(m.snap.Page)
	m.applyLayout()
	return m.setFocus(defaultFocus(m.snap.Page))
}

func defaultFocus(page nav.Page) focusTarget {
	switch page {
	case nav.PageLogin:
		return focusEmail
	case nav.PageChat:
		return focusMessage
	default:
		return focusNone
	}
}

func (m *model) setFocus(target focusTarget) tea.Cmd {
	m.blurInputs()
	m.focus = target
	if input := m.focusedInput(); input != nil {
		return input.Focus()
	}
	return nil
}

func (m *model) blurInputs() {
	m.emailInput.Blur()
	m.passwordInput.Blur()
	m.messageInput.Blur()
	m.focus = focusNone
}

func (m *model) focusedInput() *textinput.Model {
	switch m.focus {
	case focusEmail:
		return &m.emailInput
	case focusPassword:
		return &m.passwordInput
	case focusMessage:
		return &m.messageInput
	default:
		return nil
	}
}

func (m *model) menuIndex(page nav.Page) int {
	for idx, entry := range content.NavEntries(m.snap.Authenticated) {
		if !entry.Logout && entry.Page == page {
			return idx
		}
	}
	return 0
}

func (m *model) applyLayout() {
	m.viewport.Width = m.layout.viewportWidth
	m.viewport.Height = m.layout.viewportHeight
	m.help.Width = m.layout.viewportWidth
	inputWidth := m.layout.viewportWidth - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	m.messageInput.Width = inputWidth
	if inputWidth > 40 {
		inputWidth = 40
	}
	m.emailInput.Width = inputWidth
	m.passwordInput.Width = inputWidth
	m.markViewportDirty()
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) refreshViewportIfDirty() {
	if !m.viewportDirty {
		return
	}
	m.viewportDirty = false
	m.viewport.SetContent(m.buildPageContent().String())
	if m.stickToBottom {
		m.viewport.GotoBottom()
	}
}

func (m *model) quit() tea.Cmd {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	if m.ownsRuntime {
		m.config.Runtime.Close()
	}
	return tea.Quit
}
