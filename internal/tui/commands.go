package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/bioengine/internal/core"
	"github.com/csheth/bioengine/internal/nav"
)

type paletteAction int

const (
	actionHome paletteAction = iota
	actionFeatures
	actionAbout
	actionLogin
	actionChat
	actionGetStarted
	actionLogout
	actionToggleMenu
	actionToggleHelp
	actionQuit
)

type paletteCommand struct {
	action      paletteAction
	title       string
	shortcut    string
	description string
}

var paletteCommands = []paletteCommand{
	{actionHome, "Go to Home", "h", "Hero and highlights."},
	{actionFeatures, "Go to Features", "f", "Everything BioEngine can do."},
	{actionAbout, "Go to About", "a", "Mission, audience and technology."},
	{actionLogin, "Go to Login", "l", "Sign in with any email and password."},
	{actionChat, "Open Chat", "c", "Talk to the assistant."},
	{actionGetStarted, "Get Started", "g", "Chat when signed in, login otherwise."},
	{actionLogout, "Logout", "x", "Sign out and return home."},
	{actionToggleMenu, "Toggle Menu", "m", "Show or hide the navigation menu."},
	{actionToggleHelp, "Toggle Cheatsheet", "?", "Show every key binding."},
	{actionQuit, "Quit", "q", "Leave BioEngine."},
}

func (m *model) commandAvailable(action paletteAction) bool {
	switch action {
	case actionChat, actionLogout:
		return m.snap.Authenticated
	default:
		return true
	}
}

func (m *model) filterPalette(query string) []paletteCommand {
	query = strings.ToLower(strings.TrimSpace(query))
	matches := make([]paletteCommand, 0, len(paletteCommands))
	for _, cmd := range paletteCommands {
		if !m.commandAvailable(cmd.action) {
			continue
		}
		if query == "" ||
			strings.Contains(strings.ToLower(cmd.title), query) ||
			strings.Contains(strings.ToLower(cmd.description), query) {
			matches = append(matches, cmd)
		}
	}
	return matches
}

func (m *model) openPalette() {
	m.blurInputs()
	m.stage = stagePalette
	m.paletteInput.SetValue("")
	m.paletteInput.Focus()
	m.paletteMatches = m.filterPalette("")
	m.paletteCursor = 0
}

func (m *model) closePalette() {
	m.paletteInput.Blur()
	m.stage = stageBrowse
	if m.snap.MenuOpen {
		m.stage = stageMenu
	}
}

func (m *model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePalette()
		return m, nil
	case tea.KeyUp:
		if m.paletteCursor > 0 {
			m.paletteCursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.paletteCursor < len(m.paletteMatches)-1 {
			m.paletteCursor++
		}
		return m, nil
	case tea.KeyEnter:
		if len(m.paletteMatches) == 0 {
			return m, nil
		}
		selected := m.paletteMatches[m.paletteCursor]
		m.closePalette()
		return m, m.runPaletteCommand(selected.action)
	}
	var cmd tea.Cmd
	m.paletteInput, cmd = m.paletteInput.Update(msg)
	m.paletteMatches = m.filterPalette(m.paletteInput.Value())
	if m.paletteCursor >= len(m.paletteMatches) {
		m.paletteCursor = 0
	}
	return m, cmd
}

func (m *model) runPaletteCommand(action paletteAction) tea.Cmd {
	switch action {
	case actionHome:
		return m.dispatch(core.Navigate{Page: nav.PageHome})
	case actionFeatures:
		return m.dispatch(core.Navigate{Page: nav.PageFeatures})
	case actionAbout:
		return m.dispatch(core.Navigate{Page: nav.PageAbout})
	case actionLogin:
		return m.dispatch(core.Navigate{Page: nav.PageLogin})
	case actionChat:
		return m.dispatch(m.chatIntent())
	case actionGetStarted:
		return m.dispatch(core.OpenChat{})
	case actionLogout:
		return m.dispatch(core.Logout{})
	case actionToggleMenu:
		return m.dispatch(core.ToggleMobileMenu{})
	case actionToggleHelp:
		m.helpVisible = !m.helpVisible
		return nil
	case actionQuit:
		return m.quit()
	default:
		return nil
	}
}
