package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/csheth/bioengine/internal/content"
	"github.com/csheth/bioengine/internal/nav"
)

func (m *model) View() string {
	m.refreshViewportIfDirty()
	parts := []string{m.heroView(), m.navBarView()}
	switch m.stage {
	case stageMenu:
		parts = append(parts, m.menuView())
	case stagePalette:
		parts = append(parts, m.paletteView())
	}
	parts = append(parts, m.viewport.View())
	if composer := m.composerPanel(); composer != "" {
		parts = append(parts, composer)
	}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	parts = append(parts, m.footerView())
	return lipgloss.NewStyle().PaddingLeft(2).Render(joinNonEmpty(parts))
}

func (m *model) heroView() string {
	brand := m.config.Copy.Brand
	if !m.layout.showLogo() {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			brandStyle.Render("◆ "+brand),
			taglineStyle.Render(heroTagline),
		)
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderLogo(),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) navBarView() string {
	entries := content.NavEntries(m.snap.Authenticated)
	cells := make([]string, 0, len(entries))
	for _, entry := range entries {
		label := fmt.Sprintf("%s %s", navShortcut(entry), entry.Label)
		switch {
		case entry.Logout:
			cells = append(cells, logoutStyle.Render(label))
		case entry.Page == m.snap.Page:
			cells = append(cells, navActiveStyle.Render(label))
		default:
			cells = append(cells, navItemStyle.Render(label))
		}
	}
	menuHint := navItemStyle.Render("m ☰")
	return lipgloss.JoinHorizontal(lipgloss.Top, append(cells, menuHint)...)
}

func navShortcut(entry content.NavEntry) string {
	if entry.Logout {
		return "x"
	}
	switch entry.Page {
	case nav.PageHome:
		return "h"
	case nav.PageFeatures:
		return "f"
	case nav.PageAbout:
		return "a"
	case nav.PageLogin:
		return "l"
	case nav.PageChat:
		return "c"
	default:
		return " "
	}
}

func (m *model) menuView() string {
	entries := content.NavEntries(m.snap.Authenticated)
	lines := make([]string, 0, len(entries)+1)
	for idx, entry := range entries {
		line := "  " + entry.Label
		if idx == m.menuCursor {
			line = currentLineStyle.Render("▸ " + entry.Label)
		}
		lines = append(lines, line)
	}
	lines = append(lines, helperStyle.Render("↑/↓ choose • enter open • esc close"))
	return menuBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) paletteView() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Command Palette"))
	b.WriteRune('\n')
	b.WriteString(m.paletteInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Enter to run, Esc to cancel."))
	b.WriteRune('\n')
	b.WriteRune('\n')
	if len(m.paletteMatches) == 0 {
		b.WriteString(helperStyle.Render("No commands match this filter."))
	} else {
		for idx, cmd := range m.paletteMatches {
			label := fmt.Sprintf("  %s  [%s]", cmd.title, cmd.shortcut)
			if idx == m.paletteCursor {
				label = currentLineStyle.Render("▸ " + cmd.title + "  [" + cmd.shortcut + "]")
			}
			b.WriteString(label)
			b.WriteRune('\n')
			b.WriteString(helperStyle.Render("   " + cmd.description))
			b.WriteRune('\n')
		}
	}
	return helpBoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *model) composerPanel() string {
	pageCopy := m.config.Copy
	switch m.snap.Page {
	case nav.PageLogin:
		return joinLines(
			fieldLabelStyle.Render(pageCopy.Login.EmailLabel),
			m.fieldBox(focusEmail).Render(m.emailInput.View()),
			fieldLabelStyle.Render(pageCopy.Login.PasswordLabel),
			m.fieldBox(focusPassword).Render(m.passwordInput.View()),
			helperStyle.Render(fmt.Sprintf("enter: %s • tab: next field • esc: leave form", strings.ToLower(pageCopy.Login.Submit))),
		)
	case nav.PageChat:
		return joinLines(
			m.fieldBox(focusMessage).Render(m.messageInput.View()),
			helperStyle.Render(fmt.Sprintf("enter: %s • ↑/↓: scroll • esc: leave input", strings.ToLower(pageCopy.Chat.Send))),
		)
	default:
		return ""
	}
}

func (m *model) fieldBox(target focusTarget) lipgloss.Style {
	if m.focus == target {
		return focusedFieldStyle
	}
	return fieldStyle
}

func (m *model) footerView() string {
	return joinLines(
		m.sessionMeterView(),
		helperStyle.Render(m.help.View(m.keys)),
		footerStyle.Render(m.config.Copy.Footer),
	)
}

func (m *model) sessionMeterView() string {
	status := "Signed out"
	if m.snap.Authenticated {
		status = "Signed in"
	}
	stats := []string{
		fmt.Sprintf("Page %s", pageTitle(m.snap.Page)),
		status,
		fmt.Sprintf("Messages %d", len(m.snap.Messages)),
	}
	if m.snap.PendingReplies > 0 {
		stats = append(stats, fmt.Sprintf("%s Replies pending %d", m.spinner.View(), m.snap.PendingReplies))
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func pageTitle(page nav.Page) string {
	name := page.String()
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func (m *model) keyLegendView() string {
	rows := []string{sectionHeaderStyle.Render("Navigation Cheatsheet")}
	for _, group := range m.keys.FullHelp() {
		var cells []string
		for _, binding := range group {
			hint := binding.Help()
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Desc + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func joinLines(parts ...string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n")
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width += 1
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}

	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}

	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			if y+1 < height && x+1 < width {
				grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
			}
		}
	}

	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			grid[y][x] = cell{r: r, style: logoFaceStyle}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	subtitleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	transitionStyle    = lipgloss.NewStyle().Faint(true)

	accentColor     = lipgloss.Color("#06b6d4")
	accentDeepColor = lipgloss.Color("#2563eb")
	surfaceColor    = lipgloss.Color("#1a1a1a")
	textColor       = lipgloss.Color("#f3f4f6")
	mutedColor      = lipgloss.Color("#9ca3af")

	brandStyle           = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	heroTitleStyle       = lipgloss.NewStyle().Bold(true).Foreground(textColor)
	taglineStyle         = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	buttonStyle          = lipgloss.NewStyle().Bold(true).Foreground(textColor).Background(accentDeepColor).Padding(0, 2).MarginRight(2)
	secondaryButtonStyle = lipgloss.NewStyle().Foreground(textColor).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#374151")).Padding(0, 2)
	cardStyle            = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#1f2937")).Padding(0, 1)
	cardTitleStyle       = lipgloss.NewStyle().Bold(true).Foreground(textColor)
	emptyTitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(mutedColor)
	userLabelStyle       = lipgloss.NewStyle().Foreground(accentColor)
	assistantLabelStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	userBubbleStyle      = lipgloss.NewStyle().Foreground(textColor).Background(accentDeepColor).Padding(0, 1)
	assistantBubbleStyle = lipgloss.NewStyle().Foreground(textColor).Background(surfaceColor).Padding(0, 1)
	navItemStyle         = lipgloss.NewStyle().Foreground(mutedColor).PaddingRight(3)
	navActiveStyle       = lipgloss.NewStyle().Bold(true).Foreground(textColor).Underline(true).MarginRight(3)
	logoutStyle          = lipgloss.NewStyle().Foreground(textColor).Background(accentDeepColor).Padding(0, 1).MarginRight(3)
	menuBoxStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#374151")).Padding(0, 1)
	fieldLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#d1d5db"))
	fieldStyle           = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#374151")).Padding(0, 1)
	focusedFieldStyle    = fieldStyle.BorderForeground(mutedColor)
	footerStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	statusBarStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle             = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	helpBoxStyle         = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	currentLineStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	logoFaceStyle        = lipgloss.NewStyle().Bold(true).Foreground(textColor)
	logoShadowStyle      = lipgloss.NewStyle().Foreground(accentDeepColor)
	logoArtLines         = []string{
		"██████╗ ██╗ ██████╗ ███████╗███╗   ██╗ ██████╗ ██╗███╗   ██╗███████╗",
		"██╔══██╗██║██╔═══██╗██╔════╝████╗  ██║██╔════╝ ██║████╗  ██║██╔════╝",
		"██████╔╝██║██║   ██║█████╗  ██╔██╗ ██║██║  ███╗██║██╔██╗ ██║█████╗  ",
		"██╔══██╗██║██║   ██║██╔══╝  ██║╚██╗██║██║   ██║██║██║╚██╗██║██╔══╝  ",
		"██████╔╝██║╚██████╔╝███████╗██║ ╚████║╚██████╔╝██║██║ ╚████║███████╗",
		"╚═════╝ ╚═╝ ╚═════╝ ╚══════╝╚═╝  ╚═══╝ ╚═════╝ ╚═╝╚═╝  ╚═══╝╚══════╝",
	}
)
