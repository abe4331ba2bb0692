package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/bioengine/internal/chat"
	"github.com/csheth/bioengine/internal/content"
	"github.com/csheth/bioengine/internal/nav"
)

const (
	navBarHeight   = 1
	footerHeight   = 2
	sectionGaps    = 4
	loginFormLines = 9
	chatInputLines = 4
)

type pageLayout struct {
	widthCap       int
	windowWidth    int
	windowHeight   int
	contentWidth   int
	viewportWidth  int
	viewportHeight int
	composerHeight int
}

func newPageLayout(widthCap int) pageLayout {
	return pageLayout{
		widthCap:       widthCap,
		contentWidth:   80,
		viewportWidth:  76,
		viewportHeight: 20,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	l.contentWidth = width
	if l.widthCap > 0 && l.contentWidth > l.widthCap {
		l.contentWidth = l.widthCap
	}
	innerWidth := l.contentWidth - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	chrome := l.headerHeight() + navBarHeight + footerHeight + sectionGaps
	usable := height - chrome - l.composerHeight
	if usable < 6 {
		usable = 6
	}
	l.viewportHeight = usable
}

func (l *pageLayout) headerHeight() int {
	if l.showLogo() {
		return len(logoArtLines) + 2
	}
	return 2
}

func (l *pageLayout) showLogo() bool {
	return l.contentWidth >= logoMinWidth
}

func composerHeight(page nav.Page) int {
	switch page {
	case nav.PageLogin:
		return loginFormLines
	case nav.PageChat:
		return chatInputLines
	default:
		return 0
	}
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

func (m *model) buildPageContent() *contentBuilder {
	cb := &contentBuilder{}
	pageCopy := m.config.Copy
	if !m.snap.TransitionVisible {
		// The page is between its exit and enter frames.
		cb.WriteString(transitionStyle.Render(pageCopy.Section(m.snap.Page).Title))
		cb.WriteRune('\n')
		return cb
	}
	switch m.snap.Page {
	case nav.PageHome:
		m.writeHome(cb, pageCopy.Home)
	case nav.PageFeatures:
		m.writeFeatures(cb, pageCopy.Features)
	case nav.PageAbout:
		m.writeAbout(cb, pageCopy.About)
	case nav.PageLogin:
		m.writeHeading(cb, pageCopy.Login.Title, pageCopy.Login.Subtitle)
	case nav.PageChat:
		m.writeConversation(cb, pageCopy.Chat)
	}
	return cb
}

func (m *model) writeHeading(cb *contentBuilder, title, subtitle string) {
	cb.WriteString(heroTitleStyle.Render(title))
	cb.WriteRune('\n')
	if subtitle != "" {
		cb.WriteString(subtitleStyle.Render(wordwrap.String(subtitle, m.wrapWidth(0))))
		cb.WriteRune('\n')
	}
	cb.WriteRune('\n')
}

func (m *model) writeHome(cb *contentBuilder, section content.Section) {
	m.writeHeading(cb, section.Title, section.Subtitle)
	buttons := []string{buttonStyle.Render("g  " + section.CTA)}
	if section.Secondary != "" {
		buttons = append(buttons, secondaryButtonStyle.Render("f  "+section.Secondary))
	}
	cb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, buttons...))
	cb.WriteString("\n\n")
	cb.WriteString(m.renderCards(section.Cards))
	cb.WriteRune('\n')
}

func (m *model) writeFeatures(cb *contentBuilder, section content.Section) {
	m.writeHeading(cb, section.Title, section.Subtitle)
	cb.WriteString(m.renderCards(section.Cards))
	cb.WriteString("\n\n")
	cb.WriteString(buttonStyle.Render("g  " + section.CTA))
	cb.WriteRune('\n')
}

func (m *model) writeAbout(cb *contentBuilder, section content.Section) {
	m.writeHeading(cb, section.Title, section.Subtitle)
	cb.WriteString(m.markdown.Render(section.Body, m.wrapWidth(0)))
	cb.WriteString("\n\n")
	cb.WriteString(buttonStyle.Render("g  " + section.CTA))
	cb.WriteRune('\n')
}

func (m *model) writeConversation(cb *contentBuilder, chatCopy content.ChatCopy) {
	cb.WriteString(sectionHeaderStyle.Render(chatCopy.Title))
	cb.WriteString("\n\n")
	if len(m.snap.Messages) == 0 {
		cb.WriteString(emptyTitleStyle.Render(chatCopy.EmptyTitle))
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render(wordwrap.String(chatCopy.EmptyBody, m.wrapWidth(4))))
		cb.WriteRune('\n')
	}
	width := m.wrapWidth(0)
	bubbleWidth := width * 3 / 4
	for idx, msg := range m.snap.Messages {
		label := transcriptLabel(msg.Sender)
		body := wordwrap.String(msg.Text, bubbleWidth-4)
		var block string
		if msg.Sender == chat.SenderUser {
			block = lipgloss.JoinVertical(lipgloss.Right,
				userLabelStyle.Render(label),
				userBubbleStyle.Render(body),
			)
			block = lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
		} else {
			block = lipgloss.JoinVertical(lipgloss.Left,
				assistantLabelStyle.Render(label),
				assistantBubbleStyle.Render(body),
			)
		}
		cb.WriteString(block)
		cb.WriteRune('\n')
		if idx < len(m.snap.Messages)-1 {
			cb.WriteRune('\n')
		}
	}
	if m.snap.PendingReplies > 0 {
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render(fmt.Sprintf("%s %s…", m.spinner.View(), chatCopy.Thinking)))
		cb.WriteRune('\n')
	}
}

// renderCards lays cards out in up to three columns, fewer on narrow
// terminals.
func (m *model) renderCards(cards []content.Card) string {
	if len(cards) == 0 {
		return ""
	}
	width := m.wrapWidth(0)
	columns := width / cardMinWidth
	if columns > 3 {
		columns = 3
	}
	if columns < 1 {
		columns = 1
	}
	cardWidth := width/columns - cardStyle.GetHorizontalFrameSize()
	rows := make([]string, 0, (len(cards)+columns-1)/columns)
	for start := 0; start < len(cards); start += columns {
		end := start + columns
		if end > len(cards) {
			end = len(cards)
		}
		cells := make([]string, 0, columns)
		for _, card := range cards[start:end] {
			body := cardTitleStyle.Render(wordwrap.String(card.Title, cardWidth)) + "\n" +
				helperStyle.Render(wordwrap.String(card.Body, cardWidth))
			cells = append(cells, cardStyle.Width(cardWidth).Render(body))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func transcriptLabel(sender chat.Sender) string {
	switch sender {
	case chat.SenderUser:
		return "You"
	case chat.SenderAssistant:
		return "BioEngine"
	default:
		return string(sender)
	}
}

// markdownRenderer keeps one glamour renderer per wrap width and caches
// output, since page bodies never change at runtime.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func (r *markdownRenderer) Render(markdown string, width int) string {
	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return wordwrap.String(markdown, width)
		}
		r.renderer = renderer
		r.width = width
		r.cache = map[string]string{}
	}
	if out, ok := r.cache[markdown]; ok {
		return out
	}
	out, err := r.renderer.Render(markdown)
	if err != nil {
		return wordwrap.String(markdown, width)
	}
	out = strings.Trim(out, "\n")
	r.cache[markdown] = out
	return out
}
