package tui

import "github.com/csheth/bioengine/internal/core"

type stage int

const (
	stageBrowse stage = iota
	stageMenu
	stagePalette
)

type focusTarget int

const (
	focusNone focusTarget = iota
	focusEmail
	focusPassword
	focusMessage
)

const heroTagline = "Your intelligent companion for biological research."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	logoMinWidth              = 84
	cardMinWidth              = 26
)

type snapshotMsg struct {
	snap core.Snapshot
}

type runtimeClosedMsg struct{}
