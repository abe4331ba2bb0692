package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/bioengine/internal/chat"
	"github.com/csheth/bioengine/internal/core"
	"github.com/csheth/bioengine/internal/nav"
	"github.com/csheth/bioengine/internal/timers"
)

func newTestModel(t *testing.T) *model {
	t.Helper()
	m, _ := newTestModelWithClock(t)
	return m
}

func newTestModelWithClock(t *testing.T) (*model, *timers.Manual) {
	t.Helper()
	clock := timers.NewManual()
	runtime := core.NewRuntime(core.Options{Scheduler: clock})
	t.Cleanup(runtime.Close)
	teaModel, ok := New(Config{Runtime: runtime}).(*model)
	if !ok {
		t.Fatalf("expected *model, got %T", teaModel)
	}
	teaModel.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return teaModel, clock
}

func press(m *model, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func typeText(m *model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// syncRuntime pulls the latest snapshot after timer callbacks were queued on
// the runtime mailbox.
func syncRuntime(t *testing.T, m *model) {
	t.Helper()
	snap, err := m.config.Runtime.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	m.Update(snapshotMsg{snap: snap})
}

func TestNewStartsOnHome(t *testing.T) {
	m, clock := newTestModelWithClock(t)
	if m.snap.Page != nav.PageHome {
		t.Fatalf("start page mismatch, got %v want %v", m.snap.Page, nav.PageHome)
	}
	if m.focus != focusNone {
		t.Fatalf("home should not focus an input, got %v", m.focus)
	}

	clock.Advance(nav.DefaultTransitionDelay)
	syncRuntime(t, m)
	if !m.snap.TransitionVisible {
		t.Fatal("page should be revealed after the transition delay")
	}
	view := m.View()
	for _, want := range []string{"Biology Knowledge Engine", "Smart PDF Analysis", "Get Started"} {
		if !strings.Contains(view, want) {
			t.Fatalf("home view missing %q", want)
		}
	}
}

func TestNavigationKeys(t *testing.T) {
	m := newTestModel(t)
	cases := []struct {
		key  string
		want nav.Page
	}{
		{"f", nav.PageFeatures},
		{"a", nav.PageAbout},
		{"h", nav.PageHome},
		{"l", nav.PageLogin},
	}
	for _, tc := range cases {
		press(m, tc.key)
		if m.snap.Page != tc.want {
			t.Fatalf("key %q: page got %v want %v", tc.key, m.snap.Page, tc.want)
		}
		if m.snap.TransitionVisible {
			t.Fatalf("key %q: navigation should restart the transition", tc.key)
		}
	}
	if m.focus != focusEmail {
		t.Fatalf("login page should focus the email field, got %v", m.focus)
	}
}

func TestChatKeyRoutesThroughLogin(t *testing.T) {
	var rejected []string
	runtime := core.NewRuntime(core.Options{
		Scheduler: timers.NewManual(),
		Hooks: core.Hooks{OnIntent: func(kind string, err error) {
			if err != nil {
				rejected = append(rejected, kind)
			}
		}},
	})
	t.Cleanup(runtime.Close)
	m, ok := New(Config{Runtime: runtime}).(*model)
	if !ok {
		t.Fatalf("expected *model")
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	press(m, "c")
	if m.snap.Page != nav.PageLogin {
		t.Fatalf("signed-out chat key should open login, got %v", m.snap.Page)
	}
	if m.errorMessage != "" {
		t.Fatalf("no error expected, got %q", m.errorMessage)
	}
	if len(rejected) != 0 {
		t.Fatalf("controller rejected intents: %v", rejected)
	}

	press(m, "esc")
	login(t, m)
	press(m, "esc", "h", "c")
	if m.snap.Page != nav.PageChat {
		t.Fatalf("signed-in chat key should open chat, got %v", m.snap.Page)
	}
	if len(rejected) != 0 {
		t.Fatalf("controller rejected intents: %v", rejected)
	}
}

func TestLoginFlowThroughInputs(t *testing.T) {
	m := newTestModel(t)
	press(m, "l")
	typeText(m, "a@b.com")
	if m.snap.EmailDraft != "a@b.com" {
		t.Fatalf("email draft not dispatched, got %q", m.snap.EmailDraft)
	}
	press(m, "enter")
	if m.focus != focusPassword {
		t.Fatalf("enter in email should move to password, got %v", m.focus)
	}
	typeText(m, "x")
	press(m, "enter")

	if !m.snap.Authenticated {
		t.Fatal("login should succeed with both fields filled")
	}
	if m.snap.Page != nav.PageChat {
		t.Fatalf("login should open the chat, got %v", m.snap.Page)
	}
	if m.focus != focusMessage {
		t.Fatalf("chat page should focus the message field, got %v", m.focus)
	}
}

func TestEmptyPasswordKeepsLoginPage(t *testing.T) {
	m := newTestModel(t)
	press(m, "l")
	typeText(m, "a@b.com")
	press(m, "enter", "enter")
	if m.snap.Authenticated {
		t.Fatal("login must not succeed without a password")
	}
	if m.snap.Page != nav.PageLogin {
		t.Fatalf("page should stay on login, got %v", m.snap.Page)
	}
}

func login(t *testing.T, m *model) {
	t.Helper()
	press(m, "l")
	typeText(m, "a@b.com")
	press(m, "tab")
	typeText(m, "x")
	press(m, "enter")
	if m.snap.Page != nav.PageChat {
		t.Fatalf("login helper did not reach chat, got %v", m.snap.Page)
	}
}

func TestSendMessageShowsReply(t *testing.T) {
	m, clock := newTestModelWithClock(t)
	login(t, m)

	typeText(m, "What is mitosis?")
	press(m, "enter")
	if len(m.snap.Messages) != 1 {
		t.Fatalf("user message not appended, got %d", len(m.snap.Messages))
	}
	if got := m.messageInput.Value(); got != "" {
		t.Fatalf("message input should clear after send, got %q", got)
	}
	if m.snap.PendingReplies != 1 {
		t.Fatalf("reply should be pending, got %d", m.snap.PendingReplies)
	}

	clock.Advance(chat.DefaultReplyDelay)
	syncRuntime(t, m)
	if len(m.snap.Messages) != 2 {
		t.Fatalf("assistant reply missing, got %d messages", len(m.snap.Messages))
	}
	if m.snap.Messages[1].Sender != chat.SenderAssistant {
		t.Fatalf("second message sender got %v want %v", m.snap.Messages[1].Sender, chat.SenderAssistant)
	}
	if !strings.Contains(m.View(), "I'm your BioEngine assistant") {
		t.Fatal("transcript should show the assistant reply")
	}
}

func TestBlankMessageIsNotSent(t *testing.T) {
	m := newTestModel(t)
	login(t, m)
	typeText(m, "   ")
	press(m, "enter")
	if len(m.snap.Messages) != 0 {
		t.Fatalf("blank message should be ignored, got %d", len(m.snap.Messages))
	}
}

func TestLogoutReturnsHome(t *testing.T) {
	m := newTestModel(t)
	login(t, m)
	press(m, "esc", "x")
	if m.snap.Authenticated {
		t.Fatal("logout should clear the session")
	}
	if m.snap.Page != nav.PageHome {
		t.Fatalf("logout should land on home, got %v", m.snap.Page)
	}
}

func TestMenuToggleAndSelect(t *testing.T) {
	m := newTestModel(t)
	press(m, "m")
	if m.stage != stageMenu || !m.snap.MenuOpen {
		t.Fatalf("menu should open, stage=%v open=%v", m.stage, m.snap.MenuOpen)
	}
	press(m, "down", "enter")
	if m.snap.Page != nav.PageFeatures {
		t.Fatalf("menu selection should navigate, got %v", m.snap.Page)
	}
	if m.stage != stageBrowse || m.snap.MenuOpen {
		t.Fatalf("navigation should close the menu, stage=%v open=%v", m.stage, m.snap.MenuOpen)
	}

	press(m, "m", "esc")
	if m.snap.MenuOpen {
		t.Fatal("esc should close the menu")
	}
}

func TestStaleSnapshotIsIgnored(t *testing.T) {
	m := newTestModel(t)
	press(m, "f")
	m.Update(snapshotMsg{snap: core.Snapshot{Page: nav.PageAbout}})
	if m.snap.Page != nav.PageFeatures {
		t.Fatalf("older snapshot replaced newer state, got %v", m.snap.Page)
	}
}

func TestQuitOnlyOutsideInputs(t *testing.T) {
	m := newTestModel(t)
	press(m, "l", "q")
	if m.snap.EmailDraft != "q" {
		t.Fatalf("q should be typed into the focused field, got %q", m.snap.EmailDraft)
	}
	press(m, "esc")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q outside inputs should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q outside inputs should return tea.Quit")
	}
}

func TestNavigationCheatsheetToggle(t *testing.T) {
	m := newTestModel(t)

	if strings.Contains(m.View(), "Navigation Cheatsheet") {
		t.Fatal("navigation cheatsheet should be hidden by default")
	}
	press(m, "?")
	if !strings.Contains(m.View(), "Navigation Cheatsheet") {
		t.Fatal("navigation cheatsheet did not appear after toggling help")
	}
	press(m, "?")
	if strings.Contains(m.View(), "Navigation Cheatsheet") {
		t.Fatal("navigation cheatsheet should hide again after second toggle")
	}
}

func TestAboutPageRendersMarkdown(t *testing.T) {
	m, clock := newTestModelWithClock(t)
	press(m, "a")
	clock.Advance(nav.DefaultTransitionDelay)
	syncRuntime(t, m)
	if !strings.Contains(m.View(), "About BioEngine") {
		t.Fatal("about title should be rendered")
	}
	out := m.markdown.Render("Cells use **ATP** for energy.", 60)
	if strings.Contains(out, "**") || !strings.Contains(out, "ATP") {
		t.Fatalf("markdown emphasis not rendered: %q", out)
	}
}
