// Package content holds the marketing and form copy shown by every view.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/csheth/bioengine/internal/nav"
)

//go:embed pages.yaml
var embedded []byte

// Card is one highlight tile.
type Card struct {
	Title string `yaml:"title" json:"title"`
	Body  string `yaml:"body" json:"body"`
}

// Section is the copy of a marketing page. Body is Markdown.
type Section struct {
	Title     string `yaml:"title" json:"title"`
	Subtitle  string `yaml:"subtitle" json:"subtitle"`
	Body      string `yaml:"body" json:"body,omitempty"`
	CTA       string `yaml:"cta" json:"cta,omitempty"`
	Secondary string `yaml:"secondary" json:"secondary,omitempty"`
	Cards     []Card `yaml:"cards" json:"cards,omitempty"`
}

// LoginCopy labels the login form.
type LoginCopy struct {
	Title               string `yaml:"title" json:"title"`
	Subtitle            string `yaml:"subtitle" json:"subtitle"`
	EmailLabel          string `yaml:"email_label" json:"emailLabel"`
	EmailPlaceholder    string `yaml:"email_placeholder" json:"emailPlaceholder"`
	PasswordLabel       string `yaml:"password_label" json:"passwordLabel"`
	PasswordPlaceholder string `yaml:"password_placeholder" json:"passwordPlaceholder"`
	Submit              string `yaml:"submit" json:"submit"`
}

// ChatCopy labels the chat page.
type ChatCopy struct {
	Title       string `yaml:"title" json:"title"`
	EmptyTitle  string `yaml:"empty_title" json:"emptyTitle"`
	EmptyBody   string `yaml:"empty_body" json:"emptyBody"`
	Placeholder string `yaml:"placeholder" json:"placeholder"`
	Send        string `yaml:"send" json:"send"`
	Thinking    string `yaml:"thinking" json:"thinking"`
}

// Copy is the full document.
type Copy struct {
	Brand    string    `yaml:"brand" json:"brand"`
	Footer   string    `yaml:"footer" json:"footer"`
	Home     Section   `yaml:"home" json:"home"`
	Features Section   `yaml:"features" json:"features"`
	About    Section   `yaml:"about" json:"about"`
	Login    LoginCopy `yaml:"login" json:"login"`
	Chat     ChatCopy  `yaml:"chat" json:"chat"`
}

var ErrIncomplete = errors.New("content: incomplete copy")

// Parse decodes a copy document and checks that every page has a title.
func Parse(data []byte) (*Copy, error) {
	var c Copy
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("content: parse: %w", err)
	}
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("brand", c.Brand)
	check("home.title", c.Home.Title)
	check("features.title", c.Features.Title)
	check("about.title", c.About.Title)
	check("login.title", c.Login.Title)
	check("chat.empty_title", c.Chat.EmptyTitle)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return &c, nil
}

var (
	defaultOnce sync.Once
	defaultCopy *Copy
)

// Default returns the embedded copy. The embedded document is validated by
// tests, so a parse failure here is a build defect and panics.
func Default() *Copy {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(err)
		}
		defaultCopy = c
	})
	return defaultCopy
}

// Section returns the marketing copy for page. Login and chat pages have
// their own form copy and yield a Section with only the title set.
func (c *Copy) Section(page nav.Page) Section {
	switch page {
	case nav.PageHome:
		return c.Home
	case nav.PageFeatures:
		return c.Features
	case nav.PageAbout:
		return c.About
	case nav.PageLogin:
		return Section{Title: c.Login.Title, Subtitle: c.Login.Subtitle}
	case nav.PageChat:
		return Section{Title: c.Chat.Title}
	default:
		return Section{}
	}
}

// NavEntry is one item of the navigation bar.
type NavEntry struct {
	Label string `json:"label"`
	// Page is meaningless when Logout is set.
	Page   nav.Page `json:"page"`
	Logout bool     `json:"logout,omitempty"`
}

// NavEntries lists the navigation bar. Chat and Logout appear only for a
// signed-in visitor.
func NavEntries(authenticated bool) []NavEntry {
	entries := []NavEntry{
		{Label: "Home", Page: nav.PageHome},
		{Label: "Features", Page: nav.PageFeatures},
		{Label: "About", Page: nav.PageAbout},
		{Label: "Login", Page: nav.PageLogin},
	}
	if authenticated {
		entries = append(entries,
			NavEntry{Label: "Chat", Page: nav.PageChat},
			NavEntry{Label: "Logout", Logout: true},
		)
	}
	return entries
}
