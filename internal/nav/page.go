package nav

import (
	"fmt"
	"strings"
)

// Page identifies one of the top-level views.
type Page int

const (
	PageHome Page = iota
	PageFeatures
	PageAbout
	PageLogin
	PageChat
)

var pageNames = [...]string{
	PageHome:     "home",
	PageFeatures: "features",
	PageAbout:    "about",
	PageLogin:    "login",
	PageChat:     "chat",
}

// Pages lists every page in navigation order.
func Pages() []Page {
	return []Page{PageHome, PageFeatures, PageAbout, PageLogin, PageChat}
}

func (p Page) String() string {
	if !p.Valid() {
		return fmt.Sprintf("page(%d)", int(p))
	}
	return pageNames[p]
}

// Valid reports whether p is one of the declared pages.
func (p Page) Valid() bool {
	return p >= PageHome && p <= PageChat
}

// ParsePage accepts the lowercase page name.
func ParsePage(name string) (Page, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for idx, candidate := range pageNames {
		if candidate == name {
			return Page(idx), nil
		}
	}
	return PageHome, fmt.Errorf("%w: %q", ErrUnknownPage, name)
}

func (p Page) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPage, int(p))
	}
	return []byte(p.String()), nil
}

func (p *Page) UnmarshalText(text []byte) error {
	parsed, err := ParsePage(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
