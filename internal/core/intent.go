package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/csheth/bioengine/internal/nav"
)

// Intent is an input event emitted by a view.
type Intent interface {
	Kind() string
}

type (
	// Navigate asks for a page switch.
	Navigate struct{ Page nav.Page }
	// UpdateEmailDraft replaces the login email buffer.
	UpdateEmailDraft struct{ Value string }
	// UpdatePasswordDraft replaces the login password buffer.
	UpdatePasswordDraft struct{ Value string }
	// SubmitLogin attempts the simulated login and opens the chat on success.
	SubmitLogin struct{}
	// Logout signs out and returns to the home page in one step.
	Logout struct{}
	// UpdateMessageDraft replaces the chat input buffer.
	UpdateMessageDraft struct{ Value string }
	// SubmitMessage sends the chat input buffer.
	SubmitMessage struct{}
	// ToggleMobileMenu opens or closes the compact navigation menu.
	ToggleMobileMenu struct{}
	// OpenChat is the call-to-action: chat when signed in, login otherwise.
	OpenChat struct{}
)

const (
	KindNavigate            = "navigate"
	KindUpdateEmailDraft    = "update_email_draft"
	KindUpdatePasswordDraft = "update_password_draft"
	KindSubmitLogin         = "submit_login"
	KindLogout              = "logout"
	KindUpdateMessageDraft  = "update_message_draft"
	KindSubmitMessage       = "submit_message"
	KindToggleMobileMenu    = "toggle_mobile_menu"
	KindOpenChat            = "open_chat"
)

func (Navigate) Kind() string            { return KindNavigate }
func (UpdateEmailDraft) Kind() string    { return KindUpdateEmailDraft }
func (UpdatePasswordDraft) Kind() string { return KindUpdatePasswordDraft }
func (SubmitLogin) Kind() string         { return KindSubmitLogin }
func (Logout) Kind() string              { return KindLogout }
func (UpdateMessageDraft) Kind() string  { return KindUpdateMessageDraft }
func (SubmitMessage) Kind() string       { return KindSubmitMessage }
func (ToggleMobileMenu) Kind() string    { return KindToggleMobileMenu }
func (OpenChat) Kind() string            { return KindOpenChat }

// ErrUnknownIntent is returned for intent kinds the controller does not know.
var ErrUnknownIntent = errors.New("unknown intent")

// Envelope is the JSON form of an intent:
//
//	{"type": "navigate", "page": "features"}
//	{"type": "update_email_draft", "value": "a@b.com"}
type Envelope struct {
	Type  string `json:"type"`
	Page  string `json:"page,omitempty"`
	Value string `json:"value,omitempty"`
}

// DecodeIntent parses an Envelope.
func DecodeIntent(raw []byte) (Intent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}
	return env.Intent()
}

// Intent converts the envelope into its typed intent.
func (e Envelope) Intent() (Intent, error) {
	switch e.Type {
	case KindNavigate:
		page, err := nav.ParsePage(e.Page)
		if err != nil {
			return nil, err
		}
		return Navigate{Page: page}, nil
	case KindUpdateEmailDraft:
		return UpdateEmailDraft{Value: e.Value}, nil
	case KindUpdatePasswordDraft:
		return UpdatePasswordDraft{Value: e.Value}, nil
	case KindSubmitLogin:
		return SubmitLogin{}, nil
	case KindLogout:
		return Logout{}, nil
	case KindUpdateMessageDraft:
		return UpdateMessageDraft{Value: e.Value}, nil
	case KindSubmitMessage:
		return SubmitMessage{}, nil
	case KindToggleMobileMenu:
		return ToggleMobileMenu{}, nil
	case KindOpenChat:
		return OpenChat{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, e.Type)
	}
}
