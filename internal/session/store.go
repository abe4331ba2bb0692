// Package session holds the simulated login state: the authenticated flag
// and the credential drafts typed into the login page.
package session

// Store is not safe for concurrent use; it belongs to a single controller.
type Store struct {
	authenticated bool
	emailDraft    string
	passwordDraft string
}

// New returns an unauthenticated store with empty drafts.
func New() *Store {
	return &Store{}
}

// SetEmailDraft replaces the email buffer. Any value is accepted.
func (s *Store) SetEmailDraft(value string) {
	s.emailDraft = value
}

// SetPasswordDraft replaces the password buffer. Any value is accepted.
func (s *Store) SetPasswordDraft(value string) {
	s.passwordDraft = value
}

// AttemptLogin authenticates when both drafts are non-empty. Whitespace
// counts as content. A failed attempt leaves the store untouched.
func (s *Store) AttemptLogin() bool {
	if s.emailDraft == "" || s.passwordDraft == "" {
		return false
	}
	s.authenticated = true
	return true
}

// Logout clears the authenticated flag. Drafts are kept.
func (s *Store) Logout() {
	s.authenticated = false
}

func (s *Store) Authenticated() bool { return s.authenticated }

func (s *Store) EmailDraft() string { return s.emailDraft }

func (s *Store) PasswordDraft() string { return s.passwordDraft }
