// ABOUTME: Process-wide credential store for the board session.
// ABOUTME: Holds the bearer token, remembered email, and API key with explicit transitions.
package session

// Credential is the client's authentication state: an opaque bearer token
// issued at login, the email it was issued for, and the separately rotated
// API key for external tool access.
type Credential struct {
	Token  string
	Email  string
	APIKey string
}

// Store owns the Credential for the controller's lifetime.
//
// All transitions (Login, Logout, Invalidate, SetAPIKey) run on a single
// goroutine (the CLI path or the TUI event loop) so no locking is needed;
// the discipline is last assignment wins. An optional persist hook fires
// after every transition so the caller can write the state through to disk.
type Store struct {
	cred    Credential
	persist func(Credential)
}

// New creates an empty, unauthenticated store.
func New() *Store {
	return &Store{}
}

// NewFromCredential creates a store seeded with previously persisted state.
func NewFromCredential(cred Credential) *Store {
	return &Store{cred: cred}
}

// OnChange registers a hook invoked after every credential transition.
func (s *Store) OnChange(fn func(Credential)) {
	s.persist = fn
}

// Login stores a freshly issued token, replacing any prior session.
func (s *Store) Login(token, email string) {
	s.cred.Token = token
	s.cred.Email = email
	s.changed()
}

// Logout discards the token and the remembered email: an explicit logout
// wipes the device-scoped state. The API key survives; its validity is
// independent of the session.
func (s *Store) Logout() {
	s.cred.Token = ""
	s.cred.Email = ""
	s.changed()
}

// Invalidate handles a server-signaled session rejection (401): the token is
// destroyed and the caller must re-authenticate. The remembered email is
// kept so the forced re-login can be pre-filled.
func (s *Store) Invalidate() {
	s.cred.Token = ""
	s.changed()
}

// SetAPIKey records a newly fetched or rotated API key.
func (s *Store) SetAPIKey(key string) {
	s.cred.APIKey = key
	s.changed()
}

// Authenticated reports whether a session token is present.
func (s *Store) Authenticated() bool {
	return s.cred.Token != ""
}

// Token returns the current bearer token, empty when unauthenticated.
func (s *Store) Token() string {
	return s.cred.Token
}

// Email returns the remembered login email.
func (s *Store) Email() string {
	return s.cred.Email
}

// APIKey returns the last known API key, empty when none was fetched.
func (s *Store) APIKey() string {
	return s.cred.APIKey
}

// Credential returns a copy of the full credential state.
func (s *Store) Credential() Credential {
	return s.cred
}

func (s *Store) changed() {
	if s.persist != nil {
		s.persist(s.cred)
	}
}
