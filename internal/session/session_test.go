// ABOUTME: Tests for the credential store's state transitions.
// ABOUTME: Covers login/logout/invalidate, API key orthogonality, and the persist hook.
package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStoreUnauthenticated(t *testing.T) {
	s := New()
	require.False(t, s.Authenticated())
	require.Empty(t, s.Token())
}

func TestLoginLogout(t *testing.T) {
	s := New()
	s.Login("tok-123", "ada@example.com")
	require.True(t, s.Authenticated())
	require.Equal(t, "tok-123", s.Token())
	require.Equal(t, "ada@example.com", s.Email())

	s.Logout()
	require.False(t, s.Authenticated())
	require.Empty(t, s.Token())
	// Explicit logout wipes the remembered email too.
	require.Empty(t, s.Email())
}

func TestInvalidateKeepsEmail(t *testing.T) {
	s := New()
	s.Login("tok-123", "ada@example.com")
	s.Invalidate()

	require.False(t, s.Authenticated())
	require.Equal(t, "ada@example.com", s.Email(), "forced re-login should be pre-fillable")
}

func TestAPIKeyOrthogonalToSession(t *testing.T) {
	s := New()
	s.Login("tok-123", "ada@example.com")
	s.SetAPIKey("key-1")

	s.Invalidate()
	require.Equal(t, "key-1", s.APIKey(), "API key validity is independent of the session")

	s.SetAPIKey("key-2")
	require.Equal(t, "key-2", s.APIKey(), "rotation replaces the value")
}

func TestReloginAfterInvalidate(t *testing.T) {
	s := New()
	s.Login("tok-1", "ada@example.com")
	s.Invalidate()
	s.Login("tok-2", "ada@example.com")

	require.True(t, s.Authenticated())
	require.Equal(t, "tok-2", s.Token())
}

func TestPersistHookFiresOnEveryTransition(t *testing.T) {
	var seen []Credential
	s := New()
	s.OnChange(func(c Credential) { seen = append(seen, c) })

	s.Login("tok", "ada@example.com")
	s.SetAPIKey("key")
	s.Logout()

	require.Len(t, seen, 3)
	require.Equal(t, "tok", seen[0].Token)
	require.Equal(t, "key", seen[1].APIKey)
	require.Empty(t, seen[2].Token)
}

func TestNewFromCredential(t *testing.T) {
	s := NewFromCredential(Credential{Token: "tok", Email: "ada@example.com", APIKey: "key"})
	require.True(t, s.Authenticated())
	require.Equal(t, "key", s.APIKey())
}
