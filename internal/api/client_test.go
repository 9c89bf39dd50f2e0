// ABOUTME: Tests for the board API client using httptest servers.
// ABOUTME: Covers query building, auth headers, error taxonomy, and multipart uploads.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"strontium/internal/session"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sess := session.New()
	return NewClient(server.URL, sess), sess
}

func TestListMessagesQueryAndNormalization(t *testing.T) {
	var gotPath, gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 12, "content": "new style", "file_urls": ["http://x/a.png", "http://x/b.png"], "timestamp": "2026-01-31T09:05:00", "owner_id": 1},
			{"id": 11, "content": "old style", "file_url": "http://x/c.png", "timestamp": "2026-01-31T09:00:00", "owner_id": 2}
		]`))
	}))

	msgs, err := client.ListMessages(context.Background(), Query{Skip: 0, Limit: 10, Search: "style"})
	require.NoError(t, err)

	require.Equal(t, "/messages/", gotPath)
	require.Contains(t, gotQuery, "skip=0")
	require.Contains(t, gotQuery, "limit=10")
	require.Contains(t, gotQuery, "search=style")

	require.Len(t, msgs, 2)
	require.Equal(t, []string{"http://x/a.png", "http://x/b.png"}, msgs[0].FileURLs)
	require.Equal(t, []string{"http://x/c.png"}, msgs[1].FileURLs)
	require.False(t, msgs[0].Timestamp.IsZero())
}

func TestListMessagesOmitsEmptySearch(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[]`))
	}))

	_, err := client.ListMessages(context.Background(), Query{Skip: 20, Limit: 10})
	require.NoError(t, err)
	require.NotContains(t, gotQuery, "search")
	require.Contains(t, gotQuery, "skip=20")
}

func TestListMessagesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, session.New())
	_, err := client.ListMessages(context.Background(), Query{Limit: 10})
	require.Error(t, err)
}

func TestCreateMessageSendsOrderedFileURLs(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/messages/", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		_, _ = w.Write([]byte(`{"id": 42, "content": "hi", "file_urls": ["u1", "u2"], "timestamp": "2026-01-31T10:00:00", "owner_id": 1}`))
	}))
	sess.Login("tok-1", "ada@example.com")

	msg, err := client.CreateMessage(context.Background(), "hi", []string{"u1", "u2"})
	require.NoError(t, err)
	require.Equal(t, 42, msg.ID)

	require.Equal(t, "Bearer tok-1", gotAuth)
	require.Equal(t, "hi", gotBody["content"])
	require.Equal(t, []any{"u1", "u2"}, gotBody["file_urls"])
	// First attachment mirrored into the legacy singular column.
	require.Equal(t, "u1", gotBody["file_url"])
}

func TestCreateMessageWithoutTokenNoRequest(t *testing.T) {
	requests := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))

	_, err := client.CreateMessage(context.Background(), "hi", nil)
	require.ErrorIs(t, err, ErrAuthRequired)
	require.Zero(t, requests, "no network call may be issued without a token")
}

func TestMutation401InvalidatesSession(t *testing.T) {
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	sess.Login("tok-expired", "ada@example.com")

	_, err := client.CreateMessage(context.Background(), "hi", nil)
	require.ErrorIs(t, err, ErrSessionInvalid)
	require.False(t, sess.Authenticated(), "401 must clear the stored token")
}

func TestUpdateMessageForbiddenOn404(t *testing.T) {
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/messages/9", r.URL.Path)
		// The store answers 404 for a message that exists but is not yours.
		w.WriteHeader(http.StatusNotFound)
	}))
	sess.Login("tok", "ada@example.com")

	_, err := client.UpdateMessage(context.Background(), 9, "nope")
	require.ErrorIs(t, err, ErrForbidden)
	require.True(t, sess.Authenticated(), "ownership rejection must not clear the session")
}

func TestDeleteMessageForbiddenOn403(t *testing.T) {
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusForbidden)
	}))
	sess.Login("tok", "ada@example.com")

	err := client.DeleteMessage(context.Background(), 9)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteMessageSuccess(t *testing.T) {
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages/4", r.URL.Path)
		_, _ = w.Write([]byte(`{"message": "Message deleted successfully"}`))
	}))
	sess.Login("tok", "ada@example.com")

	require.NoError(t, client.DeleteMessage(context.Background(), 4))
}

func TestUploadMultipleFilesSingleRequest(t *testing.T) {
	requests := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, "/upload/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		require.Equal(t, "a.png", files[0].Filename)
		require.Equal(t, "b.pdf", files[1].Filename)

		_, _ = w.Write([]byte(`{"file_urls": ["http://x/uploads/a.png", "http://x/uploads/b.pdf"]}`))
	}))

	urls, err := client.Upload(context.Background(), []UploadFile{
		{Name: "a.png", Data: []byte("png-bytes")},
		{Name: "b.pdf", Data: []byte("pdf-bytes")},
	})
	require.NoError(t, err)
	require.Equal(t, 1, requests, "all files must go out in one multipart submission")
	require.Equal(t, []string{"http://x/uploads/a.png", "http://x/uploads/b.pdf"}, urls)
}

func TestUploadLegacySingularResponse(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"file_url": "http://x/uploads/one.png"}`))
	}))

	urls, err := client.Upload(context.Background(), []UploadFile{{Name: "one.png", Data: []byte("x")}})
	require.NoError(t, err)
	require.Equal(t, []string{"http://x/uploads/one.png"}, urls)
}

func TestUploadServerErrorWrapsUploadFailed(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("disk full"))
	}))

	_, err := client.Upload(context.Background(), []UploadFile{{Name: "a", Data: []byte("x")}})
	require.ErrorIs(t, err, ErrUploadFailed)
}

func TestUploadURLCountMismatch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"file_urls": ["only-one"]}`))
	}))

	_, err := client.Upload(context.Background(), []UploadFile{
		{Name: "a", Data: []byte("x")},
		{Name: "b", Data: []byte("y")},
	})
	require.ErrorIs(t, err, ErrUploadFailed)
}

func TestLoginFormEncoded(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "ada@example.com", r.PostFormValue("username"))
		require.Equal(t, "hunter2", r.PostFormValue("password"))
		_, _ = w.Write([]byte(`{"access_token": "tok-new", "token_type": "bearer"}`))
	}))

	token, err := client.Login(context.Background(), "ada@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "tok-new", token)
}

func TestLoginBadCredentials(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.Login(context.Background(), "ada@example.com", "wrong")
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestRegister(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/", r.URL.Path)
		var body map[string]string
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))
		require.Equal(t, "ada@example.com", body["email"])
		_, _ = w.Write([]byte(`{"id": 1, "email": "ada@example.com", "is_active": true}`))
	}))

	profile, err := client.Register(context.Background(), "ada@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", profile.Email)
}

func TestMeReturnsProfileWithAPIKey(t *testing.T) {
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/me", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id": 1, "email": "ada@example.com", "api_key": "key-abc", "is_active": true}`))
	}))
	sess.Login("tok", "ada@example.com")

	profile, err := client.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "key-abc", profile.APIKey)
}

func TestGenerateAPIKey(t *testing.T) {
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users/me/generate-api-key", r.URL.Path)
		_, _ = w.Write([]byte(`{"api_key": "key-fresh"}`))
	}))
	sess.Login("tok", "ada@example.com")

	key, err := client.GenerateAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "key-fresh", key)
}

// A 401 on the profile fetch clears the token; a mutation attempted before
// re-login must then fail locally with no request reaching the server.
func TestSessionInvalidThenCreateFailsBeforeNetwork(t *testing.T) {
	requests := 0
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	sess.Login("tok-expired", "ada@example.com")

	_, err := client.Me(context.Background())
	require.ErrorIs(t, err, ErrSessionInvalid)
	require.False(t, sess.Authenticated())
	require.Equal(t, 1, requests)

	_, err = client.CreateMessage(context.Background(), "hi", nil)
	require.ErrorIs(t, err, ErrAuthRequired)
	require.Equal(t, 1, requests, "create without a token must not hit the network")
}
