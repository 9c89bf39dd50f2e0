// ABOUTME: HTTP client for the remote Strontium board API.
// ABOUTME: Covers messages, uploads, login, and API key lifecycle calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"strontium/internal/models"
	"strontium/internal/session"
)

// Client issues requests against the board API. The bearer token is read
// from the session store on every authenticated call, so login/logout taking
// effect between calls needs no client rebuild. A 401 on any authenticated
// call invalidates the stored session before the error is returned.
type Client struct {
	baseURL string
	session *session.Store
	client  *http.Client
}

// NewClient creates a board API client for the given base URL.
func NewClient(baseURL string, sess *session.Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: sess,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Query holds the retrieval parameters for one feed page.
type Query struct {
	Skip   int
	Limit  int
	Search string
}

// UploadFile is one binary blob to submit, keyed by its filename.
type UploadFile struct {
	Name string
	Data []byte
}

// createPayload is the JSON body sent to POST /messages/. file_url mirrors
// the first attachment for rows still read through the legacy column.
type createPayload struct {
	Content  string   `json:"content"`
	FileURL  string   `json:"file_url,omitempty"`
	FileURLs []string `json:"file_urls,omitempty"`
}

// updatePayload is the JSON body sent to PUT /messages/{id}.
type updatePayload struct {
	Content string `json:"content"`
}

// uploadResponse accepts both the plural and the legacy singular upload
// reply shape.
type uploadResponse struct {
	FileURL  string   `json:"file_url"`
	FileURLs []string `json:"file_urls"`
}

// tokenResponse is the reply from POST /token.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// apiKeyResponse is the reply from POST /users/me/generate-api-key.
type apiKeyResponse struct {
	APIKey string `json:"api_key"`
}

// ListMessages fetches one feed page. No authentication is required.
func (c *Client) ListMessages(ctx context.Context, q Query) ([]models.Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/messages/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	query := req.URL.Query()
	query.Set("skip", strconv.Itoa(q.Skip))
	query.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	req.URL.RawQuery = query.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("board API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, c.statusError(resp)
	}

	var wire []models.WireMessage
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return models.NormalizeAll(wire), nil
}

// CreateMessage posts a new message with the given ordered attachment URLs.
// Fails with ErrAuthRequired before any network I/O when not logged in.
func (c *Client) CreateMessage(ctx context.Context, content string, fileURLs []string) (models.Message, error) {
	payload := createPayload{Content: content, FileURLs: fileURLs}
	if len(fileURLs) > 0 {
		payload.FileURL = fileURLs[0]
	}

	var wire models.WireMessage
	if err := c.doJSON(ctx, http.MethodPost, "/messages/", payload, &wire); err != nil {
		return models.Message{}, err
	}
	return wire.Normalize(), nil
}

// UpdateMessage replaces a message's content. Only the owner may succeed;
// a server rejection surfaces as ErrForbidden.
func (c *Client) UpdateMessage(ctx context.Context, id int, content string) (models.Message, error) {
	var wire models.WireMessage
	path := fmt.Sprintf("/messages/%d", id)
	if err := c.doJSON(ctx, http.MethodPut, path, updatePayload{Content: content}, &wire); err != nil {
		return models.Message{}, err
	}
	return wire.Normalize(), nil
}

// DeleteMessage removes a message, with the same ownership contract as
// UpdateMessage.
func (c *Client) DeleteMessage(ctx context.Context, id int) error {
	path := fmt.Sprintf("/messages/%d", id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// Upload submits all files in a single multipart request and returns one
// attachment URL per file, in input order. Any failure is wrapped in
// ErrUploadFailed so the caller can keep the compose buffer for a retry.
func (c *Client) Upload(ctx context.Context, files []UploadFile) ([]string, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", ErrUploadFailed)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := writer.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/", &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("%w: server returned %d: %s", ErrUploadFailed, resp.StatusCode, string(respBody))
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	urls := ur.FileURLs
	if len(urls) == 0 && ur.FileURL != "" {
		urls = []string{ur.FileURL}
	}
	if len(urls) != len(files) {
		return nil, fmt.Errorf("%w: got %d urls for %d files", ErrUploadFailed, len(urls), len(files))
	}
	return urls, nil
}

// Login exchanges credentials for a bearer token via the form-encoded
// /token endpoint. The token is returned, not stored; the caller decides
// whether to persist the session.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("board API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrBadCredentials
	}
	if resp.StatusCode >= 400 {
		return "", c.statusError(resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return tr.AccessToken, nil
}

// Register creates a new user account.
func (c *Client) Register(ctx context.Context, email, password string) (models.Profile, error) {
	payload := map[string]string{"email": email, "password": password}
	body, err := json.Marshal(payload)
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/", bytes.NewReader(body))
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Profile{}, fmt.Errorf("board API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return models.Profile{}, c.statusError(resp)
	}

	var profile models.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return models.Profile{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return profile, nil
}

// Me fetches the current user's profile, including the stored API key.
// A 401 clears the session store and returns ErrSessionInvalid.
func (c *Client) Me(ctx context.Context) (models.Profile, error) {
	var profile models.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, &profile); err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// GenerateAPIKey rotates the account's API key. The previous key becomes
// permanently unusable server-side, so this call is issued exactly once and
// never retried; confirmation is the caller's responsibility.
func (c *Client) GenerateAPIKey(ctx context.Context) (string, error) {
	var kr apiKeyResponse
	if err := c.doJSON(ctx, http.MethodPost, "/users/me/generate-api-key", nil, &kr); err != nil {
		return "", err
	}
	return kr.APIKey, nil
}

// doJSON runs one authenticated JSON round-trip. It refuses to issue the
// request without a token, maps 401 to a session invalidation, and maps
// ownership rejections (403, and the store's 404-on-unowned) to ErrForbidden.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	if !c.session.Authenticated() {
		return ErrAuthRequired
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.session.Token())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("board API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.session.Invalidate()
		return ErrSessionInvalid
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
		return ErrForbidden
	case resp.StatusCode >= 400:
		return c.statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return fmt.Errorf("board API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
