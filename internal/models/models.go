// ABOUTME: Core data models for board messages and user profiles.
// ABOUTME: Normalizes the remote wire shapes into canonical client types.
package models

import (
	"encoding/json"
	"time"
)

// Message is a single board message as the client sees it.
//
// IDs are assigned by the server. Content is the only mutable field, and only
// through an explicit update by the owner; the client never patches a Message
// locally. FileURLs is the ordered list of attachment locators, already
// normalized from the wire (see WireMessage).
type Message struct {
	ID        int
	Content   string
	FileURLs  []string
	Timestamp time.Time
	OwnerID   int
}

// Profile is the authenticated user's account view, including the optional
// API key used by external tools.
type Profile struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	APIKey   string `json:"api_key"`
	IsActive bool   `json:"is_active"`
}

// WireMessage mirrors the remote store's message shape. Older rows carry a
// single file_url while newer ones carry a file_urls array; both may coexist
// in one response, so the union is confined here and collapsed by Normalize.
type WireMessage struct {
	ID        int      `json:"id"`
	Content   string   `json:"content"`
	FileURL   string   `json:"file_url"`
	FileURLs  []string `json:"file_urls"`
	Timestamp WireTime `json:"timestamp"`
	OwnerID   int      `json:"owner_id"`
}

// Normalize converts a wire message into the canonical Message. file_urls
// wins when present; otherwise a lone file_url becomes a one-element list.
func (w WireMessage) Normalize() Message {
	urls := w.FileURLs
	if len(urls) == 0 && w.FileURL != "" {
		urls = []string{w.FileURL}
	}
	return Message{
		ID:        w.ID,
		Content:   w.Content,
		FileURLs:  urls,
		Timestamp: w.Timestamp.Time,
		OwnerID:   w.OwnerID,
	}
}

// NormalizeAll converts a page of wire messages, preserving server order.
func NormalizeAll(ws []WireMessage) []Message {
	msgs := make([]Message, 0, len(ws))
	for _, w := range ws {
		msgs = append(msgs, w.Normalize())
	}
	return msgs
}

// WireTime decodes the store's timestamps, which arrive either as RFC 3339 or
// as a naive "2006-01-02T15:04:05" with no zone suffix.
type WireTime struct {
	time.Time
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *WireTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	var err error
	for _, layout := range wireTimeLayouts {
		var parsed time.Time
		parsed, err = time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return err
}
