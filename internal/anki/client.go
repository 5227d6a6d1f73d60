// Package anki is a small AnkiConnect client used as the flashcard sink.
package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultURL is where AnkiConnect listens by default.
const DefaultURL = "http://127.0.0.1:8765"

const apiVersion = 6

// ErrSink matches every error reported by AnkiConnect itself.
var ErrSink = errors.New("anki rejected the request")

// SinkError carries the message AnkiConnect returned.
type SinkError struct {
	Action  string
	Message string
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("anki %s: %s", e.Action, e.Message)
}

func (e *SinkError) Is(target error) bool {
	return target == ErrSink
}

// Client talks to one AnkiConnect endpoint.
type Client struct {
	URL  string
	Key  string
	HTTP *http.Client
}

// NewClient returns a client for url. An empty url uses DefaultURL.
func NewClient(url, key string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		URL:  url,
		Key:  key,
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Key     string `json:"key,omitempty"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

func (c *Client) invoke(ctx context.Context, action string, params any, out any) error {
	body, err := json.Marshal(request{Action: action, Version: apiVersion, Key: c.Key, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach AnkiConnect at %s: %w", c.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("AnkiConnect returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", action, err)
	}
	if decoded.Error != nil {
		return &SinkError{Action: action, Message: *decoded.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", action, err)
	}
	return nil
}

// Version returns the AnkiConnect API version, which doubles as a ping.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	err := c.invoke(ctx, "version", nil, &v)
	return v, err
}

// DeckNames lists the deck names.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.invoke(ctx, "deckNames", nil, &names)
	return names, err
}

// ModelNames lists the note type names.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.invoke(ctx, "modelNames", nil, &names)
	return names, err
}

// ModelFieldNames lists the fields of a note type.
func (c *Client) ModelFieldNames(ctx context.Context, model string) ([]string, error) {
	var names []string
	err := c.invoke(ctx, "modelFieldNames", map[string]string{"modelName": model}, &names)
	return names, err
}

// AddNote creates a note and returns its id.
func (c *Client) AddNote(ctx context.Context, note Note) (int64, error) {
	var id int64
	err := c.invoke(ctx, "addNote", map[string]Note{"note": note}, &id)
	return id, err
}
