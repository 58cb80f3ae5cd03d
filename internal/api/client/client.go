// Package client talks to a running bcastd over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matheus3301/bcast/internal/broadcast"
	"github.com/matheus3301/bcast/internal/contacts"
	"github.com/matheus3301/bcast/internal/store"
	"github.com/matheus3301/bcast/internal/templates"
)

// APIError is a non-2xx response from the daemon.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// Client wraps the daemon's HTTP API.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the daemon listening on addr ("host:port" or a URL).
func New(addr string) *Client {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

// ContactsPage is one page of contacts plus counters.
type ContactsPage struct {
	contacts.Page
	Search string          `json:"search"`
	Status contacts.Status `json:"status"`
	Stats  contacts.Stats  `json:"stats"`
}

// TemplateList is the template catalogue.
type TemplateList struct {
	Templates []templates.Template `json:"templates"`
	Active    string               `json:"active"`
	Link      string               `json:"link"`
}

// Stats combines contact and history counters.
type Stats struct {
	Contacts   contacts.Stats       `json:"contacts"`
	Broadcasts store.BroadcastStats `json:"broadcasts"`
	State      string               `json:"state"`
}

// WireEvent is one bus event as streamed over /ws.
type WireEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Health checks that the daemon answers.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Stats returns contact and history counters.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, &out)
	return out, err
}

// Contacts filters and pages the contact list.
func (c *Client) Contacts(ctx context.Context, search, status string, page int) (ContactsPage, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if status != "" {
		q.Set("status", status)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	var out ContactsPage
	err := c.do(ctx, http.MethodGet, "/api/contacts?"+q.Encode(), nil, &out)
	return out, err
}

// Reload refetches the directory.
func (c *Client) Reload(ctx context.Context) (contacts.Stats, error) {
	var out contacts.Stats
	err := c.do(ctx, http.MethodPost, "/api/contacts/reload", nil, &out)
	return out, err
}

// SelectAll selects or clears every filtered contact.
func (c *Client) SelectAll(ctx context.Context, selected bool) error {
	return c.do(ctx, http.MethodPost, "/api/contacts/select-all", map[string]bool{"selected": selected}, nil)
}

// SelectOnline selects exactly the online contacts.
func (c *Client) SelectOnline(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/contacts/select-online", nil, nil)
}

// Templates lists all templates.
func (c *Client) Templates(ctx context.Context) (TemplateList, error) {
	var out TemplateList
	err := c.do(ctx, http.MethodGet, "/api/templates", nil, &out)
	return out, err
}

// UseTemplate loads a template into the composer.
func (c *Client) UseTemplate(ctx context.Context, key string) (broadcast.Snapshot, error) {
	var out broadcast.Snapshot
	err := c.do(ctx, http.MethodPost, "/api/templates/"+url.PathEscape(key)+"/use", nil, &out)
	return out, err
}

// SetMessage replaces the composer text.
func (c *Client) SetMessage(ctx context.Context, text string) (broadcast.Snapshot, error) {
	var out broadcast.Snapshot
	err := c.do(ctx, http.MethodPut, "/api/broadcast/message", map[string]string{"message": text}, &out)
	return out, err
}

// Broadcast returns the controller snapshot.
func (c *Client) Broadcast(ctx context.Context) (broadcast.Snapshot, error) {
	var out broadcast.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/broadcast", nil, &out)
	return out, err
}

// Prepare arms the broadcast.
func (c *Client) Prepare(ctx context.Context) (broadcast.Summary, error) {
	var out broadcast.Summary
	err := c.do(ctx, http.MethodPost, "/api/broadcast/prepare", nil, &out)
	return out, err
}

// Send delivers the prepared broadcast.
func (c *Client) Send(ctx context.Context) (broadcast.Result, error) {
	var out broadcast.Result
	err := c.do(ctx, http.MethodPost, "/api/broadcast/send", nil, &out)
	return out, err
}

// Cancel aborts an in-flight send.
func (c *Client) Cancel(ctx context.Context) (bool, error) {
	var out struct {
		Cancelled bool `json:"cancelled"`
	}
	err := c.do(ctx, http.MethodPost, "/api/broadcast/cancel", nil, &out)
	return out.Cancelled, err
}

// Reset drops a prepared broadcast.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/broadcast/reset", nil, nil)
}

// History lists recent broadcasts, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]store.Broadcast, error) {
	var out []store.Broadcast
	err := c.do(ctx, http.MethodGet, "/api/broadcast/history?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

// Watch streams bus events from /ws into fn until ctx is done or the
// connection drops.
func (c *Client) Watch(ctx context.Context, fn func(WireEvent)) error {
	wsURL := "ws" + strings.TrimPrefix(c.base, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer func() { _ = conn.Close() }()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		var evt WireEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn(evt)
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
