package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matheus3301/bcast/internal/config"
	"go.uber.org/zap"
)

// maxBody bounds how much of a response is read.
const maxBody = 8 << 20

// Client talks to the remote directory service. There are no retries;
// every call is bounded by the configured request timeout.
type Client struct {
	cfg    config.Directory
	http   *http.Client
	logger *zap.Logger
}

// New creates a directory client.
func New(cfg config.Directory, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger,
	}
}

// FetchContacts fetches from the modern endpoint and falls back to the
// legacy one when that fails. When both fail the causes are joined.
func (c *Client) FetchContacts(ctx context.Context) ([]Record, error) {
	records, err := c.fetch(ctx, c.cfg.ContactsPath)
	if err == nil {
		return records, nil
	}
	if c.cfg.LegacyContactsPath == "" || ctx.Err() != nil {
		return nil, err
	}

	c.logger.Warn("modern contacts fetch failed, trying legacy endpoint", zap.Error(err))
	legacy, legacyErr := c.fetch(ctx, c.cfg.LegacyContactsPath)
	if legacyErr != nil {
		return nil, errors.Join(err, legacyErr)
	}
	return legacy, nil
}

func (c *Client) fetch(ctx context.Context, path string) ([]Record, error) {
	url := c.url(path)
	body, err := c.do(ctx, "fetch contacts", http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	records, source, err := Decode(body)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.URL = url
		}
		return nil, err
	}
	c.logger.Info("contacts fetched",
		zap.String("source", string(source)),
		zap.Int("count", len(records)),
	)
	return records, nil
}

// AddContact posts a new contact in the configured payload shape.
func (c *Client) AddContact(ctx context.Context, name, phone string) error {
	var payload any
	if c.cfg.AddContactShape == config.ShapeLegacy {
		payload = map[string]string{"userName": name, "phone": phone}
	} else {
		payload = map[string]string{"name": name, "number": phone}
	}
	_, err := c.do(ctx, "add contact", http.MethodPost, c.url(c.cfg.AddContactPath), payload)
	return err
}

// SendBroadcast asks the backend to deliver body to every number.
func (c *Client) SendBroadcast(ctx context.Context, numbers []string, body string) error {
	payload := struct {
		Numbers  []string `json:"numbers"`
		Template string   `json:"template"`
	}{Numbers: numbers, Template: body}

	start := time.Now()
	_, err := c.do(ctx, "send broadcast", http.MethodPost, c.url(c.cfg.SendPath), payload)
	if err != nil {
		return err
	}
	c.logger.Info("broadcast accepted",
		zap.Int("recipients", len(numbers)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) do(ctx context.Context, op, method, url string, payload any) ([]byte, error) {
	if timeout := c.cfg.RequestTimeout.Duration; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode payload: %w", op, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &NetworkError{Op: op, URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{
			Op:         op,
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}
	return body, nil
}
