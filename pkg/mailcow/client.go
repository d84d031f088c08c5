package mailcow

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound reports a lookup for a mailbox the server does not know.
var ErrNotFound = errors.New("mailbox not found")

const defaultTimeout = 30 * time.Second

// Config holds the client settings
type Config struct {
	// BaseURL is the admin API root including the /api/v1/ path.
	BaseURL string

	// APIKey is sent as the X-API-Key header on every request.
	APIKey string

	// Timeout bounds each round trip. Zero means 30s.
	Timeout time.Duration

	// SkipTLSVerify disables certificate verification for installations
	// running on self-signed certificates.
	SkipTLSVerify bool
}

// Client calls the mailcow admin API
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a client for the given admin API.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport
	if cfg.SkipTLSVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		baseURL: normalizeBaseURL(cfg.BaseURL),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// normalizeBaseURL guarantees exactly one trailing slash so endpoint paths
// can be appended directly.
func normalizeBaseURL(base string) string {
	return strings.TrimRight(base, "/") + "/"
}

// GetMailbox looks up a single mailbox by address. Returns ErrNotFound when
// the server does not know the address.
func (c *Client) GetMailbox(ctx context.Context, address string) (*Mailbox, error) {
	body, status, err := c.get(ctx, "get/mailbox/"+url.PathEscape(address))
	if err != nil {
		return nil, fmt.Errorf("get mailbox %q: %w", address, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get mailbox %q: %w", address, &APIError{StatusCode: status})
	}

	// Unknown mailboxes come back as an empty object or empty array.
	var box Mailbox
	if err := json.Unmarshal(body, &box); err != nil || box.Username == "" {
		return nil, fmt.Errorf("get mailbox %q: %w", address, ErrNotFound)
	}
	return &box, nil
}

// ListMailboxes returns every mailbox the admin API manages.
func (c *Client) ListMailboxes(ctx context.Context) ([]Mailbox, error) {
	body, status, err := c.get(ctx, "get/mailbox/all")
	if err != nil {
		return nil, fmt.Errorf("list mailboxes: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list mailboxes: %w", &APIError{StatusCode: status})
	}

	var boxes []Mailbox
	if err := json.Unmarshal(body, &boxes); err != nil {
		// An installation without mailboxes answers with an empty object.
		var probe map[string]interface{}
		if json.Unmarshal(body, &probe) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("list mailboxes: decode response: %w", err)
	}
	return boxes, nil
}

// CreateMailbox creates a mailbox with the bridge defaults and returns the
// address the server reported for it.
func (c *Client) CreateMailbox(ctx context.Context, req CreateMailboxRequest) (string, error) {
	payload := map[string]interface{}{
		"active":          wireFlag(req.Active),
		"domain":          req.Domain,
		"local_part":      req.LocalPart,
		"name":            req.Name,
		"authsource":      DefaultAuthSource,
		"password":        "",
		"password2":       "",
		"quota":           DefaultQuota,
		"force_pw_update": "0",
		"tls_enforce_in":  "1",
		"tls_enforce_out": "1",
		"tags":            []string{DefaultTag},
	}

	results, err := c.post(ctx, "add/mailbox", payload)
	if err != nil {
		return "", fmt.Errorf("create mailbox %s@%s: %w", req.LocalPart, req.Domain, err)
	}

	if addr := results[0].Msg.Subject(); addr != "" {
		return addr, nil
	}
	return req.LocalPart + "@" + req.Domain, nil
}

// UpdateMailbox edits the given attributes of an existing mailbox.
func (c *Client) UpdateMailbox(ctx context.Context, address string, attrs EditAttrs) error {
	payload := map[string]interface{}{
		"attr":  attrs.wireAttrs(),
		"items": []string{address},
	}

	if _, err := c.post(ctx, "edit/mailbox", payload); err != nil {
		return fmt.Errorf("update mailbox %q: %w", address, err)
	}
	return nil
}

// RenameMailbox moves a mailbox to a new address, leaving an alias on the
// old one so mail in flight keeps arriving. Returns the new address.
func (c *Client) RenameMailbox(ctx context.Context, oldAddress, newLocalPart, newDomain string) (string, error) {
	oldLocal := oldAddress
	if i := strings.Index(oldAddress, "@"); i >= 0 {
		oldLocal = oldAddress[:i]
	}

	payload := map[string]interface{}{
		"attr": map[string]interface{}{
			"domain":         newDomain,
			"old_local_part": oldLocal,
			"new_local_part": newLocalPart,
			"create_alias":   "1",
		},
		"items": []string{oldAddress},
	}

	results, err := c.post(ctx, "edit/rename-mbox", payload)
	if err != nil {
		return "", fmt.Errorf("rename mailbox %q: %w", oldAddress, err)
	}

	if addr := results[0].Msg.Subject(); addr != "" {
		return addr, nil
	}
	return newLocalPart + "@" + newDomain, nil
}

// DeleteMailbox removes a mailbox and its mail.
func (c *Client) DeleteMailbox(ctx context.Context, address string) error {
	if _, err := c.post(ctx, "delete/mailbox", []string{address}); err != nil {
		return fmt.Errorf("delete mailbox %q: %w", address, err)
	}
	return nil
}

// Check verifies that the admin API is reachable and the key is accepted.
func (c *Client) Check(ctx context.Context) error {
	_, status, err := c.get(ctx, "get/mailbox/all")
	if err != nil {
		return fmt.Errorf("mailcow check: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("mailcow check: %w", &APIError{StatusCode: status})
	}
	return nil
}

// get performs an authenticated GET and returns the raw body.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// post performs an authenticated POST and enforces the API's success
// contract: HTTP 200 with a first result of type "success".
func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) ([]APIResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	results, perr := parseResults(body)
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if perr == nil && len(results) > 0 {
			apiErr.Type = results[0].Type
			apiErr.Msg = results[0].Msg.String()
		}
		return nil, apiErr
	}
	if perr != nil {
		return nil, fmt.Errorf("decode response: %w", perr)
	}
	if len(results) == 0 || results[0].Type != "success" {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if len(results) > 0 {
			apiErr.Type = results[0].Type
			apiErr.Msg = results[0].Msg.String()
		}
		return nil, apiErr
	}

	return results, nil
}

// parseResults decodes a write response. Auth failures arrive as a single
// object instead of an array.
func parseResults(body []byte) ([]APIResponse, error) {
	var results []APIResponse
	if err := json.Unmarshal(body, &results); err == nil {
		return results, nil
	}

	var single APIResponse
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []APIResponse{single}, nil
}
