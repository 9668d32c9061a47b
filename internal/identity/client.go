package identity

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
)

var (
	ErrNotConfigured = errors.New("identity provider not configured")
)

// Client wraps the hosted identity provider's admin API. The application only
// consumes two operations: sending a password-recovery email and setting a new
// password for a user. Everything else about the provider is out of scope.
type Client struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
}

// NewClient creates an identity provider client. baseURL and serviceKey come
// from configuration; an empty baseURL yields a client whose operations fail
// with ErrNotConfigured.
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
	}
}

// SendPasswordRecovery asks the provider to email a password-reset link.
func (c *Client) SendPasswordRecovery(ctx context.Context, email, redirectTo string) error {
	body := map[string]string{"email": email}
	if redirectTo != "" {
		body["redirect_to"] = redirectTo
	}
	return c.post(ctx, "/auth/v1/recover", body)
}

// UpdatePassword sets a new password for the given provider-side user.
func (c *Client) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	return c.put(ctx, "/auth/v1/admin/users/"+userID, map[string]string{"password": newPassword})
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) put(ctx context.Context, path string, body any) error {
	return c.do(ctx, http.MethodPut, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
