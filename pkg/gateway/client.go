package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// Default client settings.
const (
	// DefaultBaseURL is the platform's production endpoint.
	DefaultBaseURL = "https://server.codeium.com"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after a transient failure.
	DefaultMaxRetries = 2
)

// API endpoints.
const (
	endpointGetUsageConfig = "/api/v1/GetUsageConfig"
	endpointUsageConfig    = "/api/v1/UsageConfig"
	endpointUserAnalytics  = "/api/v1/UserPageAnalytics"
)

// maxErrorBodyBytes caps how much of an error response is kept in
// error messages.
const maxErrorBodyBytes = 512

// ClientConfig configures the HTTP client.
type ClientConfig struct {
	// BaseURL is the platform's API base URL.
	// Default: DefaultBaseURL.
	BaseURL string

	// ServiceKey authenticates every request. Required.
	ServiceKey string

	// Timeout is the per-request timeout.
	// Default: 30 seconds.
	Timeout time.Duration

	// MaxRetries is how many times a transient failure is retried
	// with exponential backoff. Default: 2.
	MaxRetries int
}

// Client is the HTTP implementation of CapService.
type Client struct {
	config ClientConfig
	http   *http.Client
	logger *slog.Logger
}

// Client implements CapService.
var _ CapService = (*Client)(nil)

// NewClient creates a gateway client.
//
// The service key is required and always supplied explicitly; the
// client never reads it from the environment itself.
func NewClient(config ClientConfig) (*Client, error) {
	if config.ServiceKey == "" {
		return nil, fmt.Errorf("service key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}

	return &Client{
		config: config,
		http: &http.Client{
			Timeout: config.Timeout,
		},
		logger: slog.Default().With("component", "gateway"),
	}, nil
}

// Request and response shapes for the platform's JSON protocol.

type usageConfigRequest struct {
	ServiceKey          string `json:"service_key"`
	TeamLevel           bool   `json:"team_level,omitempty"`
	UserEmail           string `json:"user_email,omitempty"`
	SetAddOnCreditCap   *int   `json:"set_add_on_credit_cap,omitempty"`
	ClearAddOnCreditCap bool   `json:"clear_add_on_credit_cap,omitempty"`
}

type usageConfigResponse struct {
	// AddOnCreditCap is absent when no cap is configured at the
	// queried level.
	AddOnCreditCap *int `json:"addOnCreditCap"`
}

type analyticsRequest struct {
	ServiceKey string `json:"service_key"`
}

type analyticsResponse struct {
	UserTableStats []struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"userTableStats"`
}

// FetchCurrentCaps resolves individual caps one user at a time.
//
// Authentication failures abort the whole fetch. A transient failure
// for a single user is logged and that user omitted from the result,
// which downstream reconciliation treats as "no current cap".
func (c *Client) FetchCurrentCaps(ctx context.Context, emails []string) (map[string]CapState, error) {
	states := make(map[string]CapState, len(emails))

	for _, email := range emails {
		cap, err := c.fetchUserCap(ctx, email)
		if err != nil {
			var authErr *AuthenticationError
			if errors.As(err, &authErr) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("skipping user after failed cap fetch",
				"email", email,
				"error", err,
			)
			continue
		}
		states[email] = CapState{Email: email, Cap: cap}
	}

	return states, nil
}

// fetchUserCap reads one user's individual cap.
func (c *Client) fetchUserCap(ctx context.Context, email string) (*int, error) {
	req := usageConfigRequest{
		ServiceKey: c.config.ServiceKey,
		UserEmail:  email,
	}

	body, err := c.doPost(ctx, "GetUsageConfig", endpointGetUsageConfig, req)
	if err != nil {
		return nil, err
	}

	var resp usageConfigResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewServiceUnavailableError("GetUsageConfig",
			fmt.Errorf("malformed response: %w", err))
	}
	return resp.AddOnCreditCap, nil
}

// FetchOrgCap reads the organization-wide cap.
func (c *Client) FetchOrgCap(ctx context.Context) (*int, error) {
	req := usageConfigRequest{
		ServiceKey: c.config.ServiceKey,
		TeamLevel:  true,
	}

	body, err := c.doPost(ctx, "GetUsageConfig", endpointGetUsageConfig, req)
	if err != nil {
		return nil, err
	}

	var resp usageConfigResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewServiceUnavailableError("GetUsageConfig",
			fmt.Errorf("malformed response: %w", err))
	}
	return resp.AddOnCreditCap, nil
}

// SetUserCap sets an individual add-on cap.
func (c *Client) SetUserCap(ctx context.Context, email string, cap int) error {
	req := usageConfigRequest{
		ServiceKey:        c.config.ServiceKey,
		UserEmail:         email,
		SetAddOnCreditCap: &cap,
	}
	_, err := c.doPost(ctx, "UsageConfig", endpointUsageConfig, req)
	return err
}

// ClearUserCap removes a user's individual cap.
func (c *Client) ClearUserCap(ctx context.Context, email string) error {
	req := usageConfigRequest{
		ServiceKey:          c.config.ServiceKey,
		UserEmail:           email,
		ClearAddOnCreditCap: true,
	}
	_, err := c.doPost(ctx, "UsageConfig", endpointUsageConfig, req)
	return err
}

// SetOrgCap sets the organization-wide cap.
func (c *Client) SetOrgCap(ctx context.Context, cap int) error {
	req := usageConfigRequest{
		ServiceKey:        c.config.ServiceKey,
		TeamLevel:         true,
		SetAddOnCreditCap: &cap,
	}
	_, err := c.doPost(ctx, "UsageConfig", endpointUsageConfig, req)
	return err
}

// ClearOrgCap removes the organization-wide cap.
func (c *Client) ClearOrgCap(ctx context.Context) error {
	req := usageConfigRequest{
		ServiceKey:          c.config.ServiceKey,
		TeamLevel:           true,
		ClearAddOnCreditCap: true,
	}
	_, err := c.doPost(ctx, "UsageConfig", endpointUsageConfig, req)
	return err
}

// ListUsers returns the organization's users from the analytics page.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	req := analyticsRequest{ServiceKey: c.config.ServiceKey}

	body, err := c.doPost(ctx, "UserPageAnalytics", endpointUserAnalytics, req)
	if err != nil {
		return nil, err
	}

	var resp analyticsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewServiceUnavailableError("UserPageAnalytics",
			fmt.Errorf("malformed response: %w", err))
	}

	users := make([]User, 0, len(resp.UserTableStats))
	for _, stat := range resp.UserTableStats {
		users = append(users, User{Name: stat.Name, Email: stat.Email})
	}
	return users, nil
}

// doPost performs one JSON POST with retry on transient failures.
//
// 5xx responses and transport errors are retried with exponential
// backoff up to MaxRetries. 401/403 return AuthenticationError
// immediately; other non-2xx statuses return ServiceUnavailableError
// without retry.
func (c *Client) doPost(ctx context.Context, operation, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewServiceUnavailableError(operation,
			fmt.Errorf("failed to encode request: %w", err))
	}

	url := c.config.BaseURL + path
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			c.logger.Debug("retrying request",
				"operation", operation,
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, NewServiceUnavailableError(operation,
				fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response: %w", readErr)
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return respBody, nil

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, NewAuthenticationError(resp.StatusCode, truncate(respBody))

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody))
			continue

		default:
			return nil, NewServiceUnavailableError(operation,
				fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody)))
		}
	}

	return nil, NewServiceUnavailableError(operation, lastErr)
}

// truncate bounds a response body for inclusion in error messages.
func truncate(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		return string(body[:maxErrorBodyBytes]) + "..."
	}
	return string(body)
}
