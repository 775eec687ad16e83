package access

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RemoteChecker talks to an external feature-access service over HTTP.
type RemoteChecker struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRemoteChecker(baseURL, apiKey string) *RemoteChecker {
	return &RemoteChecker{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Check calls GET /v1/access/{feature}?user_id=...
func (c *RemoteChecker) Check(ctx context.Context, userID, feature string) (Decision, error) {
	u := fmt.Sprintf("%s/v1/access/%s?user_id=%s", c.baseURL, url.PathEscape(feature), url.QueryEscape(userID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Decision{}, fmt.Errorf("create request: %w", err)
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Decision{}, fmt.Errorf("check access: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Decision{}, fmt.Errorf("check access %s: status %d: %s", feature, resp.StatusCode, string(respBody))
	}

	var d Decision
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return Decision{}, fmt.Errorf("decode decision: %w", err)
	}
	return d, nil
}

// Reserve calls POST /v1/access/{feature}/reserve. The service answers 200
// with the decision after the use, or 403/429 with a denial.
func (c *RemoteChecker) Reserve(ctx context.Context, userID, feature string) (Decision, error) {
	resp, err := c.postUser(ctx, feature, "reserve", userID)
	if err != nil {
		return Decision{}, fmt.Errorf("reserve usage: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusForbidden, http.StatusTooManyRequests:
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Decision{}, fmt.Errorf("reserve usage %s: status %d: %s", feature, resp.StatusCode, string(respBody))
	}

	var d Decision
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return Decision{}, fmt.Errorf("decode decision: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		d.Allowed = false
	}
	return d, nil
}

// Release calls POST /v1/access/{feature}/release.
func (c *RemoteChecker) Release(ctx context.Context, userID, feature string) error {
	resp, err := c.postUser(ctx, feature, "release", userID)
	if err != nil {
		return fmt.Errorf("release usage: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("release usage %s: status %d: %s", feature, resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *RemoteChecker) postUser(ctx context.Context, feature, action, userID string) (*http.Response, error) {
	body, err := json.Marshal(map[string]string{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	u := fmt.Sprintf("%s/v1/access/%s/%s", c.baseURL, url.PathEscape(feature), action)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)
	return c.httpClient.Do(httpReq)
}

func (c *RemoteChecker) authorize(r *http.Request) {
	if c.apiKey != "" {
		r.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// Close releases idle connections.
func (c *RemoteChecker) Close() {
	c.httpClient.CloseIdleConnections()
}
