package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

func (c *HTTPClient) buildURL(path string, query url.Values) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	full := base + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func (c *HTTPClient) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values) (int, []byte, error) {
	req, err := c.newRequest(ctx, method, c.buildURL(path, query))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.DoWithRetry(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// doJSON performs a GET-style call and decodes a 2xx JSON body into out.
// It returns the raw body alongside so callers can keep it.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, query url.Values, out any) ([]byte, error) {
	status, body, err := c.do(ctx, method, path, query)
	if err != nil {
		return nil, err
	}

	if status >= 400 {
		msg := extractAPIError(body)
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", status)
		}
		return nil, &StatusError{Method: method, Path: path, Status: status, Message: msg}
	}

	if len(body) > 0 && body[0] == '<' {
		return nil, fmt.Errorf("%s %s failed: got HTML response (status %d)", method, path, status)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%s %s failed: empty response", method, path)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("%s %s failed to decode JSON: %w", method, path, err)
	}
	return body, nil
}

// StatusError is an API call that completed with a 4xx status.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed: %d %s", e.Method, e.Path, e.Status, e.Message)
}
