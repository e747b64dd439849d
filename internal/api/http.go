package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/friture/friture-cli/internal/build"
	"github.com/friture/friture-cli/internal/logger"
	"go.uber.org/zap"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

var (
	// ErrUnauthorized is returned when the API rejects the configured token.
	ErrUnauthorized = errors.New("GitHub token rejected (401 Unauthorized)")
	// ErrNoRelease is returned when the repository has no published release.
	ErrNoRelease = errors.New("no published release found")
)

type HTTPClient struct {
	Client         *http.Client
	BaseURL        string
	Token          string
	UserAgent      string
	BaseRetryDelay time.Duration
	MaxRetries     int
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		BaseURL:        baseURL,
		Token:          token,
		UserAgent:      build.UserAgent(),
		Client:         &http.Client{Timeout: 40 * time.Second},
		BaseRetryDelay: 500 * time.Millisecond,
		MaxRetries:     4,
	}
}

// DoWithRetry executes a request with exponential backoff and jitter.
// Transport errors and 5xx responses are retried; a 401 is returned as
// ErrUnauthorized straight away.
// NOTE: request bodies are buffered so they can be replayed on retry.
func (c *HTTPClient) DoWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error
	log := logger.L().With(zap.String("method", req.Method), zap.String("url", req.URL.String()))

	var bodyBytes []byte
	if req.Body != nil && req.Method != http.MethodGet && req.Method != http.MethodHead {
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		req.Body.Close()
	}

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			req.ContentLength = int64(len(bodyBytes))
		}

		resp, err = c.Client.Do(req)

		if err == nil {
			if resp.StatusCode == http.StatusUnauthorized {
				resp.Body.Close()
				return nil, ErrUnauthorized
			}
			if resp.StatusCode < 500 {
				log.Debug("request done", zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt))
				return resp, nil
			}
			resp.Body.Close()
			log.Warn("server error, retrying", zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt))
		} else {
			log.Warn("request failed", zap.Error(err), zap.Int("attempt", attempt))
		}

		if err != nil && isSSLError(err) {
			return nil, fmt.Errorf("%w\n\nSSL/TLS error hint: %s", err, getSSLErrorHint(err))
		}

		if attempt < c.MaxRetries {
			backoff := float64(c.BaseRetryDelay) * math.Pow(2, float64(attempt))
			jitter := rand.Float64() * 0.25 * backoff
			sleepDuration := time.Duration(backoff + jitter)

			// Cap at 30 seconds
			if sleepDuration > 30*time.Second {
				sleepDuration = 30 * time.Second
			}

			select {
			case <-time.After(sleepDuration):
				continue
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d retries: %w", c.MaxRetries, err)
	}
	return nil, fmt.Errorf("server returned %d after %d retries", resp.StatusCode, c.MaxRetries)
}

// isSSLError checks if an error is SSL/TLS related
func isSSLError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToUpper(err.Error())
	sslPatterns := []string{"SSL", "TLS", "CERTIFICATE", "HANDSHAKE"}
	for _, pattern := range sslPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func getSSLErrorHint(err error) string {
	errStr := strings.ToUpper(err.Error())
	if strings.Contains(errStr, "CERTIFICATE") {
		return "Certificate verification failed. Check if your system certificates are up to date."
	}
	return "An SSL/TLS error occurred. Check your network connection and try again."
}

// extractAPIError pulls a readable message out of a GitHub error document:
// {"message": "...", "errors": [{"resource": "...", "field": "...", "code": "..."}]}
func extractAPIError(body []byte) string {
	var errResp struct {
		Message string `json:"message"`
		Errors  []struct {
			Resource string `json:"resource"`
			Field    string `json:"field"`
			Code     string `json:"code"`
			Message  string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return string(body)
	}
	if len(errResp.Errors) > 0 {
		e := errResp.Errors[0]
		detail := e.Message
		if detail == "" {
			detail = strings.TrimSpace(e.Field + " " + e.Code)
		}
		if errResp.Message != "" {
			return fmt.Sprintf("%s: %s", errResp.Message, detail)
		}
		return detail
	}
	if errResp.Message != "" {
		return errResp.Message
	}
	return string(body)
}
