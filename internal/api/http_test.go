package api_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/friture/friture-cli/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const latestReleaseJSON = `{
	"tag_name": "v0.51",
	"name": "Friture 0.51",
	"html_url": "https://github.com/tlecomte/friture/releases/tag/v0.51",
	"published_at": "2024-03-02T10:00:00Z",
	"prerelease": false,
	"body": "Bug fixes",
	"reactions": {"+1": 3},
	"assets": [
		{"id": 1, "name": "friture-0.51.msi", "browser_download_url": "https://example.com/friture-0.51.msi", "size": 48234496},
		{"id": 2, "name": "friture-0.51.dmg", "browser_download_url": "https://example.com/friture-0.51.dmg", "size": 61865984},
		{"id": 3, "name": "friture-0.51-x86_64.AppImage", "browser_download_url": "https://example.com/friture-0.51-x86_64.AppImage", "size": 154140672}
	]
}`

func newTestClient(url string) *api.HTTPClient {
	client := api.NewHTTPClient(url, "")
	// Speed up retries for test
	client.BaseRetryDelay = 1 * time.Millisecond
	return client
}

func TestHTTPClient_LatestRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/tlecomte/friture/releases/latest", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("User-Agent"), "friture-cli/")
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(latestReleaseJSON))
	}))
	defer server.Close()

	rel, err := newTestClient(server.URL).LatestRelease(context.Background(), "tlecomte/friture")

	require.NoError(t, err)
	assert.Equal(t, "v0.51", rel.TagName)
	assert.Equal(t, "Friture 0.51", rel.Title())
	assert.Equal(t, 2024, rel.PublishedAt.Year())
	require.Len(t, rel.Assets, 3)
	assert.Equal(t, "friture-0.51.msi", rel.Assets[0].Name)
	assert.Equal(t, "https://example.com/friture-0.51.dmg", rel.Assets[1].DownloadURL)
	assert.Equal(t, int64(154140672), rel.Assets[2].Size)

	// Unknown fields are kept verbatim for display
	assert.Contains(t, string(rel.Raw), `"reactions"`)
}

func TestHTTPClient_LatestRelease_SendsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"tag_name": "v1.0", "assets": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.Token = "secret"

	rel, err := client.LatestRelease(context.Background(), "tlecomte/friture")
	require.NoError(t, err)
	assert.Empty(t, rel.Assets)
}

func TestHTTPClient_LatestRelease_Retry(t *testing.T) {
	// Simulate unstable API: fails twice with 500, then succeeds
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(latestReleaseJSON))
	}))
	defer server.Close()

	rel, err := newTestClient(server.URL).LatestRelease(context.Background(), "tlecomte/friture")

	assert.NoError(t, err)
	assert.Equal(t, "v0.51", rel.TagName)
	assert.Equal(t, 3, attempts, "Expected 3 attempts (2 failures + 1 success)")
}

func TestHTTPClient_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.MaxRetries = 2

	_, err := client.LatestRelease(context.Background(), "tlecomte/friture")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, 3, attempts)
}

func TestHTTPClient_Unauthorized_NoRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "Bad credentials"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).LatestRelease(context.Background(), "tlecomte/friture")

	assert.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrUnauthorized), "Should return ErrUnauthorized")
	assert.Equal(t, 1, attempts, "Should not retry on 401")
}

func TestHTTPClient_LatestRelease_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).LatestRelease(context.Background(), "tlecomte/friture")

	assert.ErrorIs(t, err, api.ErrNoRelease)
}

func TestHTTPClient_LatestRelease_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "API rate limit exceeded for 127.0.0.1."}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).LatestRelease(context.Background(), "tlecomte/friture")

	var se *api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Status)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestHTTPClient_LatestRelease_HTMLResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>captive portal</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).LatestRelease(context.Background(), "tlecomte/friture")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HTML")
}

func TestHTTPClient_LatestRelease_InvalidRepo(t *testing.T) {
	client := newTestClient("http://127.0.0.1:0")
	for _, repo := range []string{"", "friture", "/friture", "tlecomte/", "a/b/c"} {
		_, err := client.LatestRelease(context.Background(), repo)
		assert.Error(t, err, "repo %q", repo)
	}
}

func TestHTTPClient_DownloadAsset(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download/friture.dmg", r.URL.Path)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/x-apple-diskimage")
		w.Write(payload)
	}))
	defer server.Close()

	asset := api.Asset{Name: "friture.dmg", DownloadURL: server.URL + "/download/friture.dmg", Size: int64(len(payload))}

	var buf bytes.Buffer
	var lastCurrent, lastTotal int64
	res, err := newTestClient(server.URL).DownloadAsset(context.Background(), asset, &buf, func(cur, total int64) {
		lastCurrent, lastTotal = cur, total
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, payload, buf.Bytes())
	assert.Equal(t, int64(len(payload)), res.Bytes)
	assert.Equal(t, "application/x-apple-diskimage", res.ContentType)
	assert.False(t, res.Resumed)
	assert.Equal(t, int64(len(payload)), lastCurrent)
	assert.Equal(t, int64(len(payload)), lastTotal)
}

func TestHTTPClient_DownloadAsset_Resume(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bytes=6-", r.Header.Get("Range"))
		w.Header().Set("Content-Range", "bytes 6-9/10")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("6789"))
	}))
	defer server.Close()

	asset := api.Asset{Name: "friture.msi", DownloadURL: server.URL + "/friture.msi", Size: 10}

	var buf bytes.Buffer
	var lastCurrent, lastTotal int64
	res, err := newTestClient(server.URL).DownloadAsset(context.Background(), asset, &buf, func(cur, total int64) {
		lastCurrent, lastTotal = cur, total
	}, &api.DownloadOptions{ResumeFrom: 6})

	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, "6789", buf.String())
	assert.Equal(t, int64(10), lastCurrent)
	assert.Equal(t, int64(10), lastTotal)
}

func TestHTTPClient_DownloadAsset_RangeIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	asset := api.Asset{Name: "friture.msi", DownloadURL: server.URL + "/friture.msi", Size: 10}

	buf := bytes.NewBufferString("012345")
	restarted := false
	res, err := newTestClient(server.URL).DownloadAsset(context.Background(), asset, buf, nil, &api.DownloadOptions{
		ResumeFrom: 6,
		Restart: func() error {
			restarted = true
			buf.Reset()
			return nil
		},
	})

	require.NoError(t, err)
	assert.True(t, restarted)
	assert.False(t, res.Resumed)
	assert.Equal(t, "0123456789", buf.String())
}

func TestHTTPClient_DownloadAsset_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	asset := api.Asset{Name: "gone.msi", DownloadURL: server.URL + "/gone.msi"}
	_, err := newTestClient(server.URL).DownloadAsset(context.Background(), asset, &bytes.Buffer{}, nil, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestExtractAPIError_WithMessage(t *testing.T) {
	body := []byte(`{"message": "Validation Failed", "errors": [{"resource": "Release", "field": "tag_name", "code": "invalid"}]}`)
	result := api.ExtractAPIErrorForTest(body)
	assert.Equal(t, "Validation Failed: tag_name invalid", result)
}

func TestExtractAPIError_MessageOnly(t *testing.T) {
	body := []byte(`{"message": "Not Found", "documentation_url": "https://docs.github.com/rest"}`)
	assert.Equal(t, "Not Found", api.ExtractAPIErrorForTest(body))
}

func TestExtractAPIError_InvalidJSON(t *testing.T) {
	// Test fallback to raw body for invalid JSON
	body := []byte(`not json`)
	result := api.ExtractAPIErrorForTest(body)
	assert.Equal(t, "not json", result)
}
