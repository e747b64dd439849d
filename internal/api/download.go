package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/friture/friture-cli/internal/logger"
	"go.uber.org/zap"
)

// DownloadOptions configures a download operation
type DownloadOptions struct {
	// ResumeFrom specifies the byte offset to resume from (for Range requests)
	ResumeFrom int64
	// Restart is called when the server ignores the range and sends the whole
	// file, so the caller can discard what it already has.
	Restart func() error
}

// DownloadAsset streams the asset's browser_download_url into w.
// GitHub answers with a redirect to its object storage; the http.Client follows it.
func (c *HTTPClient) DownloadAsset(ctx context.Context, asset Asset, w io.Writer, progress func(int64, int64), opts *DownloadOptions) (*DownloadResult, error) {
	if asset.DownloadURL == "" {
		return nil, fmt.Errorf("asset %q has no download URL", asset.Name)
	}

	req, err := c.newRequest(ctx, http.MethodGet, asset.DownloadURL)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/octet-stream")

	resumeOffset := int64(0)
	if opts != nil && opts.ResumeFrom > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", opts.ResumeFrom))
		resumeOffset = opts.ResumeFrom
	}

	// Installers are large; the 40s API timeout does not apply to the body.
	client := *c.Client
	client.Timeout = 0
	dl := *c
	dl.Client = &client

	start := time.Now()
	resp, err := dl.DoWithRetry(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("download of %s failed: %s", asset.Name, resp.Status)
	}

	result := &DownloadResult{ContentType: resp.Header.Get("Content-Type")}

	total := asset.Size
	if resp.StatusCode == http.StatusPartialContent {
		result.Resumed = true
		// Format: "bytes 1000-1999/2000" where 2000 is total size
		if contentRange := resp.Header.Get("Content-Range"); contentRange != "" {
			var first, last, size int64
			if _, err := fmt.Sscanf(contentRange, "bytes %d-%d/%d", &first, &last, &size); err == nil {
				total = size
			}
		}
	} else {
		// Server ignored the range; start over
		if resumeOffset > 0 && opts.Restart != nil {
			if err := opts.Restart(); err != nil {
				return nil, err
			}
		}
		resumeOffset = 0
		if resp.ContentLength > 0 {
			total = resp.ContentLength
		}
	}

	pr := &ProgressReader{
		Reader:     resp.Body,
		Total:      total,
		Current:    resumeOffset,
		OnProgress: progress,
	}

	n, err := io.Copy(w, pr)
	if err != nil {
		return nil, fmt.Errorf("download of %s interrupted after %d bytes: %w", asset.Name, n, err)
	}
	result.Bytes = n

	logger.L().Info("asset downloaded",
		zap.String("asset", asset.Name),
		zap.Int64("bytes", n),
		zap.Bool("resumed", result.Resumed),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

type ProgressReader struct {
	io.Reader
	OnProgress func(int64, int64)
	Total      int64
	Current    int64
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	pr.Current += int64(n)
	if pr.OnProgress != nil {
		pr.OnProgress(pr.Current, pr.Total)
	}
	return n, err
}
