package api

import (
	"context"
	"io"
)

// ReleaseClient fetches release metadata and release assets.
type ReleaseClient interface {
	// LatestRelease returns the most recent published release of repo ("owner/name").
	LatestRelease(ctx context.Context, repo string) (*Release, error)

	// DownloadAsset streams asset into w. progress, when non-nil, is called
	// with the bytes written so far and the expected total.
	DownloadAsset(ctx context.Context, asset Asset, w io.Writer, progress func(int64, int64), opts *DownloadOptions) (*DownloadResult, error)
}

// MockReleaseClient is a mock implementation for testing
type MockReleaseClient struct {
	LatestReleaseFunc func(ctx context.Context, repo string) (*Release, error)
	DownloadAssetFunc func(ctx context.Context, asset Asset, w io.Writer, progress func(int64, int64), opts *DownloadOptions) (*DownloadResult, error)
}

func (m *MockReleaseClient) LatestRelease(ctx context.Context, repo string) (*Release, error) {
	if m.LatestReleaseFunc != nil {
		return m.LatestReleaseFunc(ctx, repo)
	}
	return nil, ErrNoRelease
}

func (m *MockReleaseClient) DownloadAsset(ctx context.Context, asset Asset, w io.Writer, progress func(int64, int64), opts *DownloadOptions) (*DownloadResult, error) {
	if m.DownloadAssetFunc != nil {
		return m.DownloadAssetFunc(ctx, asset, w, progress, opts)
	}
	return &DownloadResult{}, nil
}
