package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/friture/friture-cli/internal/api"
	"github.com/friture/friture-cli/internal/release"
	"github.com/friture/friture-cli/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const installerPayload = "MZ fake windows installer payload"

func downloadClient(t *testing.T, gotOpts **api.DownloadOptions) *api.MockReleaseClient {
	return &api.MockReleaseClient{
		LatestReleaseFunc: func(ctx context.Context, repo string) (*api.Release, error) {
			return &api.Release{
				TagName: "v0.51",
				Assets: []api.Asset{
					{Name: "friture-0.51.msi", DownloadURL: "https://example.com/friture-0.51.msi", Size: int64(len(installerPayload))},
				},
			}, nil
		},
		DownloadAssetFunc: func(ctx context.Context, asset api.Asset, w io.Writer, progress func(int64, int64), opts *api.DownloadOptions) (*api.DownloadResult, error) {
			assert.Equal(t, "friture-0.51.msi", asset.Name)
			if gotOpts != nil {
				*gotOpts = opts
			}
			offset := int64(0)
			if opts != nil {
				offset = opts.ResumeFrom
			}
			n, err := io.WriteString(w, installerPayload[offset:])
			if progress != nil {
				progress(offset+int64(n), asset.Size)
			}
			return &api.DownloadResult{Bytes: int64(n), Resumed: offset > 0}, err
		},
	}
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(downloadClient(t, nil))

	out, _, err := run(t, s, "", "download windows -o "+dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "friture-0.51.msi"))
	require.NoError(t, err)
	assert.Equal(t, installerPayload, string(data))
	assert.NoFileExists(t, filepath.Join(dir, "friture-0.51.msi.part"))
	assert.Contains(t, out, "Saved "+filepath.Join(dir, "friture-0.51.msi"))
}

func TestDownload_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "friture-0.51.msi")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0644))
	s := newTestSession(downloadClient(t, nil))

	_, _, err := run(t, s, "", "download windows -o "+dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = run(t, s, "", "download windows -o "+dir+" --force")
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, installerPayload, string(data))
}

func TestDownload_ResumesPartialFile(t *testing.T) {
	dir := t.TempDir()
	part := filepath.Join(dir, "friture-0.51.msi.part")
	require.NoError(t, os.WriteFile(part, []byte(installerPayload[:10]), 0644))

	var opts *api.DownloadOptions
	s := newTestSession(downloadClient(t, &opts))

	_, _, err := run(t, s, "", "download windows -o "+dir)
	require.NoError(t, err)

	require.NotNil(t, opts)
	assert.Equal(t, int64(10), opts.ResumeFrom)
	data, err := os.ReadFile(filepath.Join(dir, "friture-0.51.msi"))
	require.NoError(t, err)
	assert.Equal(t, installerPayload, string(data))
}

func TestDownload_RestartDiscardsPartialFile(t *testing.T) {
	dir := t.TempDir()
	part := filepath.Join(dir, "friture-0.51.msi.part")
	require.NoError(t, os.WriteFile(part, []byte("garbage---"), 0644))

	client := downloadClient(t, nil)
	client.DownloadAssetFunc = func(ctx context.Context, asset api.Asset, w io.Writer, progress func(int64, int64), opts *api.DownloadOptions) (*api.DownloadResult, error) {
		require.NotNil(t, opts)
		require.NotNil(t, opts.Restart)
		// Server ignored the range header
		require.NoError(t, opts.Restart())
		n, err := io.WriteString(w, installerPayload)
		return &api.DownloadResult{Bytes: int64(n)}, err
	}
	s := newTestSession(client)

	_, _, err := run(t, s, "", "download windows -o "+dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "friture-0.51.msi"))
	require.NoError(t, err)
	assert.Equal(t, installerPayload, string(data))
}

func TestDownload_DefaultDirFromConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	s := newTestSession(downloadClient(t, nil))
	s.Config.DownloadDir = dir

	_, _, err := run(t, s, "", "download windows")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "friture-0.51.msi"))
}

func TestDownload_MissingInstaller(t *testing.T) {
	s := newTestSession(downloadClient(t, nil))

	_, _, err := run(t, s, "", "download linux -o "+t.TempDir())
	assert.ErrorIs(t, err, release.ErrAssetNotFound)
}

func TestDownload_TooManyArgs(t *testing.T) {
	s := newTestSession(downloadClient(t, nil))

	_, _, err := run(t, s, "", "download windows mac")
	assert.Error(t, err)
}

func allPlatformsClient() *api.MockReleaseClient {
	assets := []api.Asset{
		{Name: "friture-0.51.msi", Size: 3},
		{Name: "friture-0.51.dmg", Size: 3},
		{Name: "friture-0.51-x86_64.AppImage", Size: 3},
	}
	return &api.MockReleaseClient{
		LatestReleaseFunc: func(ctx context.Context, repo string) (*api.Release, error) {
			return &api.Release{TagName: "v0.51", Assets: assets}, nil
		},
		DownloadAssetFunc: func(ctx context.Context, asset api.Asset, w io.Writer, progress func(int64, int64), opts *api.DownloadOptions) (*api.DownloadResult, error) {
			n, err := io.WriteString(w, "abc")
			return &api.DownloadResult{Bytes: int64(n)}, err
		},
	}
}

func TestDownload_All(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "friture-0.51.dmg"), []byte("old"), 0644))
	s := newTestSession(allPlatformsClient())

	out, _, err := run(t, s, "", "download --all -o "+dir)
	require.NoError(t, err)

	for _, name := range []string{"friture-0.51.msi", "friture-0.51-x86_64.AppImage"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, "abc", string(data))
	}
	assert.Contains(t, out, "friture-0.51.dmg (already exists)")
	assert.Contains(t, out, "Downloaded 2 (6.0 bytes), skipped 1, failed 0")
}

func TestDownload_AllWithPlatform(t *testing.T) {
	s := newTestSession(allPlatformsClient())

	_, _, err := run(t, s, "", "download --all mac -o "+t.TempDir())
	assert.Error(t, err)
}

func TestWorkerPool_RetriesAndReportsFailures(t *testing.T) {
	dir := t.TempDir()
	attempts := map[string]int{}
	var mu sync.Mutex

	client := &api.MockReleaseClient{
		DownloadAssetFunc: func(ctx context.Context, asset api.Asset, w io.Writer, progress func(int64, int64), opts *api.DownloadOptions) (*api.DownloadResult, error) {
			mu.Lock()
			attempts[asset.Name]++
			n := attempts[asset.Name]
			mu.Unlock()

			switch asset.Name {
			case "flaky.msi":
				if n == 1 {
					// Half the file, then the connection drops
					io.WriteString(w, "ab")
					return nil, errors.New("unexpected EOF")
				}
				assert.Equal(t, int64(2), opts.ResumeFrom)
				io.WriteString(w, "cd")
				return &api.DownloadResult{Bytes: 2, Resumed: true}, nil
			case "broken.dmg":
				return nil, errors.New("server error")
			}
			io.WriteString(w, "abcd")
			return &api.DownloadResult{Bytes: 4}, nil
		},
	}

	pool := NewWorkerPool(context.Background(), client, DownloadConfig{
		Concurrency:   2,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	})
	var buf bytes.Buffer
	printer := NewFilePrinter(&buf, 3)
	pool.SetCallback(printer.OnFile)
	pool.Start()
	for _, name := range []string{"flaky.msi", "broken.dmg", "ok.AppImage"} {
		pool.Submit(DownloadTask{Asset: api.Asset{Name: name, Size: 4}, Path: filepath.Join(dir, name)})
	}
	stats := pool.Close()

	assert.Equal(t, int64(2), stats.Downloaded)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(8), stats.Bytes)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, "broken.dmg", stats.Errors[0].Name)
	assert.Contains(t, stats.Errors[0].Error, "failed after 3 attempts")
	assert.Equal(t, 3, attempts["broken.dmg"])

	data, err := os.ReadFile(filepath.Join(dir, "flaky.msi"))
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))
	assert.NoFileExists(t, filepath.Join(dir, "broken.dmg"))

	out := ui.StripANSI(buf.String())
	assert.Contains(t, out, "ok.AppImage (4.0 bytes)")
	assert.Contains(t, out, "broken.dmg: failed after 3 attempts")
}

func TestWorkerPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	client := &api.MockReleaseClient{
		DownloadAssetFunc: func(ctx context.Context, asset api.Asset, w io.Writer, progress func(int64, int64), opts *api.DownloadOptions) (*api.DownloadResult, error) {
			called = true
			return &api.DownloadResult{}, nil
		},
	}

	pool := NewWorkerPool(ctx, client, DownloadConfig{Concurrency: 1})
	pool.Start()
	pool.Submit(DownloadTask{Asset: api.Asset{Name: "x.msi", Size: 1}, Path: filepath.Join(t.TempDir(), "x.msi")})
	stats := pool.Close()

	assert.False(t, called)
	assert.Equal(t, int64(1), stats.Failed)
}
