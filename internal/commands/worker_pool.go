package commands

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/friture/friture-cli/internal/api"
	"github.com/friture/friture-cli/internal/logger"
	"github.com/friture/friture-cli/internal/ui"
	"go.uber.org/zap"
)

// DownloadConfig holds configuration for downloading several installers.
type DownloadConfig struct {
	Concurrency   int           // Number of parallel downloads (default: 3)
	RetryAttempts int           // Number of attempts per file (default: 5)
	RetryDelay    time.Duration // Base delay between retries (default: 2s)
}

// DefaultDownloadConfig returns sensible defaults
func DefaultDownloadConfig() DownloadConfig {
	return DownloadConfig{
		Concurrency:   3,
		RetryAttempts: 5,
		RetryDelay:    2 * time.Second,
	}
}

// DownloadStats tracks download statistics
type DownloadStats struct {
	Errors     []DownloadError
	Downloaded int64
	Skipped    int64
	Failed     int64
	Bytes      int64
	mu         sync.Mutex
}

// DownloadError represents a failed download
type DownloadError struct {
	Name  string
	Error string
}

func (s *DownloadStats) AddDownloaded(bytes int64) {
	atomic.AddInt64(&s.Downloaded, 1)
	atomic.AddInt64(&s.Bytes, bytes)
}

func (s *DownloadStats) AddSkipped() {
	atomic.AddInt64(&s.Skipped, 1)
}

func (s *DownloadStats) AddFailed(name, errMsg string) {
	atomic.AddInt64(&s.Failed, 1)
	s.mu.Lock()
	s.Errors = append(s.Errors, DownloadError{Name: name, Error: errMsg})
	s.mu.Unlock()
}

// DownloadTask is one asset to save at Path.
type DownloadTask struct {
	Asset api.Asset
	Path  string // Final path; data goes to Path+".part" until complete
}

// WorkerPool downloads assets concurrently with per-file retry and resume.
type WorkerPool struct {
	ctx    context.Context
	client api.ReleaseClient
	tasks  chan DownloadTask
	stats  *DownloadStats
	onFile func(name string, size int64, err error)
	wg     sync.WaitGroup
	config DownloadConfig
}

// NewWorkerPool creates a new download worker pool
func NewWorkerPool(ctx context.Context, client api.ReleaseClient, config DownloadConfig) *WorkerPool {
	defaults := DefaultDownloadConfig()
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = defaults.RetryAttempts
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaults.RetryDelay
	}

	return &WorkerPool{
		ctx:    ctx,
		client: client,
		config: config,
		tasks:  make(chan DownloadTask, config.Concurrency*2),
		stats:  &DownloadStats{},
	}
}

// SetCallback sets the function called when a file finishes or fails.
// It may be called from several goroutines at once.
func (wp *WorkerPool) SetCallback(onFile func(name string, size int64, err error)) {
	wp.onFile = onFile
}

// Start launches worker goroutines
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.config.Concurrency; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Submit adds a task to the download queue
func (wp *WorkerPool) Submit(task DownloadTask) {
	wp.tasks <- task
}

// Skip records a task that was not submitted.
func (wp *WorkerPool) Skip() {
	wp.stats.AddSkipped()
}

// Close signals no more tasks and waits for completion
func (wp *WorkerPool) Close() *DownloadStats {
	close(wp.tasks)
	wp.wg.Wait()
	return wp.stats
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.tasks {
		var err error
		if wp.ctx.Err() != nil {
			err = wp.ctx.Err()
		} else {
			err = wp.downloadWithRetry(task)
		}

		if err != nil {
			wp.stats.AddFailed(task.Asset.Name, err.Error())
			logger.L().Warn("download failed", zap.String("asset", task.Asset.Name), zap.Error(err))
		} else {
			wp.stats.AddDownloaded(task.Asset.Size)
		}
		if wp.onFile != nil {
			wp.onFile(task.Asset.Name, task.Asset.Size, err)
		}
	}
}

// downloadWithRetry attempts a download, resuming from the partial file
// left by the previous attempt.
func (wp *WorkerPool) downloadWithRetry(task DownloadTask) error {
	partPath := task.Path + partSuffix
	var lastErr error

	for attempt := 1; attempt <= wp.config.RetryAttempts; attempt++ {
		var resumeFrom int64
		if info, err := os.Stat(partPath); err == nil && info.Size() < task.Asset.Size {
			resumeFrom = info.Size()
		}

		err := saveAsset(wp.ctx, wp.client, task.Asset, partPath, resumeFrom, nil)
		if err == nil {
			return finishDownload(partPath, task.Path, task.Asset)
		}

		lastErr = err

		// Don't retry on parent context cancellation
		if wp.ctx.Err() != nil {
			return wp.ctx.Err()
		}

		// Don't retry on the last attempt
		if attempt < wp.config.RetryAttempts {
			// Exponential backoff with jitter
			backoff := float64(wp.config.RetryDelay) * math.Pow(2, float64(attempt-1))
			jitter := rand.Float64() * 0.25 * backoff
			sleepDuration := time.Duration(backoff + jitter)

			// Cap at 30 seconds
			if sleepDuration > 30*time.Second {
				sleepDuration = 30 * time.Second
			}

			select {
			case <-time.After(sleepDuration):
			case <-wp.ctx.Done():
				return wp.ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", wp.config.RetryAttempts, lastErr)
}

// saveAsset streams asset into partPath, appending from resumeFrom.
func saveAsset(ctx context.Context, client api.ReleaseClient, asset api.Asset, partPath string, resumeFrom int64, progress func(int64, int64)) error {
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resumeFrom > 0 {
		flag = os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(partPath, flag, 0644)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", partPath, err)
	}
	defer f.Close()

	opts := &api.DownloadOptions{
		ResumeFrom: resumeFrom,
		Restart: func() error {
			if err := f.Truncate(0); err != nil {
				return err
			}
			_, err := f.Seek(0, io.SeekStart)
			return err
		},
	}

	res, err := client.DownloadAsset(ctx, asset, f, progress, opts)
	if err != nil {
		return err
	}
	if res != nil && res.Resumed {
		logger.L().Info("download resumed", zap.String("asset", asset.Name), zap.Int64("offset", resumeFrom))
	}
	return f.Close()
}

// finishDownload moves a completed partial file into place.
func finishDownload(partPath, finalPath string, asset api.Asset) error {
	if err := os.Rename(partPath, finalPath); err != nil {
		return err
	}
	if !asset.UpdatedAt.IsZero() {
		_ = os.Chtimes(finalPath, time.Now(), asset.UpdatedAt)
	}
	return nil
}

// FilePrinter reports finished files of a WorkerPool, one line each.
type FilePrinter struct {
	w     io.Writer
	total int
	done  int
	mu    sync.Mutex
}

func NewFilePrinter(w io.Writer, total int) *FilePrinter {
	return &FilePrinter{w: w, total: total}
}

func (fp *FilePrinter) OnFile(name string, size int64, err error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	fp.done++
	counter := ui.MutedStyle.Render(fmt.Sprintf("[%d/%d]", fp.done, fp.total))
	if err != nil {
		fmt.Fprintf(fp.w, "  %s %s %s: %v\n", counter, ui.ErrorStyle.Render("✗"), name, err)
		return
	}
	fmt.Fprintf(fp.w, "  %s %s %s (%s)\n", counter, ui.SuccessStyle.Render("✓"), name, ui.FormatSize(size))
}
