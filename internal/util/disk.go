// Package util provides host checks used before writing downloads.
package util

import (
	"errors"
	"fmt"

	"github.com/friture/friture-cli/internal/ui"
	"github.com/shirou/gopsutil/v3/disk"
)

const (
	// WarnThresholdPercent is the share of free space above which we warn.
	WarnThresholdPercent = 80
)

// ErrInsufficientSpace is returned when a download cannot fit on the target filesystem.
var ErrInsufficientSpace = errors.New("not enough free disk space")

// DiskInfo describes the filesystem holding a path.
type DiskInfo struct {
	Path        string
	TotalBytes  uint64
	FreeBytes   uint64
	UsedPercent float64
}

// GetDiskInfo returns usage of the filesystem that contains dir.
func GetDiskInfo(dir string) (*DiskInfo, error) {
	u, err := disk.Usage(dir)
	if err != nil {
		return nil, fmt.Errorf("get disk usage of %s: %w", dir, err)
	}
	return &DiskInfo{
		Path:        u.Path,
		TotalBytes:  u.Total,
		FreeBytes:   u.Free,
		UsedPercent: u.UsedPercent,
	}, nil
}

// CheckResult contains the result of a disk space check for a download.
type CheckResult struct {
	// OK is true if the download can proceed.
	OK bool
	// Warning message if the download should proceed with caution.
	Warning string
	// FreeBytes is the free space on the target filesystem.
	FreeBytes uint64
	// RequiredBytes is the size of the download.
	RequiredBytes uint64
}

// CheckDiskForFile checks whether a file of size bytes fits in dir.
// When usage cannot be determined the check passes with a warning.
func CheckDiskForFile(dir string, size int64) *CheckResult {
	info, err := GetDiskInfo(dir)
	return checkUsage(size, info, err)
}

// checkUsage decides on a usage lookup. Only a failed lookup counts as
// unknown; zero free bytes is a full disk.
func checkUsage(size int64, info *DiskInfo, err error) *CheckResult {
	result := &CheckResult{OK: true}
	if size < 0 {
		size = 0
	}
	result.RequiredBytes = uint64(size)

	if err != nil || info == nil {
		result.Warning = "Could not determine free disk space; proceeding anyway"
		return result
	}
	return evaluate(result, info.FreeBytes)
}

func evaluate(result *CheckResult, free uint64) *CheckResult {
	result.FreeBytes = free

	if result.RequiredBytes > free {
		result.OK = false
		return result
	}
	if result.RequiredBytes == 0 {
		return result
	}

	percent := float64(result.RequiredBytes) / float64(free) * 100
	if percent >= WarnThresholdPercent {
		result.Warning = fmt.Sprintf("Download (%s) uses %.0f%% of the remaining free space (%s)",
			ui.FormatSize(int64(result.RequiredBytes)), percent, ui.FormatSize(int64(free)))
	}
	return result
}

// Err returns ErrInsufficientSpace with details when the check failed.
func (r *CheckResult) Err() error {
	if r.OK {
		return nil
	}
	return fmt.Errorf("%w: need %s, %s free", ErrInsufficientSpace,
		ui.FormatSize(int64(r.RequiredBytes)), ui.FormatSize(int64(r.FreeBytes)))
}
