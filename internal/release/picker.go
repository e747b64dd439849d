// Package release selects downloadable installers out of a release.
package release

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/friture/friture-cli/internal/api"
)

var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrAssetNotFound   = errors.New("no matching asset in release")
)

// Platform is a desktop OS Friture ships an installer for.
type Platform string

const (
	Windows Platform = "windows"
	Mac     Platform = "mac"
	Linux   Platform = "linux"
)

// All lists the platforms in display order.
var All = []Platform{Windows, Mac, Linux}

// Suffix is the installer file name suffix for the platform.
func (p Platform) Suffix() string {
	switch p {
	case Windows:
		return ".msi"
	case Mac:
		return ".dmg"
	case Linux:
		return ".AppImage"
	}
	return ""
}

func (p Platform) Label() string {
	switch p {
	case Windows:
		return "Windows"
	case Mac:
		return "macOS"
	case Linux:
		return "Linux"
	}
	return string(p)
}

// ParsePlatform accepts the platform names plus the common GOOS spellings.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows", "win":
		return Windows, nil
	case "mac", "macos", "darwin", "osx":
		return Mac, nil
	case "linux":
		return Linux, nil
	}
	return "", fmt.Errorf("%w: %q (expected windows, mac or linux)", ErrUnknownPlatform, s)
}

// Current returns the platform of the running host.
func Current() (Platform, error) {
	return ParsePlatform(runtime.GOOS)
}

// Platforms holds the installer picked for each platform. A nil field means
// the release has no asset for that platform.
type Platforms struct {
	Windows *api.Asset
	Mac     *api.Asset
	Linux   *api.Asset
}

// For returns the asset picked for p.
func (ps Platforms) For(p Platform) *api.Asset {
	switch p {
	case Windows:
		return ps.Windows
	case Mac:
		return ps.Mac
	case Linux:
		return ps.Linux
	}
	return nil
}

// Each calls fn for every platform in display order, including absent ones.
func (ps Platforms) Each(fn func(p Platform, a *api.Asset)) {
	for _, p := range All {
		fn(p, ps.For(p))
	}
}

// Pick selects, for each platform, the first asset whose name ends with the
// platform's installer suffix. The returned assets point into rel.Assets.
func Pick(rel *api.Release) Platforms {
	var ps Platforms
	if rel == nil {
		return ps
	}
	ps.Windows = first(rel.Assets, Windows.Suffix())
	ps.Mac = first(rel.Assets, Mac.Suffix())
	ps.Linux = first(rel.Assets, Linux.Suffix())
	return ps
}

func first(assets []api.Asset, suffix string) *api.Asset {
	for i := range assets {
		if strings.HasSuffix(assets[i].Name, suffix) {
			return &assets[i]
		}
	}
	return nil
}

// PickFor returns the installer for one platform or ErrAssetNotFound.
func PickFor(rel *api.Release, p Platform) (*api.Asset, error) {
	if p.Suffix() == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, string(p))
	}
	a := Pick(rel).For(p)
	if a == nil {
		return nil, fmt.Errorf("%w: no %s installer (*%s)", ErrAssetNotFound, p.Label(), p.Suffix())
	}
	return a, nil
}

// Match returns every asset whose name matches the doublestar glob pattern,
// in release order.
func Match(rel *api.Release, pattern string) ([]api.Asset, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	if rel == nil {
		return nil, nil
	}
	var out []api.Asset
	for _, a := range rel.Assets {
		if ok, _ := doublestar.Match(pattern, a.Name); ok {
			out = append(out, a)
		}
	}
	return out, nil
}
