package release

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// IsNewer reports whether the latest release tag is a newer version than the
// installed one. Both accept a leading "v". A release is newer than a
// prerelease of the same version.
func IsNewer(latestTag, installed string) (bool, error) {
	latest, err := parseVersion(latestTag)
	if err != nil {
		return false, fmt.Errorf("latest release tag: %w", err)
	}
	current, err := parseVersion(installed)
	if err != nil {
		return false, fmt.Errorf("installed version: %w", err)
	}
	return latest.GreaterThan(current), nil
}

func parseVersion(s string) (*version.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}
	v, err := version.NewVersion(strings.TrimPrefix(s, "v"))
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return v, nil
}
