package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/friture/friture-cli/internal/logger"
	"go.uber.org/zap"
)

// LatestRelease fetches GET /repos/{owner}/{repo}/releases/latest.
// Drafts and prereleases are never returned by this endpoint.
func (c *HTTPClient) LatestRelease(ctx context.Context, repo string) (*Release, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("invalid repository %q: expected owner/name", repo)
	}

	path := fmt.Sprintf("/repos/%s/%s/releases/latest", owner, name)
	var rel Release
	raw, err := c.doJSON(ctx, http.MethodGet, path, nil, &rel)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", repo, ErrNoRelease)
		}
		return nil, err
	}
	rel.Raw = raw

	logger.L().Info("fetched latest release",
		zap.String("repo", repo),
		zap.String("tag", rel.TagName),
		zap.Int("assets", len(rel.Assets)))
	return &rel, nil
}
