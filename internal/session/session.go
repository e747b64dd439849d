package session

import (
	"context"
	"sync"

	"github.com/friture/friture-cli/internal/api"
	"github.com/friture/friture-cli/internal/config"
)

// Session holds what commands share during one run: the injected release
// client, the configuration and the release fetched for this run.
type Session struct {
	Client        api.ReleaseClient
	Config        *config.Config
	HistoryGetter func() []string

	mu      sync.Mutex
	release *api.Release
}

func NewSession(client api.ReleaseClient, cfg *config.Config) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Session{
		Client: client,
		Config: cfg,
	}
}

// LatestRelease returns the release for the configured repository. It is
// fetched once per session; refresh forces a new request.
func (s *Session) LatestRelease(ctx context.Context, refresh bool) (*api.Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.release != nil && !refresh {
		return s.release, nil
	}
	rel, err := s.Client.LatestRelease(ctx, s.Config.Repo)
	if err != nil {
		return nil, err
	}
	s.release = rel
	return rel, nil
}

// CachedRelease returns the release fetched so far, or nil.
func (s *Session) CachedRelease() *api.Release {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.release
}
