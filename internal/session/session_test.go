package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/friture/friture-cli/internal/api"
	"github.com/friture/friture-cli/internal/config"
	"github.com/friture/friture-cli/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_LatestRelease_FetchedOnce(t *testing.T) {
	calls := 0
	var gotRepo string
	client := &api.MockReleaseClient{
		LatestReleaseFunc: func(ctx context.Context, repo string) (*api.Release, error) {
			calls++
			gotRepo = repo
			return &api.Release{TagName: "v0.51"}, nil
		},
	}
	s := session.NewSession(client, nil)
	assert.Nil(t, s.CachedRelease())

	rel, err := s.LatestRelease(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "v0.51", rel.TagName)

	_, err = s.LatestRelease(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, config.DefaultRepo, gotRepo)
	assert.Same(t, rel, s.CachedRelease())

	_, err = s.LatestRelease(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSession_LatestRelease_ErrorNotCached(t *testing.T) {
	calls := 0
	client := &api.MockReleaseClient{
		LatestReleaseFunc: func(ctx context.Context, repo string) (*api.Release, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("network down")
			}
			return &api.Release{TagName: "v0.51"}, nil
		},
	}
	s := session.NewSession(client, config.Default())

	_, err := s.LatestRelease(context.Background(), false)
	assert.Error(t, err)
	assert.Nil(t, s.CachedRelease())

	rel, err := s.LatestRelease(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "v0.51", rel.TagName)
}
