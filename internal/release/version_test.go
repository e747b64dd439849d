package release_test

import (
	"testing"

	"github.com/friture/friture-cli/internal/release"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		latest, installed string
		want              bool
	}{
		{"v0.51", "0.50", true},
		{"v0.51", "v0.51", false},
		{"0.51", "0.52", false},
		{"v1.0.0", "1.0.0-beta", true},
		{"v1.0.0-beta", "1.0.0", false},
		{"v0.49.1", "0.49", true},
	}

	for _, tt := range tests {
		got, err := release.IsNewer(tt.latest, tt.installed)
		require.NoError(t, err, "%s vs %s", tt.latest, tt.installed)
		assert.Equal(t, tt.want, got, "%s vs %s", tt.latest, tt.installed)
	}
}

func TestIsNewer_Invalid(t *testing.T) {
	_, err := release.IsNewer("nightly", "0.50")
	assert.Error(t, err)

	_, err = release.IsNewer("v0.51", "")
	assert.Error(t, err)
}
