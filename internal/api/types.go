package api

import (
	"encoding/json"
	"time"
)

// Release is a GitHub release as returned by the releases API.
// Only the fields the CLI reads are decoded; Raw keeps the full document.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	HTMLURL     string    `json:"html_url"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
	Draft       bool      `json:"draft"`
	Assets      []Asset   `json:"assets"`

	Raw json.RawMessage `json:"-"`
}

// Title returns the release name, falling back to the tag.
func (r *Release) Title() string {
	if r.Name != "" {
		return r.Name
	}
	return r.TagName
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	DownloadURL   string    `json:"browser_download_url"`
	Size          int64     `json:"size"`
	ContentType   string    `json:"content_type"`
	DownloadCount int64     `json:"download_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DownloadResult describes a finished asset download.
type DownloadResult struct {
	Bytes       int64
	ContentType string // from the response headers
	Resumed     bool
}
