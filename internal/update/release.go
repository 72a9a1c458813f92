package update

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hopper/internal/netclient"
)

// ErrNoPackageAsset marks a release without an installable package file.
var ErrNoPackageAsset = errors.New("release has no package asset")

const packageSuffix = ".pkg"

// Release is the published update metadata the daemon can act on.
type Release struct {
	Tag       string
	Commit    string
	Published time.Time
	Body      string
	AssetURL  string
	AssetName string
	AssetSize int64
}

type releaseDocument struct {
	TagName         string `json:"tag_name"`
	TargetCommitish string `json:"target_commitish"`
	PublishedAt     string `json:"published_at"`
	Body            string `json:"body"`
	Assets          []struct {
		Name        string `json:"name"`
		Size        int64  `json:"size"`
		DownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Fetch retrieves the latest release document from endpoint and extracts the
// package asset. A release without a .pkg asset is an error: there is
// nothing the appliance could install from it.
func Fetch(ctx context.Context, client *netclient.Client, endpoint string) (*Release, error) {
	if client == nil {
		return nil, errors.New("network client is required")
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("update endpoint is not configured")
	}

	var doc releaseDocument
	if err := client.GetJSON(ctx, endpoint, &doc); err != nil {
		return nil, fmt.Errorf("fetch release metadata: %w", err)
	}

	release := &Release{
		Tag:    strings.TrimSpace(doc.TagName),
		Commit: strings.TrimSpace(doc.TargetCommitish),
		Body:   doc.Body,
	}
	if release.Tag == "" {
		return nil, errors.New("release metadata has no tag")
	}
	if doc.PublishedAt != "" {
		published, err := time.Parse("2006-01-02T15:04:05Z", doc.PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("parse publish time %q: %w", doc.PublishedAt, err)
		}
		release.Published = published
	}

	for _, asset := range doc.Assets {
		if strings.HasSuffix(strings.ToLower(asset.Name), packageSuffix) {
			release.AssetName = asset.Name
			release.AssetURL = asset.DownloadURL
			release.AssetSize = asset.Size
			break
		}
	}
	if release.AssetURL == "" {
		return nil, fmt.Errorf("%s: %w", release.Tag, ErrNoPackageAsset)
	}
	return release, nil
}
