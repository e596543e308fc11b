// Package artifacts persists run diagnostics: failure screenshots, videos and reports.
// Artifacts go to a local directory by default, or to an S3 bucket when one is configured.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kuitang/storefront-e2e/internal/config"
)

// Store persists one artifact and returns where it can be found.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// LocalStore writes artifacts beneath a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore returns a store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

// Put writes data to root/key, creating directories as needed.
func (s *LocalStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("artifacts: create dir for %q: %w", key, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("artifacts: write %q: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("artifacts: rename %q: %w", key, err)
	}
	return path, nil
}

// NewStore picks the S3 store when the profile names a bucket, the local store otherwise.
func NewStore(ctx context.Context, p *config.Profile) (Store, error) {
	if p.ArtifactsBucket == "" {
		return NewLocalStore(p.ArtifactsDir), nil
	}
	return NewS3Store(ctx, S3Config{
		Endpoint:        p.ArtifactsEndpoint,
		Region:          p.ArtifactsRegion,
		AccessKeyID:     strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID")),
		SecretAccessKey: strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY")),
		BucketName:      p.ArtifactsBucket,
		UsePathStyle:    p.ArtifactsEndpoint != "",
	})
}

var keySanitizePattern = regexp.MustCompile(`[^a-zA-Z0-9._ -]+`)

// Key builds "<runID>/<scenario>/<name>.<ext>" with path-unsafe characters replaced.
func Key(runID, scenario, name, ext string) string {
	parts := []string{sanitize(runID), sanitize(scenario), sanitize(name) + "." + strings.TrimPrefix(ext, ".")}
	return strings.Join(parts, "/")
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	s = keySanitizePattern.ReplaceAllString(s, "_")
	s = strings.Trim(s, ". ")
	if s == "" {
		return "unknown"
	}
	return s
}
