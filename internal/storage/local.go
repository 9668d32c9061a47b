package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader stores objects on the local filesystem. Development fallback
// when no bucket is configured; objects are served back as static files.
type LocalUploader struct {
	dir           string
	publicBaseURL string
}

// NewLocalUploader creates an uploader rooted at dir. Uploaded keys resolve to
// publicBaseURL + "/" + key.
func NewLocalUploader(dir, publicBaseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalUploader{
		dir:           dir,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

// Dir returns the root directory objects are stored under.
func (u *LocalUploader) Dir() string {
	return u.dir
}

// Upload writes data under key and returns its public URL.
func (u *LocalUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	path := filepath.Join(u.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return u.publicBaseURL + "/" + key, nil
}

// Delete removes an object. Missing objects are not an error.
func (u *LocalUploader) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(u.dir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
