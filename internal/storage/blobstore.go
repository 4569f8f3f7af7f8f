package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxBlobSize is the per-file upload limit.
const MaxBlobSize = 10 << 20

var (
	ErrTooLarge = errors.New("file exceeds the 10MB limit")
	ErrNotImage = errors.New("only image files are allowed")
)

// BlobStore is the opaque media store posts push their images through.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (url, id string, err error)
	Delete(ctx context.Context, id string) error
}

// DiskStore keeps blobs as flat files under a directory served at /uploads/.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *DiskStore) Upload(_ context.Context, data []byte, contentType string) (string, string, error) {
	if err := validateBlob(data, contentType); err != nil {
		return "", "", err
	}

	id := uuid.NewString() + extensionFor(contentType)
	if err := os.WriteFile(filepath.Join(s.dir, id), data, 0o644); err != nil {
		return "", "", fmt.Errorf("writing blob: %w", err)
	}
	return s.baseURL + "/uploads/" + id, id, nil
}

func (s *DiskStore) Delete(_ context.Context, id string) error {
	// Object names are uuid-generated; reject anything path-like.
	if id != filepath.Base(id) {
		return fmt.Errorf("invalid blob id %q", id)
	}
	err := os.Remove(filepath.Join(s.dir, id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func validateBlob(data []byte, contentType string) error {
	if len(data) > MaxBlobSize {
		return ErrTooLarge
	}
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotImage
	}
	return nil
}

func extensionFor(contentType string) string {
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
