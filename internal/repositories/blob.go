package repositories

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
)

// BlobStore holds thumbnail bytes under flat keys such as "<uuid>.png".
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	// Get returns ErrNotFound for unknown keys.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	// URL is the durable address clients use to fetch the blob.
	URL(key string) string
}

// MediaPath is where the API serves blobs that have no public address of their own.
const MediaPath = "/media/posts/"

var blobKeyRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidBlobKey rejects anything that could escape the blob namespace.
func ValidBlobKey(key string) bool {
	return blobKeyRe.MatchString(key) && filepath.Base(key) == key && key != "." && key != ".."
}

// DiskStore keeps blobs as files in one directory.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: baseURL}, nil
}

func (s *DiskStore) Put(_ context.Context, key, _ string, data []byte) error {
	if !ValidBlobKey(key) {
		return fmt.Errorf("invalid blob key %q", key)
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, key))
}

func (s *DiskStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	if !ValidBlobKey(key) {
		return nil, "", ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return f, contentTypeFor(key), nil
}

func (s *DiskStore) Delete(_ context.Context, key string) error {
	if !ValidBlobKey(key) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *DiskStore) URL(key string) string {
	return s.baseURL + MediaPath + key
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
