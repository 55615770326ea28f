package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AttachmentStore persists attachment blobs keyed by an opaque storage key.
type AttachmentStore interface {
	Save(reader io.Reader, originalName string) (key string, err error)
	Open(key string) (io.ReadCloser, error)
	Remove(key string) error
}

type fsStore struct {
	dir string
}

// NewFSStore creates a filesystem-backed store rooted at dir.
func NewFSStore(dir string) (AttachmentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("attachment dir: %w", err)
	}
	return &fsStore{dir: dir}, nil
}

func (s *fsStore) Save(reader io.Reader, originalName string) (string, error) {
	key := uuid.NewString() + sanitizeExt(originalName)
	f, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, reader); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return key, nil
}

func (s *fsStore) Open(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.dir, filepath.Base(key)))
}

func (s *fsStore) Remove(key string) error {
	return os.Remove(filepath.Join(s.dir, filepath.Base(key)))
}

// sanitizeExt keeps a short, safe extension so stored files stay previewable.
func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) == 0 || len(ext) > 8 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
