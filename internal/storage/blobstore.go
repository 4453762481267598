package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound    = errors.New("blob not found")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrMissingFileName = errors.New("file name is required")
	ErrInvalidKey      = errors.New("invalid storage key")
)

// AllowedContentTypes lists the medical record formats accepted for upload
var AllowedContentTypes = map[string]bool{
	"application/pdf":   true,
	"image/png":         true,
	"image/jpeg":        true,
	"image/dicom":       true,
	"application/dicom": true,
	"text/plain":        true,
}

// BlobStore stores opaque file content under generated keys
type BlobStore interface {
	// Put stores content and returns its key; at most maxBytes are accepted
	Put(ctx context.Context, fileName string, r io.Reader, maxBytes int64) (key string, size int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NewKey builds "<uuid>_<sanitized name>"
func NewKey(fileName string) (string, error) {
	base := filepath.Base(strings.TrimSpace(fileName))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", ErrMissingFileName
	}
	base = unsafeChars.ReplaceAllString(base, "_")
	return uuid.NewString() + "_" + base, nil
}

func validKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, `/\`) && key != "." && key != ".."
}

// readLimited reads at most maxBytes, failing with ErrFileTooLarge beyond that
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// LocalBlobStore keeps blobs as files under one directory
type LocalBlobStore struct {
	dir string
}

func NewLocalBlobStore(dir string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalBlobStore{dir: dir}, nil
}

func (s *LocalBlobStore) Put(ctx context.Context, fileName string, r io.Reader, maxBytes int64) (string, int64, error) {
	key, err := NewKey(fileName)
	if err != nil {
		return "", 0, err
	}

	data, err := readLimited(r, maxBytes)
	if err != nil {
		return "", 0, err
	}

	path := filepath.Join(s.dir, key)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", 0, fmt.Errorf("failed to write blob: %w", err)
	}
	return key, int64(len(data)), nil
}

func (s *LocalBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, ErrInvalidKey
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

func (s *LocalBlobStore) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// MemoryBlobStore is an in-memory BlobStore for tests and local runs
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Put(ctx context.Context, fileName string, r io.Reader, maxBytes int64) (string, int64, error) {
	key, err := NewKey(fileName)
	if err != nil {
		return "", 0, err
	}
	data, err := readLimited(r, maxBytes)
	if err != nil {
		return "", 0, err
	}

	s.mu.Lock()
	s.blobs[key] = data
	s.mu.Unlock()
	return key, int64(len(data)), nil
}

func (s *MemoryBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}
