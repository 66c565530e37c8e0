package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Bucket() string
}

// UploadOptions controls where an uploaded object is stored.
type UploadOptions struct {
	// Folder is used with a generated name when PublicID is empty.
	Folder string

	// PublicID, when set, is the exact key to write; an existing object is replaced.
	PublicID string

	Body        io.Reader
	Size        int64
	ContentType string
}

// Asset describes a stored object.
type Asset struct {
	SecureURL string
	PublicID  string
}

// Storage wraps an ObjectStorage backend with an upload/destroy API.
type Storage struct {
	backend       ObjectStorage
	publicBaseURL string
}

// NewStorage constructs a Storage wrapper for the provided backend.
// When publicBaseURL is empty, URLs come from the backend.
func NewStorage(backend ObjectStorage, publicBaseURL string) *Storage {
	return &Storage{
		backend:       backend,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Upload writes the object and returns its public id and URL.
func (s *Storage) Upload(ctx context.Context, opts UploadOptions) (Asset, error) {
	if opts.Body == nil {
		return Asset{}, errors.New("upload body is required")
	}

	key := cleanKey(opts.PublicID)
	if key == "" {
		key = joinKey(opts.Folder, uuid.NewString())
	}

	if err := s.backend.Put(ctx, key, opts.Body, opts.Size, opts.ContentType); err != nil {
		return Asset{}, err
	}
	return Asset{SecureURL: s.url(key), PublicID: key}, nil
}

// Destroy removes the object stored under publicID.
func (s *Storage) Destroy(ctx context.Context, publicID string) error {
	key := cleanKey(publicID)
	if key == "" {
		return errors.New("public id is required")
	}
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

func (s *Storage) url(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return s.backend.URL(key)
}

func cleanKey(key string) string {
	return strings.Trim(strings.TrimSpace(key), "/")
}

func joinKey(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = cleanKey(part); part != "" {
			cleaned = append(cleaned, part)
		}
	}
	return strings.Join(cleaned, "/")
}
