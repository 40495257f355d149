package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"audioarchive/config"

	"github.com/minio/minio-go/v7"
)

// ErrObjectExists is returned by Put when the target key is already
// occupied. Uploads never overwrite.
var ErrObjectExists = errors.New("object already exists")

var nonAlphaNumeric = regexp.MustCompile(`[^a-zA-Z0-9_\-\.]`)
var multipleSpaces = regexp.MustCompile(`\s+`)

// AudioStore wraps the MinIO client for the content bucket.
type AudioStore struct {
	client *minio.Client
	cfg    *config.Config
}

// NewAudioStore creates an AudioStore backed by the shared MinIO client.
func NewAudioStore(cfg *config.Config) *AudioStore {
	return &AudioStore{client: GetMinioClient(), cfg: cfg}
}

// Put uploads an object under key. The key must not already exist; a
// conflicting key fails with ErrObjectExists.
func (s *AudioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.client == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	_, err := s.client.StatObject(ctx, s.cfg.MinioBucket, key, minio.StatObjectOptions{})
	if err == nil {
		return fmt.Errorf("key %q: %w", key, ErrObjectExists)
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.Code != "NoSuchKey" {
		return fmt.Errorf("failed to check key %q: %w", key, err)
	}

	_, err = s.client.PutObject(ctx, s.cfg.MinioBucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "max-age=3600",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %q: %w", key, err)
	}
	return nil
}

// Remove deletes the object stored under key.
func (s *AudioStore) Remove(ctx context.Context, key string) error {
	if s.client == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	if err := s.client.RemoveObject(ctx, s.cfg.MinioBucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}

// Get opens the object stored under key for reading.
func (s *AudioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.client == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}
	obj, err := s.client.GetObject(ctx, s.cfg.MinioBucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return obj, nil
}

// PublicURL resolves the retrieval URL for key. When the bucket has a
// public endpoint configured the URL points straight at it; otherwise
// objects are served through this server's /static/ proxy.
func (s *AudioStore) PublicURL(key string) string {
	escaped := url.PathEscape(key)
	if s.cfg.MinioPublicURL != "" {
		return s.cfg.MinioPublicURL + "/" + s.cfg.MinioBucket + "/" + escaped
	}
	return s.cfg.PublicBaseURL + "/static/" + escaped
}

// KeyFromURL derives the storage key from a retrieval URL produced by
// PublicURL: the last path segment, unescaped.
func KeyFromURL(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse file URL %q: %w", fileURL, err)
	}
	key, err := url.PathUnescape(path.Base(u.Path))
	if err != nil {
		return "", fmt.Errorf("failed to unescape key in %q: %w", fileURL, err)
	}
	if key == "" || key == "." || key == "/" {
		return "", fmt.Errorf("no storage key in URL %q", fileURL)
	}
	return key, nil
}

// ObjectKeyForFilename derives a safe storage key from an uploaded
// file's name, keeping the extension.
func ObjectKeyForFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	base = multipleSpaces.ReplaceAllString(strings.TrimSpace(base), "_")
	base = nonAlphaNumeric.ReplaceAllString(base, "")

	maxLength := 150
	if len(base) > maxLength {
		base = base[:maxLength]
	}
	if base == "" {
		base = "untitled"
	}
	if ext == "" {
		ext = ".dat"
	}
	return base + ext
}
