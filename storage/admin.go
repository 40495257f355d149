package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// BucketStats summarizes the content bucket.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// ListObjects returns every object in the content bucket, optionally
// filtered by key prefix.
func (s *AudioStore) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if s.client == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}

	var objects []ObjectInfo
	ch := s.client.ListObjects(ctx, s.cfg.MinioBucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range ch {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
		})
	}
	return objects, nil
}

// Stats walks the bucket and aggregates object count, total size and
// the newest modification time.
func (s *AudioStore) Stats(ctx context.Context) (*BucketStats, error) {
	objects, err := s.ListObjects(ctx, "")
	if err != nil {
		return nil, err
	}

	stats := &BucketStats{}
	for _, o := range objects {
		stats.TotalObjects++
		stats.TotalSize += o.Size
		if o.LastModified.After(stats.LastModified) {
			stats.LastModified = o.LastModified
		}
	}
	return stats, nil
}

// Bucket returns the configured bucket name.
func (s *AudioStore) Bucket() string {
	return s.cfg.MinioBucket
}
