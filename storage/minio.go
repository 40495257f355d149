package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"audioarchive/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio initializes the MinIO client and makes sure the content
// bucket exists.
func InitMinio(cfg *config.Config) error {
	log.Printf("Connecting to MinIO at %s (bucket %s)...", cfg.MinioEndpoint, cfg.MinioBucket)

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		log.Printf("Created bucket: %s", cfg.MinioBucket)
	}

	minioClient = client
	log.Println("MinIO client initialized successfully.")
	return nil
}

// GetMinioClient returns the MinIO client instance.
func GetMinioClient() *minio.Client {
	return minioClient
}
