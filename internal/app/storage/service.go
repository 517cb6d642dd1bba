package storage

import (
	"context"
	"time"
)

// ServiceConfig holds the configuration required to connect to the clip storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// ClipStorage defines the public interface for the voice clip storage service.
// Clips are uploaded and downloaded directly by clients through pre-signed URLs;
// the server never proxies clip bytes.
type ClipStorage interface {
	// PresignUpload generates a pre-signed URL for uploading a voice clip.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		clipSize int64,
		duration time.Duration,
	) (string, error)

	// PresignDownload generates a pre-signed URL for downloading a voice clip.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// GetClipMetadata retrieves the stored clip's metadata.
	GetClipMetadata(ctx context.Context, key string) (map[string]string, error)
}

// NewClipStorage is the factory function for ClipStorage.
// It initializes and returns a concrete implementation based on the provided configuration.
func NewClipStorage(cfg ServiceConfig) (ClipStorage, error) {
	// Currently, only S3 compatible implementations are supported.
	return newS3Client(cfg)
}
