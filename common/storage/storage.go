package storage

import (
	"context"
)

// StorageService defines the interface for blob storage operations
type StorageService interface {
	// Upload uploads a blob and returns the object name
	Upload(ctx context.Context, bucket, objectName string, content []byte, contentType string) (string, error)

	// Download downloads a blob
	Download(ctx context.Context, bucket, objectName string) ([]byte, error)

	// Delete deletes a blob and reports whether it existed
	Delete(ctx context.Context, bucket, objectName string) (bool, error)

	// List returns the object names under a prefix
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}
