package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSConfig represents the configuration for GCS
type GCSConfig struct {
	ProjectID       string
	CredentialsFile string
}

// GCSStorage implements the StorageService interface for Google Cloud Storage
type GCSStorage struct {
	client *storage.Client
	config GCSConfig
}

// NewGCSStorage creates a new GCS storage service
func NewGCSStorage(ctx context.Context, config GCSConfig) (StorageService, error) {
	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}
	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSStorage{
		config: config,
		client: storageClient,
	}, nil
}

// Upload uploads a blob to GCS and returns the object name
func (g *GCSStorage) Upload(ctx context.Context, bucket, objectName string, content []byte, contentType string) (string, error) {
	wc := g.client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := io.Copy(wc, bytes.NewReader(content)); err != nil {
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectName, bucket, err)
	}

	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer for object %s: %w", objectName, err)
	}

	return objectName, nil
}

// Download downloads a blob from GCS
func (g *GCSStorage) Download(ctx context.Context, bucket, objectName string) ([]byte, error) {
	rc, err := g.client.Bucket(bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader for object %s in bucket %s: %w", objectName, bucket, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read data for object %s in bucket %s: %w", objectName, bucket, err)
	}
	return data, nil
}

// Delete deletes a blob from GCS and reports whether it existed
func (g *GCSStorage) Delete(ctx context.Context, bucket, objectName string) (bool, error) {
	err := g.client.Bucket(bucket).Object(objectName).Delete(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete object %s from bucket %s: %w", objectName, bucket, err)
	}
	return true, nil
}

// List returns the object names under a prefix
func (g *GCSStorage) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var names []string
	it := g.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s in bucket %s: %w", prefix, bucket, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}
