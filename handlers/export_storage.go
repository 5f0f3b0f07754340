package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
)

// ExportStorage keeps generated schedule exports.
type ExportStorage interface {
	// Save stores data under name and returns where it can be fetched.
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// LocalExportStorage writes exports to a directory on disk.
type LocalExportStorage struct {
	Dir string
}

func (l LocalExportStorage) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	// Ensure export directory exists
	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(l.Dir, filepath.Base(name))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return "/exports/" + filepath.Base(name), nil
}

// GCSExportStorage uploads exports to a Cloud Storage bucket.
type GCSExportStorage struct {
	client *storage.Client
	bucket string
}

// NewGCSExportStorage uses application default credentials.
func NewGCSExportStorage(ctx context.Context, bucket string) (*GCSExportStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSExportStorage{client: client, bucket: bucket}, nil
}

func (g *GCSExportStorage) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	obj := g.client.Bucket(g.bucket).Object("exports/" + name)
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload export: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, obj.ObjectName()), nil
}

// Close releases the storage client.
func (g *GCSExportStorage) Close() error {
	return g.client.Close()
}
