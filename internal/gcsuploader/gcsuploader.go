// Package gcsuploader stores receipt and odometer images in Google Cloud
// Storage and serves them back to the dashboard via signed URLs.
package gcsuploader

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// ObjectStore is the storage surface the handlers and the worker depend
// on; it exists so tests can run without a GCS client.
type ObjectStore interface {
	// UploadBytes writes data under objectName and returns the gs:// URI.
	UploadBytes(ctx context.Context, objectName, contentType string, data []byte) (string, error)

	// Fetch downloads the bytes behind a gs:// URI.
	Fetch(ctx context.Context, gcsURI string) ([]byte, error)

	// SignedDownloadURL returns a short-lived signed GET URL for an object.
	SignedDownloadURL(ctx context.Context, objectName string) (string, error)
}

// Client implements ObjectStore against a single bucket, assuming
// application default credentials.
type Client struct {
	bucket string
}

// NewClient creates a storage client for the given bucket.
func NewClient(bucket string) *Client {
	return &Client{bucket: bucket}
}

// UploadBytes implements ObjectStore.
func (c *Client) UploadBytes(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("UploadBytes: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(c.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("UploadBytes: writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("UploadBytes: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", c.bucket, objectName), nil
}

// Fetch implements ObjectStore.
func (c *Client) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := splitGCSURI(gcsURI)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: create storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}

	return data, nil
}

// SignedDownloadURL implements ObjectStore using V4 signing.
func (c *Client) SignedDownloadURL(ctx context.Context, objectName string) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("SignedDownloadURL: create storage client: %w", err)
	}
	defer client.Close()

	url, err := client.Bucket(c.bucket).SignedURL(objectName, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(15 * time.Minute),
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("SignedDownloadURL: signing: %w", err)
	}

	return url, nil
}

// splitGCSURI splits "gs://bucket/path/to/file" into bucket and object
// path.
func splitGCSURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}

	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}

	return parts[0], parts[1], nil
}

// FilenameFromURI extracts the filename from a GCS URI, e.g.
// "gs://bucket/folder/receipt.jpg" → "receipt.jpg".
func FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

var _ ObjectStore = (*Client)(nil)
