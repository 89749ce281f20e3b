package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GetGCSClient initializes a Google Cloud Storage client.
func GetGCSClient(ctx context.Context) (*storage.Client, error) {
	// Prefer ADC (service account / GOOGLE_APPLICATION_CREDENTIALS).
	// If you need to provide explicit JSON (e.g. locally), set GCS_CREDENTIALS_JSON.
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

// ErrObjectNotFound is returned by ReadGCSObject when the object does not exist.
var ErrObjectNotFound = errors.New("gcs object not found")

// ReadGCSObject downloads bucket/objectName fully into memory.
func ReadGCSObject(ctx context.Context, client *storage.Client, bucketName, objectName string) ([]byte, error) {
	if client == nil {
		return nil, errors.New("gcs client is nil")
	}
	if bucketName == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	rc, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, bucketName, objectName)
		}
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
