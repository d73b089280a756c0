// Package chartstore persists analyzed chart screenshots in the project's
// storage bucket. Uploads are best-effort: a verdict is still returned when
// the bucket write fails, the history row just has no image URL.
package chartstore

import (
	"context"
	"fmt"
	"time"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go"
)

// Uploader writes one chart image and returns its public URL. Tests and
// bucket-less deployments use NopUploader.
type Uploader interface {
	Upload(ctx context.Context, userID string, image []byte, mimeType string) (string, error)
}

// BucketStore uploads to a GCS bucket through the Firebase app.
type BucketStore struct {
	bucket *gcs.BucketHandle
	name   string
	now    func() time.Time
}

// NewBucketStore resolves the named bucket from the Firebase app.
func NewBucketStore(ctx context.Context, app *firebase.App, bucketName string) (*BucketStore, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("chartstore: storage client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("chartstore: bucket %s: %w", bucketName, err)
	}
	return &BucketStore{bucket: bucket, name: bucketName, now: time.Now}, nil
}

// Upload stores the image at {userID}/{unixMillis}.{ext} and returns the
// public object URL.
func (s *BucketStore) Upload(ctx context.Context, userID string, image []byte, mimeType string) (string, error) {
	path := fmt.Sprintf("%s/%d.%s", userID, s.now().UnixMilli(), extension(mimeType))

	w := s.bucket.Object(path).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := w.Write(image); err != nil {
		w.Close()
		return "", fmt.Errorf("chartstore: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("chartstore: close %s: %w", path, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.name, path), nil
}

// extension maps the allow-listed MIME types to file extensions. Validation
// happened upstream; anything unexpected falls back to png.
func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}

// NopUploader disables chart persistence. Upload returns an empty URL.
type NopUploader struct{}

func (NopUploader) Upload(context.Context, string, []byte, string) (string, error) {
	return "", nil
}
