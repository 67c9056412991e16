package storage

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"accmarket/pkg/errors"
	"accmarket/pkg/logger"
)

const (
	MaxImageSize = 5 << 20
	publicHost   = "https://storage.googleapis.com/"
)

// imageTypes maps the accepted content types to the extension used for the
// object name.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore keeps listing, avatar and cover images in a public bucket.
type ImageStore struct {
	client     *storage.Client
	bucketName string
	now        func() time.Time
}

func NewImageStore(ctx context.Context, bucketName string, opts ...option.ClientOption) (*ImageStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	store := &ImageStore{
		client:     client,
		bucketName: bucketName,
		now:        time.Now,
	}
	if err := store.ensureCORS(ctx); err != nil {
		logger.Warn("Failed to set CORS on bucket %s: %v", bucketName, err)
	}
	return store, nil
}

// ensureCORS lets browsers load images straight from the bucket.
func (s *ImageStore) ensureCORS(ctx context.Context) error {
	bucket := s.client.Bucket(s.bucketName)
	attrs, err := bucket.Attrs(ctx)
	if err != nil {
		return err
	}
	if len(attrs.CORS) > 0 {
		return nil
	}
	_, err = bucket.Update(ctx, storage.BucketAttrsToUpdate{
		CORS: []storage.CORS{{
			MaxAge:          time.Hour,
			Methods:         []string{"GET", "HEAD"},
			Origins:         []string{"*"},
			ResponseHeaders: []string{"Content-Type"},
		}},
	})
	return err
}

// Upload sniffs the content, rejects anything that is not a supported image
// and returns the public URL of the stored object.
func (s *ImageStore) Upload(ctx context.Context, file io.Reader, folder string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return "", errors.BadRequest("Failed to read upload", err)
	}
	contentType, ext, err := DetectImage(data)
	if err != nil {
		return "", err
	}

	name := ObjectName(folder, ext, s.now())
	wc := s.client.Bucket(s.bucketName).Object(name).NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		wc.Close()
		return "", errors.Internal("Failed to store image", err)
	}
	if err := wc.Close(); err != nil {
		return "", errors.Internal("Failed to store image", err)
	}
	return publicHost + s.bucketName + "/" + name, nil
}

// Delete removes an object previously returned by Upload.
func (s *ImageStore) Delete(ctx context.Context, fileURL string) error {
	prefix := publicHost + s.bucketName + "/"
	if !strings.HasPrefix(fileURL, prefix) {
		return errors.BadRequest("URL does not belong to this bucket", nil)
	}
	if err := s.client.Bucket(s.bucketName).Object(fileURL[len(prefix):]).Delete(ctx); err != nil {
		if stderrors.Is(err, storage.ErrObjectNotExist) {
			return errors.NotFound("Image", err)
		}
		return errors.Internal("Failed to delete image", err)
	}
	return nil
}

func (s *ImageStore) Close() error {
	return s.client.Close()
}

// DetectImage checks size and sniffed type. The client-declared type is
// never trusted.
func DetectImage(data []byte) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", errors.Validation("file", "file is empty")
	}
	if len(data) > MaxImageSize {
		return "", "", errors.Validation("file", fmt.Sprintf("file must be at most %d MB", MaxImageSize>>20))
	}
	mtype := mimetype.Detect(data)
	for t, e := range imageTypes {
		if mtype.Is(t) {
			return t, e, nil
		}
	}
	return "", "", errors.Validation("file", fmt.Sprintf("unsupported file type %s", mtype.String()))
}

// ObjectName builds a unique object path under folder.
func ObjectName(folder, ext string, at time.Time) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return fmt.Sprintf("public/%s/%s-%s%s", folder, at.UTC().Format("20060102150405"), uuid.NewString(), ext)
}
