// Package storage keeps uploaded resumes in a gocloud blob bucket.
package storage

import (
	"context"
	"io"
	"log/slog"

	"leadintake/config"
	"leadintake/internal/domain/repository"
	"leadintake/internal/domain/service"
	"leadintake/internal/errors"

	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/gcsblob"  // gs:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	_ "gocloud.dev/blob/s3blob"   // s3:// buckets
	"gocloud.dev/gcerrors"
)

const defaultBucketURL = "mem://"

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

type blobStorage struct {
	bucket *blob.Bucket
}

// New opens the configured bucket. The scheme of storage.bucketURL picks the driver.
func New(params Params) (service.ResumeStorage, error) {
	bucketURL := defaultBucketURL
	if params.Config.Storage != nil && params.Config.Storage.BucketURL != "" {
		bucketURL = params.Config.Storage.BucketURL
	}

	bucket, err := blob.OpenBucket(context.Background(), bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open resume bucket %q", bucketURL)
	}

	params.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return bucket.Close()
		},
	})

	params.Logger.Info("Resume storage ready", slog.String("bucket", bucketURL))

	return NewWithBucket(bucket), nil
}

// NewWithBucket wraps an already open bucket. The caller closes it.
func NewWithBucket(bucket *blob.Bucket) service.ResumeStorage {
	return &blobStorage{bucket: bucket}
}

func (s *blobStorage) Save(ctx context.Context, key string, content io.Reader, contentType string) (int64, error) {
	// Cancelling the writer's context before Close discards a partial upload.
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := s.bucket.NewWriter(writeCtx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return 0, errors.Wrapf(err, "open writer for %q", key)
	}

	n, err := io.Copy(w, content)
	if err != nil {
		cancel()
		_ = w.Close()

		return 0, errors.Wrapf(err, "write %q", key)
	}

	if err := w.Close(); err != nil {
		return 0, errors.Wrapf(err, "commit %q", key)
	}

	return n, nil
}

func (s *blobStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, errors.Wrapf(repository.ErrNotFound, "resume %q", key)
		}

		return nil, errors.Wrapf(err, "open %q", key)
	}

	return r, nil
}
