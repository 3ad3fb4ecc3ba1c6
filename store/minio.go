package store

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pithecene-io/ferry/iox"
)

// Upload tuning for the minio backend: 5 MiB parts, one part in flight.
const (
	minioPartSize   = 5 * 1024 * 1024
	minioNumThreads = 1
)

// MinioConfig holds configuration for an S3-compatible endpoint (MinIO, R2, ...).
type MinioConfig struct {
	// Endpoint is host[:port] without scheme (required).
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Validate checks that required minio configuration is present.
func (c *MinioConfig) Validate() error {
	if c.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return errors.New("minio endpoint must be host[:port] without scheme")
	}
	return nil
}

// MinioStore implements Store on any S3-compatible provider via minio-go.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore creates a minio client. No network calls are made.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, WrapInitError(err, "minio")
	}
	return &MinioStore{client: client}, nil
}

// Write streams body to the bucket. The x-amz-acl header carries the
// requested visibility; minio-go reports uploaded bytes through the
// Progress reader.
func (s *MinioStore) Write(ctx context.Context, container, key string, body io.Reader, size int64, opts WriteOptions) (string, error) {
	bucket, objectKey := ObjectKey(container, key)
	if body == nil {
		return "", NewStorageError(ErrUnclassified, "write", bucket+"/"+objectKey, errNilBody)
	}

	putOpts := minio.PutObjectOptions{
		ContentType: opts.ContentType,
		PartSize:    minioPartSize,
		NumThreads:  minioNumThreads,
	}
	if opts.Visibility == VisibilityPublicRead {
		putOpts.UserMetadata = map[string]string{"x-amz-acl": string(VisibilityPublicRead)}
	}
	if opts.Progress != nil {
		putOpts.Progress = &progressSink{total: size, fn: opts.Progress}
	}

	info, err := s.client.PutObject(ctx, bucket, objectKey, body, size, putOpts)
	if err != nil {
		return "", wrapMinioError(err, "write", bucket+"/"+objectKey)
	}
	if info.Location != "" {
		return info.Location, nil
	}
	return s.client.EndpointURL().JoinPath(bucket, objectKey).String(), nil
}

// Read fetches the full object body.
func (s *MinioStore) Read(ctx context.Context, container, key string) ([]byte, error) {
	bucket, objectKey := ObjectKey(container, key)
	path := bucket + "/" + objectKey

	obj, err := s.client.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrapMinioError(err, "read", path)
	}
	defer iox.DiscardClose(obj)

	// GetObject is lazy; the first read surfaces NoSuchKey.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, wrapMinioError(err, "read", path)
	}
	return data, nil
}

// Close releases store resources.
func (s *MinioStore) Close() error {
	return nil
}

// wrapMinioError classifies by S3 error code first, then by message.
func wrapMinioError(err error, op, path string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return NewStorageError(ErrNotFound, op, path, err)
	case "AccessDenied":
		return NewStorageError(ErrAccessDenied, op, path, err)
	case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return NewStorageError(ErrAuth, op, path, err)
	case "SlowDown":
		return NewStorageError(ErrThrottled, op, path, err)
	}
	return NewStorageError(Classify(err), op, path, err)
}

// Verify MinioStore implements Store.
var _ Store = (*MinioStore)(nil)
