package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pithecene-io/ferry/iox"
)

// S3Config holds configuration for the AWS S3 backend.
type S3Config struct {
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers.
	// Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not subdomain).
	UsePathStyle bool
	// AccessKeyID and SecretAccessKey select static credentials.
	// Both empty uses the AWS default credential chain.
	AccessKeyID     string
	SecretAccessKey string
}

// Validate checks that the credential pair is complete.
func (c *S3Config) Validate() error {
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return errors.New("S3 access key id and secret access key must be set together")
	}
	return nil
}

// s3API is the subset of *s3.Client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store implements Store on AWS S3.
type S3Store struct {
	client   s3API
	region   string
	endpoint string
}

// NewS3Store creates an S3 store.
// Uses static credentials when configured, otherwise the AWS default
// credential chain (env vars, shared config, IAM role).
func NewS3Store(ctx context.Context, s3cfg S3Config) (*S3Store, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, config.WithRegion(s3cfg.Region))
	}
	if s3cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, WrapInitError(fmt.Errorf("failed to load AWS config: %w", err), "s3")
	}

	var s3Opts []func(*s3.Options)
	if s3cfg.Endpoint != "" {
		endpoint := s3cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if s3cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return newS3StoreWithClient(s3.NewFromConfig(awsConfig, s3Opts...), awsConfig.Region, s3cfg.Endpoint), nil
}

func newS3StoreWithClient(client s3API, region, endpoint string) *S3Store {
	return &S3Store{
		client:   client,
		region:   region,
		endpoint: strings.TrimRight(endpoint, "/"),
	}
}

// Write uploads body with a single PutObject call.
// Progress is reported as the HTTP transport consumes the request body.
func (s *S3Store) Write(ctx context.Context, container, key string, body io.Reader, size int64, opts WriteOptions) (string, error) {
	bucket, objectKey := ObjectKey(container, key)
	if body == nil {
		return "", NewStorageError(ErrUnclassified, "write", bucket+"/"+objectKey, errNilBody)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(objectKey),
		Body:          wrapBody(body, size, opts.Progress),
		ContentLength: aws.Int64(size),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.Visibility == VisibilityPublicRead {
		input.ACL = awstypes.ObjectCannedACLPublicRead
	}

	if _, err := s.client.PutObject(ctx, input, streamingBody...); err != nil {
		return "", WrapWriteError(err, bucket+"/"+objectKey)
	}
	return s.location(bucket, objectKey), nil
}

// streamingBody stops the SDK from reading the body ahead of the send.
// By default it hashes the payload for SigV4 and computes a CRC checksum
// before the request goes out, which would run progress to 100% early.
var streamingBody = []func(*s3.Options){
	s3.WithAPIOptions(v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware),
	func(o *s3.Options) {
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	},
}

// Read fetches the full object body.
func (s *S3Store) Read(ctx context.Context, container, key string) ([]byte, error) {
	bucket, objectKey := ObjectKey(container, key)
	path := bucket + "/" + objectKey

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var noSuchKey *awstypes.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, NewStorageError(ErrNotFound, "read", path, err)
		}
		return nil, WrapReadError(err, path)
	}
	if out.Body == nil {
		return nil, nil
	}
	defer iox.DiscardClose(out.Body)

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, WrapReadError(err, path)
	}
	return data, nil
}

// Close releases store resources.
func (s *S3Store) Close() error {
	return nil
}

// location builds the object URL the way S3 reports it for uploads.
func (s *S3Store) location(bucket, objectKey string) string {
	escaped := (&url.URL{Path: objectKey}).EscapedPath()
	if s.endpoint != "" {
		return s.endpoint + "/" + bucket + "/" + escaped
	}
	if s.region == "" || s.region == "us-east-1" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, escaped)
}

// Verify S3Store implements Store.
var _ Store = (*S3Store)(nil)
