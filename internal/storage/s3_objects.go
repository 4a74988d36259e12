package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Akxssh/property-salahe/internal/backend"
	"github.com/Akxssh/property-salahe/internal/config"
	"github.com/Akxssh/property-salahe/internal/utils"
)

// ObjectAPI is the subset of the S3 client used here.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// UploadHook runs after an object has been stored. key is the full S3 object key.
type UploadHook func(ctx context.Context, key string)

// S3Objects implements backend.Objects on a single S3 bucket. Logical buckets become
// key prefixes, so "property-images/123-a.png" is the key for name "123-a.png".
type S3Objects struct {
	client  ObjectAPI
	bucket  string
	baseURL string
	onStore []UploadHook
}

var _ backend.Objects = (*S3Objects)(nil)

// NewS3Client builds an S3 client from config. A custom endpoint (MinIO and friends)
// switches to path-style addressing.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	opts := []func(*aws_config.LoadOptions) error{
		aws_config.WithRegion(cfg.AwsRegion),
	}
	if cfg.AwsAccessKeyID != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)))
	}

	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if cfg.AwsS3Endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.AwsS3Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3opts...), nil
}

// NewS3Objects creates an object store in bucket. Public URLs are built from baseURL,
// or from the standard virtual-hosted S3 address when baseURL is empty.
func NewS3Objects(client ObjectAPI, bucket, region, baseURL string) *S3Objects {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Objects{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// OnStore registers a hook run after every successful upload.
func (s *S3Objects) OnStore(hook UploadHook) {
	s.onStore = append(s.onStore, hook)
}

// Bucket is the physical S3 bucket.
func (s *S3Objects) Bucket() string {
	return s.bucket
}

// ObjectKey maps a logical bucket and object path to the S3 key.
func ObjectKey(bucket, path string) string {
	return bucket + "/" + strings.TrimLeft(path, "/")
}

func (s *S3Objects) Upload(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) (string, error) {
	key := ObjectKey(bucket, name)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to store object %s: %w", key, err)
	}
	utils.Logger.WithField("key", key).Debug("Stored object")

	for _, hook := range s.onStore {
		hook(ctx, key)
	}
	return name, nil
}

func (s *S3Objects) PublicURL(bucket, path string) string {
	parts := strings.Split(ObjectKey(bucket, path), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/" + strings.Join(parts, "/")
}
