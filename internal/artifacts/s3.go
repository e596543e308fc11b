package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrObjectNotFound is returned when a requested artifact does not exist.
var ErrObjectNotFound = errors.New("artifacts: object not found")

// S3Store uploads artifacts to an S3-compatible bucket.
type S3Store struct {
	s3Client   *s3.Client
	bucketName string
}

// S3Config holds the configuration for creating an S3 store.
type S3Config struct {
	// Endpoint is the S3 endpoint URL. Leave empty to use AWS S3.
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	// UsePathStyle is required by most S3-compatible services and by gofakes3.
	UsePathStyle bool
}

// NewS3Store creates a store with the given configuration.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3StoreFromClient(s3Client, cfg.BucketName), nil
}

// NewS3StoreFromClient wraps an existing S3 client.
func NewS3StoreFromClient(s3Client *s3.Client, bucketName string) *S3Store {
	return &S3Store{
		s3Client:   s3Client,
		bucketName: bucketName,
	}
}

// Put uploads data under key and returns an s3:// location.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("artifacts: failed to put object %q: %w", key, err)
	}
	return "s3://" + s.bucketName + "/" + key, nil
}

// Get downloads the artifact stored under key.
// Returns ErrObjectNotFound if the key does not exist.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrObjectNotFound
		}
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("artifacts: failed to get object %q: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("artifacts: failed to read object body %q: %w", key, err)
	}
	return data, nil
}

// BucketName returns the configured bucket name.
func (s *S3Store) BucketName() string {
	return s.bucketName
}
