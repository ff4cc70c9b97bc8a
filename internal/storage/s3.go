package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures an S3-compatible backend (Cloudflare R2, MinIO, or
// AWS S3 itself — anything reachable through a custom endpoint).
type S3Config struct {
	AccountID       string
	Endpoint        string // overrides the R2-shaped endpoint when set
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

// S3Client implements Client against an S3-compatible object store.
type S3Client struct {
	s3Client   *s3.Client
	bucketName string
	publicURL  string
}

// NewS3Client builds an S3Client. When cfg.Endpoint is empty, the endpoint
// defaults to the Cloudflare R2 shape for cfg.AccountID.
func NewS3Client(ctx context.Context, cfg S3Config) (*S3Client, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" {
		return nil, fmt.Errorf("storage: S3 configuration incomplete")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.AccountID == "" {
			return nil, fmt.Errorf("storage: either endpoint or accountID is required")
		}
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to load AWS config: %w", err)
	}

	return &S3Client{
		s3Client:   s3.NewFromConfig(awsCfg),
		bucketName: cfg.BucketName,
		publicURL:  cfg.PublicURL,
	}, nil
}

// Put uploads the artifact and returns its public URL.
func (c *S3Client) Put(ctx context.Context, jobID string, kind Kind, body io.Reader, contentType string) (string, error) {
	key := objectKey(jobID, kind)
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage: failed to upload %s: %w", key, err)
	}
	return c.publicURLFor(key), nil
}

func (c *S3Client) publicURLFor(key string) string {
	if c.publicURL != "" {
		return fmt.Sprintf("%s/%s", c.publicURL, key)
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com/%s", c.bucketName, key)
}
