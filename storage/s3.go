package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store writes to an S3-compatible bucket such as Cloudflare R2.
type S3Store struct {
	client       *s3.Client
	bucket       string
	publicDomain string
}

type S3Config struct {
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint is e.g. https://<account-id>.r2.cloudflarestorage.com
	Endpoint string
	// PublicDomain is the custom domain or r2.dev URL objects are served from.
	PublicDomain string
}

func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.Endpoint)
		o.UsePathStyle = true // required for R2
	})

	return &S3Store{
		client:       client,
		bucket:       c.Bucket,
		publicDomain: strings.TrimRight(c.PublicDomain, "/"),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, objectName, contentType string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(objectName),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("no-cache"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	return s.publicURL(objectName), nil
}

func (s *S3Store) Delete(ctx context.Context, objectNames []string) error {
	var firstErr error
	for _, obj := range objectNames {
		if obj == "" {
			continue
		}
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(obj),
		})
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete %s: %w", obj, err)
		}
	}
	return firstErr
}

func (s *S3Store) publicURL(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicDomain, s.bucket, objectName)
}
