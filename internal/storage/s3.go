package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage uploads public-read objects and returns URLs below
// publicBaseURL (a CloudFront distribution or the bucket endpoint).
type S3Storage struct {
	client        s3API
	bucket        string
	publicBaseURL string
}

func NewS3Storage(ctx context.Context, region string, bucket string, publicBaseURL string) (*S3Storage, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("S3 bucket is required")
	}

	options := make([]func(*awsconfig.LoadOptions) error, 0, 1)
	if strings.TrimSpace(region) != "" {
		options = append(options, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	if strings.TrimSpace(publicBaseURL) == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, cfg.Region)
	}
	return newS3Storage(s3.NewFromConfig(cfg), bucket, publicBaseURL), nil
}

func newS3Storage(client s3API, bucket string, publicBaseURL string) *S3Storage {
	return &S3Storage{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (storage *S3Storage) Put(ctx context.Context, key string, contentType string, body []byte) (string, error) {
	_, err := storage.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(storage.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}
	return storage.publicBaseURL + "/" + key, nil
}

func (storage *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := storage.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(storage.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete from S3: %w", err)
	}
	return nil
}

// KeyFromURL recovers the object key from a URL produced by Put.
func (storage *S3Storage) KeyFromURL(url string) (string, bool) {
	prefix := storage.publicBaseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
