package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"placement/internal/config"
)

type S3Sink struct {
	client  *s3.S3
	limiter *RateLimiter
}

func NewS3Sink(cfg config.Config) (*S3Sink, error) {
	if err := cfg.Require("AWS_REGION", cfg.AWSRegion); err != nil {
		return nil, err
	}

	awsCfg := &aws.Config{
		Region:     aws.String(cfg.AWSRegion),
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.S3TimeoutMs) * time.Millisecond},
	}
	if cfg.AWSAccessKeyID != "" || cfg.AWSSecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AWSAccessKeyID, cfg.AWSSecretKey, cfg.AWSSessionToken)
	}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
	}
	if cfg.S3ForcePathStyle {
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	return &S3Sink{
		client:  s3.New(sess),
		limiter: NewRateLimiter(cfg.S3PutRateLimitRPS),
	}, nil
}

func (s *S3Sink) Put(ctx context.Context, bucket, key string, body []byte) error {
	if err := s.limiter.WaitTurn(ctx); err != nil {
		return &StorageError{Op: "put", Bucket: bucket, Key: key, Err: err}
	}

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType(key)),
	})
	if err != nil {
		return &StorageError{Op: "put", Bucket: bucket, Key: key, Err: err}
	}
	return nil
}

func (s *S3Sink) ListCommonPrefixes(ctx context.Context, bucket, prefix, delimiter string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String(delimiter),
	}

	out := []string{}
	err := s.client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, cp := range page.CommonPrefixes {
			if cp == nil || cp.Prefix == nil {
				continue
			}
			out = append(out, *cp.Prefix)
		}
		return true
	})
	if err != nil {
		return []string{}, &StorageError{Op: "list", Bucket: bucket, Key: prefix, Err: err}
	}
	return out, nil
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
