// Package storage 提供 Cloudflare R2 对象存储客户端
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"storymagic-api/internal/config"
	"storymagic-api/pkg/errors"
	"storymagic-api/pkg/metrics"
)

var tracer = otel.Tracer("storage")

// R2Store S3 兼容接口的 R2 客户端
type R2Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewR2Store 创建 R2 存储客户端
func NewR2Store(ctx context.Context, cfg *config.Config) (*R2Store, error) {
	r2 := cfg.Storage.R2

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			r2.AccessKeyID, r2.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 credentials: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = &endpoint
	})

	return &R2Store{
		client:    client,
		bucket:    r2.Bucket,
		publicURL: strings.TrimRight(r2.PublicURL, "/"),
	}, nil
}

// Upload 上传对象并返回公开访问 URL
func (s *R2Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, span := tracer.Start(ctx, "storage.Upload")
	span.SetAttributes(
		attribute.String("storage.key", key),
		attribute.Int("storage.bytes", len(data)),
	)
	defer span.End()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		span.RecordError(err)
		metrics.StorageUploadTotal.WithLabelValues("error").Inc()
		return "", errors.Wrap(err, errors.CodeStorageError, "failed to upload object")
	}

	metrics.StorageUploadTotal.WithLabelValues("success").Inc()
	return s.publicURL + "/" + key, nil
}

// Delete 删除对象，忽略不存在的键
func (s *R2Store) Delete(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "storage.Delete")
	span.SetAttributes(attribute.String("storage.key", key))
	defer span.End()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, errors.CodeStorageError, "failed to delete object")
	}
	return nil
}
