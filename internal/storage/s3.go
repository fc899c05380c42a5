// Package storage uploads rendered report documents to an S3-compatible
// object store (Cloudflare R2). All uploads go through the Uploader, which
// wraps the SDK call in a circuit breaker so a storage outage fails fast
// instead of stalling the whole report run.
package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sony/gobreaker/v2"

	"github.com/yizus58/api-zoo/internal/config"
	"github.com/yizus58/api-zoo/internal/types"
)

// ObjectPutter is the slice of the S3 API the Uploader needs, satisfied by
// *s3.Client.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient builds an S3 client pointed at the R2 endpoint for the
// configured account, with path-style addressing and static credentials.
func NewClient(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey.Unmask(), cfg.SecretKey.Unmask(), "")),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamStorage, "failed to build storage client config", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return client, nil
}

// Uploader stores report documents under opaque keys in a single bucket.
type Uploader struct {
	client  ObjectPutter
	bucket  string
	breaker *gobreaker.CircuitBreaker[*s3.PutObjectOutput]
	logger  *slog.Logger
}

// NewUploader creates an Uploader over the given client and bucket.
func NewUploader(client ObjectPutter, bucket string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker[*s3.PutObjectOutput](gobreaker.Settings{
		Name:        "object-storage",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &Uploader{
		client:  client,
		bucket:  bucket,
		breaker: cb,
		logger:  logger,
	}
}

// Upload writes data under key with the given content type and returns the
// key on success. The key is the caller's handle for the mail worker to
// fetch the attachment later; the bytes are never carried in messages.
func (u *Uploader) Upload(ctx context.Context, data []byte, contentType, key string) (string, error) {
	_, err := u.breaker.Execute(func() (*s3.PutObjectOutput, error) {
		return u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return "", types.NewAppError(types.ErrCodeUpstreamStorage,
				"storage circuit breaker is open, upload rejected", err)
		}
		return "", types.NewAppError(types.ErrCodeUpstreamStorage,
			fmt.Sprintf("failed to upload object %q", key), err)
	}

	u.logger.DebugContext(ctx, "object uploaded",
		"bucket", u.bucket, "key", key, "bytes", len(data))
	return key, nil
}

// RandomFileName returns a 32-character hex key for a stored object.
func RandomFileName() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		panic(fmt.Sprintf("storage: reading random bytes: %v", err))
	}
	return hex.EncodeToString(buf)
}
