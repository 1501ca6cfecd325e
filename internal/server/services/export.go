package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/logging"
	sc "github.com/dominiquedave/Time-Financial/internal/server/config"
	"github.com/dominiquedave/Time-Financial/internal/netx"
	"github.com/google/uuid"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	uploadPresigned = netx.UploadPresigned
)

// ExportService publishes admin exports to S3-compatible object storage and
// hands back a short-lived download link.
type ExportService struct {
	config     *sc.Config
	logger     logging.Logger
	httpClient *http.Client
}

func NewExportService(cfg *sc.Config, logger logging.Logger) *ExportService {
	return &ExportService{
		config:     cfg,
		logger:     logger.With("module", "export"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether a bucket is configured.
func (s *ExportService) Enabled() bool {
	return s.config.S3Enabled()
}

// ExportKey builds a dated, unique object key such as
// exports/leads/2026/10/18/<uuid>.csv.
func ExportKey(now time.Time) string {
	return fmt.Sprintf("exports/leads/%04d/%02d/%02d/%s.csv", now.Year(), now.Month(), now.Day(), uuid.New())
}

func (s *ExportService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// Publish uploads body under key through a presigned PUT and returns a
// presigned GET URL for it.
func (s *ExportService) Publish(ctx context.Context, key, contentType string, body []byte) (string, error) {
	if !s.Enabled() {
		return "", common.ErrExportUnavailable
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket

	put, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}

	if err := uploadPresigned(ctx, s.httpClient, put.URL, contentType, body); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	get, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}

	s.logger.Info(ctx, "export published", "key", key, "bytes", len(body))
	return get.URL, nil
}
