package services

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/logging"
	sc "github.com/dominiquedave/Time-Financial/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExportService(bucket string) *ExportService {
	return NewExportService(&sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       bucket,
	}, logging.Nop())
}

// stubS3 replaces every S3 seam and restores them when the test ends.
func stubS3(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	origGet := presignGetObject
	origUpload := uploadPresigned
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
		uploadPresigned = origUpload
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "http://s3/put/" + *in.Key}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "http://s3/get/" + *in.Key}, nil
	}
	uploadPresigned = func(ctx context.Context, client *http.Client, url, contentType string, body []byte) error {
		return nil
	}
}

func Test_getPresignClient_AppliesConfig(t *testing.T) {
	stubS3(t)
	svc := newExportService("exports")

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	pc, err := svc.getPresignClient(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, pc)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = svc.getPresignClient(context.Background())
	assert.EqualError(t, err, "load-fail")
}

func TestPublish_Success(t *testing.T) {
	stubS3(t)
	svc := newExportService("exports")

	var uploadedTo, uploadedType string
	var uploaded []byte
	uploadPresigned = func(ctx context.Context, client *http.Client, url, contentType string, body []byte) error {
		uploadedTo, uploadedType, uploaded = url, contentType, body
		return nil
	}

	url, err := svc.Publish(context.Background(), "exports/leads/x.csv", "text/csv", []byte("id\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://s3/get/exports/leads/x.csv", url)
	assert.Equal(t, "http://s3/put/exports/leads/x.csv", uploadedTo)
	assert.Equal(t, "text/csv", uploadedType)
	assert.Equal(t, []byte("id\n"), uploaded)
}

func TestPublish_Disabled(t *testing.T) {
	svc := newExportService("")
	assert.False(t, svc.Enabled())

	_, err := svc.Publish(context.Background(), "k", "text/csv", nil)
	assert.ErrorIs(t, err, common.ErrExportUnavailable)
}

func TestPublish_Errors(t *testing.T) {
	t.Run("presign put", func(t *testing.T) {
		stubS3(t)
		presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
			return nil, errBoom{}
		}
		_, err := newExportService("exports").Publish(context.Background(), "k", "text/csv", nil)
		assert.ErrorContains(t, err, "presign put")
	})

	t.Run("upload", func(t *testing.T) {
		stubS3(t)
		uploadPresigned = func(ctx context.Context, client *http.Client, url, contentType string, body []byte) error {
			return errors.New("403 Forbidden")
		}
		_, err := newExportService("exports").Publish(context.Background(), "k", "text/csv", nil)
		assert.ErrorContains(t, err, "upload: 403")
	})

	t.Run("presign get", func(t *testing.T) {
		stubS3(t)
		presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
			return nil, errBoom{}
		}
		_, err := newExportService("exports").Publish(context.Background(), "k", "text/csv", nil)
		assert.ErrorContains(t, err, "presign get")
	})
}

func TestExportKey(t *testing.T) {
	key := ExportKey(time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^exports/leads/2026/03/07/[0-9a-f-]{36}\.csv$`), key)
}
