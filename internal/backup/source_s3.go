package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"subtrack/internal/config"
)

// S3Source fetches a snapshot document from an S3 object. Credentials come
// from the backup config when set, otherwise from the ambient AWS credential
// chain.
type S3Source struct {
	bucket string
	key    string
	cfg    config.BackupConfig
}

var _ SnapshotSource = (*S3Source)(nil)

// NewS3Source creates a source for s3://bucket/key.
func NewS3Source(bucket, key string, cfg config.BackupConfig) *S3Source {
	return &S3Source{bucket: bucket, key: key, cfg: cfg}
}

func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if s.cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(s.cfg.S3Region))
	}
	if s.cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.S3AccessKey, s.cfg.S3SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	downloader := manager.NewDownloader(client)

	buf := manager.NewWriteAtBuffer(nil)
	_, err = downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("downloading s3://%s/%s: %w", s.bucket, s.key, err)
	}

	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}
