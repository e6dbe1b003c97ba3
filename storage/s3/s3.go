package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/whisper-srt/logger"
	"github.com/kbukum/whisper-srt/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(cfg storage.Config, _ *logger.Logger) (storage.Storage, error) {
		s3cfg := cfg.S3
		s3cfg.ApplyDefaults()
		if err := s3cfg.Validate(); err != nil {
			return nil, err
		}
		return NewStorage(context.Background(), &s3cfg)
	})
}

var _ storage.Storage = (*Storage)(nil)

// Storage keeps subtitle files in one bucket under an optional key prefix.
type Storage struct {
	client *awss3.Client
	bucket *string
	prefix string
}

// NewStorage resolves credentials the usual AWS way unless static keys are
// configured. A custom Endpoint selects path-style addressing for MinIO and
// other S3-compatible servers.
func NewStorage(ctx context.Context, cfg *storage.S3Config) (*Storage, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		static := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(static))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle || cfg.Endpoint != ""
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// compatible servers reject the newer default checksums
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	})
	return &Storage{client: client, bucket: aws.String(cfg.Bucket), prefix: cfg.Prefix}, nil
}

func (s *Storage) key(p string) *string {
	if s.prefix != "" {
		p = path.Join(s.prefix, p)
	}
	return aws.String(p)
}

func (s *Storage) Upload(ctx context.Context, p string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      s.bucket,
		Key:         s.key(p),
		Body:        r,
		ContentType: aws.String(contentType(p)),
	})
	return wrap("put", p, err)
}

func (s *Storage) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{Bucket: s.bucket, Key: s.key(p)})
	if err != nil {
		return nil, wrap("get", p, err)
	}
	return out.Body, nil
}

// Delete succeeds for missing keys, as S3 itself does.
func (s *Storage) Delete(ctx context.Context, p string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{Bucket: s.bucket, Key: s.key(p)})
	return wrap("delete", p, err)
}

// Exists reports false only for a missing key. Credential and network
// errors come back as errors so the health probe notices them.
func (s *Storage) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{Bucket: s.bucket, Key: s.key(p)})
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, wrap("head", p, err)
}

func wrap(op, p string, err error) error {
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return fmt.Errorf("%w: %s", storage.ErrNotFound, p)
	}
	return fmt.Errorf("storage: s3 %s %s: %w", op, p, err)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var (
		noKey    *types.NoSuchKey
		notFound *types.NotFound
	)
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}

func contentType(p string) string {
	if path.Ext(p) == ".vtt" {
		return "text/vtt; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}
