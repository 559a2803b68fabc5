package blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/voyagr/travelstory/internal/observability"
)

type S3Config struct {
	Endpoint  string // empty for real AWS, set for MinIO-style deployments
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string

	// BaseURL is the public prefix objects are served under. The bucket is
	// never exposed directly: something at BaseURL (CDN, reverse proxy,
	// MinIO gateway) must route <BaseURL>/uploads/<key> to the bucket key,
	// so PUBLIC_BASE_URL has to point at that front, not at this process.
	BaseURL string
}

// S3Store keeps uploads in an S3-compatible bucket behind the same Store
// contract as the disk backend.
type S3Store struct {
	client *s3.Client
	bucket string
	base   string
	log    *slog.Logger
	prom   *observability.Prom
}

func NewS3Store(ctx context.Context, cfg S3Config, log *slog.Logger, prom *observability.Prom) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		base:   strings.TrimSuffix(cfg.BaseURL, "/"),
		log:    log,
		prom:   prom,
	}, nil
}

func (s *S3Store) Store(ctx context.Context, data []byte, originalName string) (string, error) {
	name, err := newAssetName(data, originalName)
	if err != nil {
		return "", err
	}

	contentType := mimetype.Detect(data).String()

	err = s.prom.ObserveBlob("store", func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(name),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return s.base + "/uploads/" + name, nil
}

// Delete removes the object behind assetRef. S3 deletes are idempotent
// already ("already gone" is a success); other failures are logged and
// swallowed per the best-effort contract.
func (s *S3Store) Delete(ctx context.Context, assetRef string) {
	key := path.Base(assetRef)

	if key == "." || key == "/" || key == "" {
		return
	}

	_ = s.prom.ObserveBlob("delete", func() error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})

		if err != nil {
			s.log.WarnContext(ctx, "failed to delete image object", "asset", key, "err", err)
		}

		return err
	})
}
