package upload

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config points at the storage service's S3-compatible protocol endpoint.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// S3Strategy uploads through the storage service's S3-compatible protocol.
// It is the last resort in the chain: it bypasses the REST gateway entirely,
// which helps when the gateway rejects every packaging but the bucket itself
// is healthy.
type S3Strategy struct {
	cfg       S3Config
	publicURL func(bucket, path string) string

	// Seams for tests.
	loadConfig func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error)
	newClient  func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client
}

func NewS3Strategy(cfg S3Config, publicURL func(bucket, path string) string) *S3Strategy {
	return &S3Strategy{
		cfg:        cfg,
		publicURL:  publicURL,
		loadConfig: awsconfig.LoadDefaultConfig,
		newClient:  s3.NewFromConfig,
	}
}

func (s *S3Strategy) Name() string { return "s3" }

func (s *S3Strategy) Upload(ctx context.Context, req Request) (string, error) {
	cfg, err := s.loadConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return "", err
	}

	client := s.newClient(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.Endpoint)
		o.UsePathStyle = true
	})

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(req.Bucket),
		Key:         aws.String(req.Path),
		Body:        bytes.NewReader(req.Data),
		ContentType: aws.String(req.ContentType),
	})
	if err != nil {
		return "", err
	}
	return s.publicURL(req.Bucket, req.Path), nil
}
