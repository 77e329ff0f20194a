package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
)

const DefaultPresignTTL = time.Hour

var ErrBucketRequired = errors.New("bucket name is required")

type ItfS3 interface {
	// UploadObject stores body under key and returns a presigned GET URL.
	UploadObject(ctx context.Context, key string, body []byte, contentType string) (string, error)
	PresignUrl(key string) (string, error)
}

type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO. Path style
	// addressing is used whenever it is set.
	Endpoint   string
	PresignTTL time.Duration
}

type s3Client struct {
	client     *s3.S3
	uploader   *s3manager.Uploader
	bucketName string
	presignTTL time.Duration
}

func New(cfg Config) (ItfS3, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketRequired
	}

	sess, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}

	return &s3Client{
		client:     s3.New(sess),
		uploader:   s3manager.NewUploader(sess),
		bucketName: cfg.Bucket,
		presignTTL: ttl,
	}, nil
}

// NewObjectKey returns a random key under prefix with the given extension.
func NewObjectKey(prefix, ext string) string {
	key := uuid.NewString()
	if ext != "" {
		key += "." + strings.TrimPrefix(ext, ".")
	}
	if prefix != "" {
		key = strings.TrimSuffix(prefix, "/") + "/" + key
	}
	return key
}

func (s *s3Client) UploadObject(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return s.PresignUrl(key)
}

func (s *s3Client) PresignUrl(key string) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	urlStr, err := req.Presign(s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}

	return urlStr, nil
}

func newSession(cfg Config) (*session.Session, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	return session.NewSession(awsCfg)
}
