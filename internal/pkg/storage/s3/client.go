package s3aws

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"voice-order/internal/pkg/logger"
	"voice-order/internal/pkg/redis"
)

const presignTTL = 24 * time.Hour

type S3Config struct {
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

type S3Client struct {
	Client     *s3.S3
	BucketName string
	redis      redis.IRedis
}

type Is3 interface {
	GetBucketName() string
	UploadFile(ctx context.Context, key string, fileBytes []byte, contentType string) error
	GetPresignedURL(key string) (string, error)
}

func newSession(cfg S3Config) (*session.Session, error) {
	return session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	})
}

func NewS3Client(ctx context.Context, cfg S3Config, bucketName string, redis redis.IRedis) (*S3Client, error) {
	sess, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	s3Client := &S3Client{
		Client:     s3.New(sess),
		BucketName: bucketName,
		redis:      redis,
	}

	exists, err := s3Client.bucketExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := s3Client.createBucket(ctx); err != nil {
			return nil, err
		}
	}

	return s3Client, nil
}

func (s *S3Client) bucketExists(ctx context.Context) (bool, error) {
	_, err := s.Client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.BucketName),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchBucket, "NotFound":
				return false, nil
			}
		}
		return false, err
	}
	return true, nil
}

func (s *S3Client) createBucket(ctx context.Context) error {
	logger.Info.Println("Creating bucket:", s.BucketName)
	_, err := s.Client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.BucketName),
	})
	return err
}

func (s *S3Client) GetBucketName() string {
	return s.BucketName
}

func (s *S3Client) UploadFile(ctx context.Context, key string, fileBytes []byte, contentType string) error {
	_, err := s.Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(fileBytes),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return nil
}

// GetPresignedURL signs a GET for key. URLs are cached in redis for most of
// their lifetime.
func (s *S3Client) GetPresignedURL(key string) (string, error) {
	cacheKey := fmt.Sprintf("s3:%s:%s", s.BucketName, key)
	if s.redis != nil {
		if cached, err := s.redis.Get(cacheKey); err == nil && strings.HasPrefix(cached, "http") {
			return cached, nil
		}
	}

	req, _ := s.Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket:                     aws.String(s.BucketName),
		Key:                        aws.String(key),
		ResponseContentType:        aws.String(ContentTypeFromKey(key)),
		ResponseContentDisposition: aws.String("inline"),
	})

	urlStr, err := req.Presign(presignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	if s.redis != nil {
		if err := s.redis.Set(cacheKey, urlStr, presignTTL-time.Hour); err != nil {
			logger.Warning.Printf("failed to cache presigned URL: %v", err)
		}
	}

	return urlStr, nil
}

var audioContentTypes = map[string]string{
	".wav":  "audio/wav",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

// ContentTypeFromKey maps an object key's extension to an audio mime type.
func ContentTypeFromKey(key string) string {
	if contentType, ok := audioContentTypes[strings.ToLower(filepath.Ext(key))]; ok {
		return contentType
	}
	return "application/octet-stream"
}

// ExtensionFor is the inverse of ContentTypeFromKey.
func ExtensionFor(mimeType string) string {
	for ext, ct := range audioContentTypes {
		if ct == mimeType {
			return ext
		}
	}
	return ".bin"
}

// RecordingKey is where the audio for one session attempt is archived.
func RecordingKey(sessionID string, attempt int, mimeType string) string {
	return fmt.Sprintf("recordings/%s/%d%s", sessionID, attempt, ExtensionFor(mimeType))
}
