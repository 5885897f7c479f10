package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/huangang/tripplanner/internal/config"
	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/response"
)

var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ObjectPutter is the subset of the S3 client used for uploads
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// AvatarStorage uploads profile pictures to an S3 bucket
type AvatarStorage struct {
	client  ObjectPutter
	cfg     config.StorageConfig
	baseURL string
}

// NewAvatarStorage builds an S3 client from the default AWS credential chain.
// A custom endpoint switches to path-style addressing for S3-compatible stores.
func NewAvatarStorage(ctx context.Context, cfg config.StorageConfig) (*AvatarStorage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewAvatarStorageWithClient(client, cfg), nil
}

func NewAvatarStorageWithClient(client ObjectPutter, cfg config.StorageConfig) *AvatarStorage {
	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		switch {
		case cfg.Endpoint != "":
			baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		default:
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return &AvatarStorage{client: client, cfg: cfg, baseURL: baseURL}
}

// MaxBytes is the upload limit enforced by the handler
func (s *AvatarStorage) MaxBytes() int64 {
	if s.cfg.MaxUploadMB <= 0 {
		return 5 << 20
	}
	return s.cfg.MaxUploadMB << 20
}

// Put stores body under a fresh key and returns its public URL
func (s *AvatarStorage) Put(ctx context.Context, userID uint, contentType string, body io.Reader) (string, error) {
	ext, ok := avatarExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", response.NewBadRequest("avatar must be a JPEG, PNG, GIF or WebP image")
	}

	key := fmt.Sprintf("avatars/%d/%s.%s", userID, uuid.NewString(), ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// UploadAvatar stores the image and records its URL on the user
func (s *UserService) UploadAvatar(ctx context.Context, storage *AvatarStorage, userID uint, contentType string, body io.Reader) (*models.User, error) {
	if storage == nil {
		return nil, response.NewBadRequest("avatar uploads are not enabled")
	}
	if _, err := requireActiveUser(s.db, userID); err != nil {
		return nil, err
	}
	url, err := storage.Put(ctx, userID, contentType, body)
	if err != nil {
		return nil, err
	}
	return s.SetAvatar(userID, url)
}
