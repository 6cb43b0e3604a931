package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	sc "github.com/dmitrijs2005/portfolio/internal/server/config"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// AvatarUploadExpiry bounds the lifetime of a presigned upload URL.
const AvatarUploadExpiry = 15 * time.Minute

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
)

// AvatarUpload tells the client where to PUT the image and what the avatar
// URL will be once it is uploaded.
type AvatarUpload struct {
	UploadURL string    `json:"uploadUrl"`
	Key       string    `json:"key"`
	AvatarURL string    `json:"avatar"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AvatarService issues presigned S3 uploads for profile pictures.
type AvatarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
}

func NewAvatarService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, logger logging.Logger) *AvatarService {
	return &AvatarService{db: db, repomanager: m, config: cfg, logger: logger.With("module", "avatar_service")}
}

func avatarKey(userID string) string {
	return fmt.Sprintf("avatars/%s/%v", userID, uuid.New())
}

func (s *AvatarService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
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
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		// MinIO serves buckets by path
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// objectURL is the path-style URL the object is readable at.
func (s *AvatarService) objectURL(key string) string {
	return strings.TrimRight(s.config.S3BaseEndpoint, "/") + "/" + s.config.S3Bucket + "/" + key
}

// PresignUpload reserves a new object key for userID, stores its URL as the
// avatar and returns a presigned PUT for it.
func (s *AvatarService) PresignUpload(ctx context.Context, userID, contentType string) (*AvatarUpload, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, common.NewValidationError("Avatar must be an image")
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating presign client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := avatarKey(userID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(AvatarUploadExpiry))
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}

	avatar := s.objectURL(key)
	if _, err := s.repomanager.Users(s.db).Update(ctx, userID, models.UserUpdate{Avatar: &avatar}); err != nil {
		return nil, fmt.Errorf("error saving avatar: %w", err)
	}

	s.logger.Info(ctx, "avatar upload presigned", "user_id", userID, "key", key)
	return &AvatarUpload{
		UploadURL: req.URL,
		Key:       key,
		AvatarURL: avatar,
		ExpiresAt: time.Now().Add(AvatarUploadExpiry),
	}, nil
}
