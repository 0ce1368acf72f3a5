package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leejason2025/audiostudio/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchiveService copies source audio into S3-compatible storage before
// terminal cleanup removes the local staged copy.
type ArchiveService struct {
	client *minio.Client
	bucket string
}

func NewArchiveService(cfg *config.ArchiveConfig) (*ArchiveService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ArchiveService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// StoreAudio uploads the staged audio file as audio/<job_id><ext>.
func (s *ArchiveService) StoreAudio(ctx context.Context, jobID, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	objectName := "audio/" + jobID + ext

	_, err := s.client.FPutObject(ctx, s.bucket, objectName, path, minio.PutObjectOptions{
		ContentType: audioContentType(ext),
	})
	if err != nil {
		return fmt.Errorf("failed to archive audio: %w", err)
	}

	return nil
}

func audioContentType(ext string) string {
	switch ext {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
