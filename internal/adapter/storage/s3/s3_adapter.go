// Package s3 stores image blobs in a MinIO/S3 bucket. The object key doubles
// as the deletion handle handed back to the caller.
package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
	"github.com/mtm-trainworks/listing-engine/internal/platform/logger"
)

type S3Storage struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

func NewS3Storage(endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*S3Storage, error) {
	log.Info("initializing MinIO storage", "endpoint", endpoint, "bucket", bucketName, "use_ssl", useSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	err = client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{})
	if err != nil {
		exists, errBucketExists := client.BucketExists(context.Background(), bucketName)
		if errBucketExists != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", bucketName, err, errBucketExists)
		}
	}

	return &S3Storage{
		client: client,
		bucket: bucketName,
		logger: log,
	}, nil
}

// Store uploads the blob under a fresh key inside folder and returns the
// resolvable URL plus the key as deletion handle.
func (s *S3Storage) Store(ctx context.Context, data []byte, mimeType, folder string) (*domain.StoredBlob, error) {
	objectKey := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), extensionFor(mimeType))

	info, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		s.logger.Error("PutObject failed", "bucket", s.bucket, "key", objectKey, "error", err)
		return nil, fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	fileURL := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey)
	s.logger.Debug("uploaded blob", "key", info.Key, "size", info.Size, "url", fileURL)

	return &domain.StoredBlob{
		URL:         fileURL,
		ExternalRef: objectKey,
		ByteSize:    info.Size,
	}, nil
}

// Delete removes a previously stored blob by its deletion handle.
func (s *S3Storage) Delete(ctx context.Context, externalRef string) error {
	err := s.client.RemoveObject(ctx, s.bucket, externalRef, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove object %s from bucket %s: %w", externalRef, s.bucket, err)
	}
	return nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ""
	}
}
