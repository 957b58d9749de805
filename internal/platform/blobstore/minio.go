package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore is a BlobStore backed by a MinIO (or any S3-compatible) server.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// MinioConfig holds connection settings for the object storage server.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioStore connects to the object storage server and ensures the bucket
// exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	data, err := readLimited(&meta, content)
	if err != nil {
		return nil, err
	}

	_, err = s.client.PutObject(ctx, s.bucket, meta.ID, bytes.NewReader(data), meta.Size,
		minio.PutObjectOptions{
			ContentType: meta.ContentType,
			UserMetadata: map[string]string{
				"file-name": meta.FileName,
				"hash":      meta.Hash,
			},
		})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", meta.ID, err)
	}

	out := meta
	return &out, nil
}

func (s *MinioStore) Download(ctx context.Context, id string) (io.ReadCloser, *BlobMetadata, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get object %s: %w", id, err)
	}

	// GetObject is lazy; Stat performs the request and surfaces missing keys.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("stat object %s: %w", id, err)
	}

	meta := &BlobMetadata{
		ID:          id,
		FileName:    info.UserMetadata["File-Name"],
		ContentType: info.ContentType,
		Size:        info.Size,
		Hash:        info.UserMetadata["Hash"],
		CreatedAt:   info.LastModified.UTC(),
	}
	return obj, meta, nil
}

func (s *MinioStore) Delete(ctx context.Context, id string) error {
	// StatObject first so deleting a missing blob reports not-found.
	if _, err := s.client.StatObject(ctx, s.bucket, id, minio.StatObjectOptions{}); err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return ErrBlobNotFound
		}
		return fmt.Errorf("stat object %s: %w", id, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", id, err)
	}
	return nil
}

var _ BlobStore = (*MinioStore)(nil)
