package image

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

// MinIOStore adapts a MinIO client to the gateway's store interface.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore wraps an initialized client for a single bucket.
func NewMinIOStore(client *minio.Client, bucket string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket}
}

func (m *MinIOStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string, metadata map[string]string) (string, error) {
	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return "", err
	}
	return info.ETag, nil
}

func (m *MinIOStore) List(ctx context.Context, prefix string, max int) ([]StoredObject, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []StoredObject
	for info := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, info.Err
		}
		out = append(out, StoredObject{
			Key:          info.Key,
			Size:         info.Size,
			ContentType:  info.ContentType,
			LastModified: info.LastModified,
		})
		if len(out) >= max {
			break
		}
	}
	return out, nil
}

func (m *MinIOStore) Stat(ctx context.Context, key string) (StoredObject, error) {
	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return StoredObject{}, err
	}
	return StoredObject{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
		Metadata:     map[string]string(info.UserMetadata),
	}, nil
}

func (m *MinIOStore) Remove(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

func (m *MinIOStore) PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
