// Package image is the gateway to the customer photo store. Objects live
// under per-customer partitions plus a shared general area; downloads go
// through time-limited presigned URLs rather than proxying bytes.
package image

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sjw787/HovverAdminDashboard/internal/apperr"
	"github.com/sjw787/HovverAdminDashboard/internal/config"
	"github.com/sjw787/HovverAdminDashboard/internal/identity"
)

const (
	defaultMaxKeys = 100
	maxMaxKeys     = 1000
)

// StoredObject is the provider-neutral view of an object in the bucket.
type StoredObject struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// objectStore is the slice of the object-store client the gateway uses.
type objectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string, metadata map[string]string) (etag string, err error)
	List(ctx context.Context, prefix string, max int) ([]StoredObject, error)
	Stat(ctx context.Context, key string) (StoredObject, error)
	Remove(ctx context.Context, key string) error
	PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Service enforces role-based access to the photo store.
type Service struct {
	store         objectStore
	bucket        string
	upload        config.UploadConfig
	presignExpiry time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewService wires the gateway against an object store.
func NewService(store objectStore, bucket string, upload config.UploadConfig, presignExpiry time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:         store,
		bucket:        bucket,
		upload:        upload,
		presignExpiry: presignExpiry,
		logger:        logger,
		now:           time.Now,
	}
}

// Upload stores a file under the target partition. Only administrators
// may upload; customers have read-only access to the store.
func (s *Service) Upload(ctx context.Context, p identity.Principal, customerID, filename, contentType string, size int64, r io.Reader) (*UploadResult, error) {
	if p.Role != identity.RoleAdministrator {
		return nil, apperr.New(apperr.KindForbidden, "only administrators can upload images")
	}
	if !s.upload.Allowed(contentType) {
		return nil, apperr.Newf(apperr.KindBadRequest, "file type %s is not allowed", contentType)
	}
	if size <= 0 {
		return nil, apperr.New(apperr.KindBadRequest, "file is empty")
	}
	if size > s.upload.MaxFileSize {
		return nil, apperr.Newf(apperr.KindBadRequest, "file exceeds the maximum size of %d bytes", s.upload.MaxFileSize)
	}

	now := s.now().UTC()
	prefix := targetPrefix(customerID)
	key := buildObjectKey(prefix, filename, now)
	metadata := map[string]string{
		"original-filename": filename,
		"upload-date":       now.Format(time.RFC3339),
		"uploaded-by":       p.Username,
	}
	if prefix == generalPrefix {
		metadata["folder"] = generalPrefix
	} else {
		metadata["customer-id"] = strings.TrimSpace(customerID)
	}
	etag, err := s.store.Put(ctx, key, r, size, contentType, metadata)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to store file", err)
	}

	s.logger.Info("image uploaded",
		zap.String("key", key),
		zap.Int64("size", size),
		zap.String("uploaded_by", p.Username),
	)
	return &UploadResult{
		Key:         key,
		Bucket:      s.bucket,
		Folder:      prefix,
		Size:        size,
		ContentType: contentType,
		ETag:        etag,
	}, nil
}

// List returns objects visible to the caller, newest first, each with a
// presigned download URL. Administrators may list any prefix; customers
// are confined to their own partition plus the general area regardless
// of the prefix they ask for.
func (s *Service) List(ctx context.Context, p identity.Principal, prefix string, maxKeys int) ([]Object, error) {
	if maxKeys <= 0 {
		maxKeys = defaultMaxKeys
	}
	if maxKeys > maxMaxKeys {
		maxKeys = maxMaxKeys
	}

	var prefixes []string
	switch p.Role {
	case identity.RoleAdministrator:
		prefixes = []string{prefix}
	case identity.RoleCustomer:
		prefixes = customerPrefixes(p.CustomerID)
	default:
		return nil, apperr.New(apperr.KindForbidden, "access denied")
	}

	var out []Object
	for _, pfx := range prefixes {
		stored, err := s.store.List(ctx, pfx, maxKeys)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to list files", err)
		}
		for _, obj := range stored {
			// Listing does not carry metadata, so each object is stat'ed.
			// Objects that disappear between list and stat are skipped.
			detail, err := s.store.Stat(ctx, obj.Key)
			if err != nil {
				s.logger.Warn("skipping object, stat failed",
					zap.String("key", obj.Key),
					zap.Error(err),
				)
				continue
			}
			url, err := s.store.PresignedGet(ctx, obj.Key, s.presignExpiry)
			if err != nil {
				s.logger.Warn("skipping object, presign failed",
					zap.String("key", obj.Key),
					zap.Error(err),
				)
				continue
			}
			out = append(out, Object{
				Key:          obj.Key,
				Size:         obj.Size,
				ContentType:  detail.ContentType,
				LastModified: obj.LastModified,
				Metadata:     detail.Metadata,
				URL:          url,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out, nil
}

// Delete removes an object. Administrators only; the provider reporting
// no error is treated as success.
func (s *Service) Delete(ctx context.Context, p identity.Principal, key string) error {
	if p.Role != identity.RoleAdministrator {
		return apperr.New(apperr.KindForbidden, "only administrators can delete images")
	}
	if key == "" {
		return apperr.New(apperr.KindBadRequest, "object key is required")
	}
	if err := s.store.Remove(ctx, key); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete file", err)
	}
	s.logger.Info("image deleted",
		zap.String("key", key),
		zap.String("deleted_by", p.Username),
	)
	return nil
}
