package image

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sjw787/HovverAdminDashboard/internal/apperr"
	"github.com/sjw787/HovverAdminDashboard/internal/config"
	"github.com/sjw787/HovverAdminDashboard/internal/identity"
)

type fakeStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
	metadata     map[string]map[string]string
	listFn       func(ctx context.Context, prefix string, max int) ([]StoredObject, error)
	statFn       func(ctx context.Context, key string) (StoredObject, error)
	presignFn    func(ctx context.Context, key string, expiry time.Duration) (string, error)
	removeErr    error
	removedKeys  []string
	listPrefixes []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
		metadata:     make(map[string]map[string]string),
	}
}

func (f *fakeStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string, metadata map[string]string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.objects[key] = data
	f.contentTypes[key] = contentType
	f.metadata[key] = metadata
	return "etag-1", nil
}

func (f *fakeStore) List(ctx context.Context, prefix string, max int) ([]StoredObject, error) {
	f.listPrefixes = append(f.listPrefixes, prefix)
	if f.listFn != nil {
		return f.listFn(ctx, prefix, max)
	}
	var out []StoredObject
	for key, data := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, StoredObject{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (f *fakeStore) Stat(ctx context.Context, key string) (StoredObject, error) {
	if f.statFn != nil {
		return f.statFn(ctx, key)
	}
	data, ok := f.objects[key]
	if !ok {
		return StoredObject{Key: key}, nil
	}
	return StoredObject{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: f.contentTypes[key],
		Metadata:    f.metadata[key],
	}, nil
}

func (f *fakeStore) Remove(_ context.Context, key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removedKeys = append(f.removedKeys, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if f.presignFn != nil {
		return f.presignFn(ctx, key, expiry)
	}
	return "https://store.example.com/" + key + "?signed=1", nil
}

func testUploadConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxFileSize:  1024,
		AllowedTypes: []string{"image/jpeg", "image/png"},
	}
}

func newTestService(store objectStore) *Service {
	return NewService(store, "hovver-test", testUploadConfig(), time.Hour, zap.NewNop())
}

func adminPrincipal() identity.Principal {
	return identity.Principal{Sub: "admin-1", Username: "admin@example.com", Role: identity.RoleAdministrator}
}

func customerPrincipal(id string) identity.Principal {
	return identity.Principal{Sub: id, Username: "cust@example.com", CustomerID: id, Role: identity.RoleCustomer}
}

func TestUploadStoresUnderCustomerPartition(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	svc.now = func() time.Time { return time.Date(2026, 5, 6, 10, 0, 0, 0, time.UTC) }

	result, err := svc.Upload(context.Background(), adminPrincipal(), "sub-42", "shoot.jpg", "image/jpeg", 4, bytes.NewReader([]byte("data")))
	require.NoError(t, err)

	assert.Equal(t, "customers/sub-42/2026/05/06/shoot_20260506_100000.jpg", result.Key)
	assert.Equal(t, "hovver-test", result.Bucket)
	assert.Equal(t, "customers/sub-42", result.Folder)
	assert.Equal(t, "etag-1", result.ETag)
	assert.Contains(t, store.objects, result.Key)

	metadata := store.metadata[result.Key]
	assert.Equal(t, "shoot.jpg", metadata["original-filename"])
	assert.Equal(t, "admin@example.com", metadata["uploaded-by"])
	assert.Equal(t, "sub-42", metadata["customer-id"])
	assert.Equal(t, "2026-05-06T10:00:00Z", metadata["upload-date"])
}

func TestUploadGeneralWhenNoCustomer(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	result, err := svc.Upload(context.Background(), adminPrincipal(), "", "promo.png", "image/png", 3, bytes.NewReader([]byte("png")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Key, "general/"), "key %s", result.Key)
	assert.Equal(t, "general", result.Folder)
	assert.Equal(t, "general", store.metadata[result.Key]["folder"])
}

func TestUploadDeniedForCustomer(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Upload(context.Background(), customerPrincipal("sub-1"), "", "a.jpg", "image/jpeg", 1, bytes.NewReader([]byte("x")))
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Upload(context.Background(), adminPrincipal(), "", "doc.pdf", "application/pdf", 10, bytes.NewReader(make([]byte, 10)))
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Upload(context.Background(), adminPrincipal(), "", "big.jpg", "image/jpeg", 2048, bytes.NewReader(make([]byte, 2048)))
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestUploadThenListRoundTrip(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	svc.now = func() time.Time { return time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC) }

	payload := []byte("jpeg-bytes")
	uploaded, err := svc.Upload(context.Background(), adminPrincipal(), "sub-42", "wedding.jpg", "image/jpeg", int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)

	objects, err := svc.List(context.Background(), customerPrincipal("sub-42"), "", 0)
	require.NoError(t, err)
	require.Len(t, objects, 1)

	assert.Equal(t, uploaded.Key, objects[0].Key)
	assert.Equal(t, int64(len(payload)), objects[0].Size)
	assert.Equal(t, "image/jpeg", objects[0].ContentType)
	assert.Equal(t, "wedding.jpg", objects[0].Metadata["original-filename"])
	assert.NotEmpty(t, objects[0].URL)
}

func TestListCustomerScopedToOwnPartition(t *testing.T) {
	store := newFakeStore()
	store.objects["customers/sub-1/2026/01/01/a.jpg"] = []byte("a")
	store.objects["customers/sub-2/2026/01/01/b.jpg"] = []byte("b")
	store.objects["general/2026/01/01/c.jpg"] = []byte("c")
	svc := newTestService(store)

	// The requested prefix is ignored for customers.
	objects, err := svc.List(context.Background(), customerPrincipal("sub-1"), "customers/sub-2/", 0)
	require.NoError(t, err)

	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	assert.ElementsMatch(t, []string{
		"customers/sub-1/2026/01/01/a.jpg",
		"general/2026/01/01/c.jpg",
	}, keys)
	assert.Equal(t, []string{"customers/sub-1/", "general/"}, store.listPrefixes)
}

func TestListAdminArbitraryPrefix(t *testing.T) {
	store := newFakeStore()
	store.objects["customers/sub-2/2026/01/01/b.jpg"] = []byte("b")
	store.objects["general/2026/01/01/c.jpg"] = []byte("c")
	svc := newTestService(store)

	objects, err := svc.List(context.Background(), adminPrincipal(), "customers/sub-2/", 0)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "customers/sub-2/2026/01/01/b.jpg", objects[0].Key)
	assert.Contains(t, objects[0].URL, "signed=1")
}

func TestListUnknownRoleForbidden(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.List(context.Background(), identity.Principal{Role: identity.RoleUnknown}, "", 0)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestListSortsNewestFirst(t *testing.T) {
	store := newFakeStore()
	store.listFn = func(_ context.Context, _ string, _ int) ([]StoredObject, error) {
		return []StoredObject{
			{Key: "general/old.jpg", LastModified: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
			{Key: "general/new.jpg", LastModified: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
		}, nil
	}
	svc := newTestService(store)

	objects, err := svc.List(context.Background(), adminPrincipal(), "general/", 0)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "general/new.jpg", objects[0].Key)
}

func TestListSkipsObjectsThatFailToStat(t *testing.T) {
	store := newFakeStore()
	store.objects["general/good.jpg"] = []byte("g")
	store.objects["general/gone.jpg"] = []byte("x")
	store.statFn = func(_ context.Context, key string) (StoredObject, error) {
		if strings.Contains(key, "gone") {
			return StoredObject{}, errors.New("object not found")
		}
		return StoredObject{Key: key}, nil
	}
	svc := newTestService(store)

	objects, err := svc.List(context.Background(), adminPrincipal(), "general/", 0)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "general/good.jpg", objects[0].Key)
}

func TestListSkipsObjectsThatFailToPresign(t *testing.T) {
	store := newFakeStore()
	store.objects["general/good.jpg"] = []byte("g")
	store.objects["general/bad.jpg"] = []byte("b")
	store.presignFn = func(_ context.Context, key string, _ time.Duration) (string, error) {
		if strings.Contains(key, "bad") {
			return "", errors.New("presign failed")
		}
		return "https://store.example.com/" + key, nil
	}
	svc := newTestService(store)

	objects, err := svc.List(context.Background(), adminPrincipal(), "general/", 0)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "general/good.jpg", objects[0].Key)
}

func TestDeleteAdminOnly(t *testing.T) {
	store := newFakeStore()
	store.objects["general/x.jpg"] = []byte("x")
	svc := newTestService(store)

	err := svc.Delete(context.Background(), customerPrincipal("sub-1"), "general/x.jpg")
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	err = svc.Delete(context.Background(), adminPrincipal(), "general/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"general/x.jpg"}, store.removedKeys)
}

func TestDeleteProviderError(t *testing.T) {
	store := newFakeStore()
	store.removeErr = errors.New("connection reset")
	svc := newTestService(store)

	err := svc.Delete(context.Background(), adminPrincipal(), "general/x.jpg")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
