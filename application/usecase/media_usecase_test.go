package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixora/storefront/application/port/inbound"
	"github.com/fixora/storefront/domain/entity"
	domainerr "github.com/fixora/storefront/domain/error"
	"github.com/fixora/storefront/infrastructure/service/logger"
	"github.com/fixora/storefront/infrastructure/service/password"
)

func newMediaFixture(t *testing.T, storage *fakeStorage) (*MediaUseCase, *memUserRepo) {
	t.Helper()
	users := newMemUserRepo()
	creds, err := NewCredentialStore(users, password.NewBcryptPasswordService(bcrypt.MinCost), logger.NewNopLogger())
	require.NoError(t, err)

	clock := newFakeClock()
	if storage == nil {
		return NewMediaUseCase(nil, creds, clock.Now, logger.NewNopLogger()), users
	}
	return NewMediaUseCase(storage, creds, clock.Now, logger.NewNopLogger()), users
}

func imageUpload(name, contentType, body string) inbound.UploadRequest {
	return inbound.UploadRequest{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestMediaUseCase_Upload(t *testing.T) {
	storage := &fakeStorage{}
	uc, _ := newMediaFixture(t, storage)

	resp, err := uc.Upload(context.Background(), imageUpload("cat.PNG", "image/png", "pngdata"))
	require.NoError(t, err)

	assert.Equal(t, "cat.PNG", resp.Filename)
	assert.True(t, strings.HasPrefix(storage.key, "media/2026/03/01/"), storage.key)
	assert.True(t, strings.HasSuffix(storage.key, ".png"), storage.key)
	assert.Equal(t, "image/png", storage.contentType)
	assert.Equal(t, "pngdata", string(storage.body))
	assert.Equal(t, "http://cdn.local/media-bucket/"+storage.key, resp.URL)
}

func TestMediaUseCase_KeyExtensionFollowsContentType(t *testing.T) {
	storage := &fakeStorage{}
	uc, _ := newMediaFixture(t, storage)

	_, err := uc.Upload(context.Background(), imageUpload("../../etc/passwd.ph p", "image/jpeg; charset=binary", "jpg"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(storage.key, ".jpg"), storage.key)
	assert.NotContains(t, storage.key, "..")

	_, err = uc.Upload(context.Background(), imageUpload("cat.html", "image/gif", "gif"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(storage.key, ".gif"), storage.key)
}

func TestMediaUseCase_UploadRejects(t *testing.T) {
	storage := &fakeStorage{}
	uc, _ := newMediaFixture(t, storage)

	tests := map[string]inbound.UploadRequest{
		"not an image": imageUpload("a.txt", "text/plain", "hello"),
		"svg":          imageUpload("a.svg", "image/svg+xml", "<svg onload=alert(1)/>"),
		"tiff":         imageUpload("a.tiff", "image/tiff", "II*"),
		"bad mime":     imageUpload("a.png", "", "x"),
		"empty":        imageUpload("a.png", "image/png", ""),
		"too large": {
			Filename: "a.png", ContentType: "image/png",
			Size: MaxUploadSize + 1, Body: strings.NewReader("x"),
		},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Upload(context.Background(), req)
			assert.ErrorIs(t, err, domainerr.ErrValidation)
		})
	}
	assert.Empty(t, storage.key)
}

func TestMediaUseCase_StorageDisabled(t *testing.T) {
	uc, _ := newMediaFixture(t, nil)

	_, err := uc.Upload(context.Background(), imageUpload("a.png", "image/png", "x"))
	assert.ErrorIs(t, err, domainerr.ErrUnavailable)
}

func TestMediaUseCase_StorageError(t *testing.T) {
	uc, _ := newMediaFixture(t, &fakeStorage{err: errors.New("s3 down")})

	_, err := uc.Upload(context.Background(), imageUpload("a.png", "image/png", "x"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainerr.ErrValidation)
}

func TestMediaUseCase_UploadAvatar(t *testing.T) {
	uc, users := newMediaFixture(t, &fakeStorage{})
	require.NoError(t, users.Create(context.Background(), entity.NewUser("alice", "hash")))

	resp, err := uc.UploadAvatar(context.Background(), "alice", imageUpload("me.webp", "image/webp", "webp"))
	require.NoError(t, err)

	u, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, resp.URL, u.AvatarURL)

	_, err = uc.UploadAvatar(context.Background(), "ghost", imageUpload("me.webp", "image/webp", "webp"))
	assert.ErrorIs(t, err, domainerr.ErrNotFound)
}
