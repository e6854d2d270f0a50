package usecase

import (
	"context"
	"fmt"
	"mime"
	"time"

	"github.com/google/uuid"

	"github.com/fixora/storefront/application/port/inbound"
	"github.com/fixora/storefront/application/port/outbound"
	domainerr "github.com/fixora/storefront/domain/error"
	"github.com/fixora/storefront/infrastructure/service/logger"
)

const MaxUploadSize int64 = 10 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type MediaUseCase struct {
	storage     outbound.MediaStorage
	credentials *CredentialStore
	now         func() time.Time
	logger      logger.Logger
}

// NewMediaUseCase accepts a nil storage; uploads then fail with ErrUnavailable.
func NewMediaUseCase(storage outbound.MediaStorage, credentials *CredentialStore, now func() time.Time, log logger.Logger) *MediaUseCase {
	if now == nil {
		now = time.Now
	}
	return &MediaUseCase{
		storage:     storage,
		credentials: credentials,
		now:         now,
		logger:      log,
	}
}

var _ inbound.MediaUseCase = (*MediaUseCase)(nil)

func (uc *MediaUseCase) Upload(ctx context.Context, req inbound.UploadRequest) (*inbound.UploadResponse, error) {
	if uc.storage == nil {
		return nil, domainerr.ErrUnavailable.WithDetails("media storage is not configured")
	}

	contentType, _, err := mime.ParseMediaType(req.ContentType)
	if err != nil {
		return nil, domainerr.NewValidationError("only image uploads are accepted")
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, domainerr.NewValidationError("only JPEG, PNG, GIF or WebP images are accepted")
	}
	if req.Size <= 0 {
		return nil, domainerr.NewValidationError("file is empty")
	}
	if req.Size > MaxUploadSize {
		return nil, domainerr.NewValidationError(fmt.Sprintf("file exceeds %d bytes", MaxUploadSize))
	}

	key := uc.objectKey(ext)
	url, err := uc.storage.Put(ctx, key, contentType, req.Body, req.Size)
	if err != nil {
		uc.logger.Error(ctx, "Failed to store upload", err, map[string]interface{}{
			"key": key,
		})
		return nil, fmt.Errorf("store media: %w", err)
	}

	uc.logger.Info(ctx, "Media uploaded", map[string]interface{}{
		"key":  key,
		"size": req.Size,
	})
	return &inbound.UploadResponse{Filename: req.Filename, URL: url}, nil
}

func (uc *MediaUseCase) UploadAvatar(ctx context.Context, username string, req inbound.UploadRequest) (*inbound.UploadResponse, error) {
	resp, err := uc.Upload(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := uc.credentials.SetAvatar(ctx, username, resp.URL); err != nil {
		return nil, err
	}
	return resp, nil
}

// objectKey yields media/YYYY/MM/DD/<uuid><ext>. The client filename never
// reaches the key.
func (uc *MediaUseCase) objectKey(ext string) string {
	return fmt.Sprintf("media/%s/%s%s", uc.now().UTC().Format("2006/01/02"), uuid.NewString(), ext)
}
