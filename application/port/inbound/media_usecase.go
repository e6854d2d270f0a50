package inbound

import (
	"context"
	"io"
)

type UploadRequest struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadResponse struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type MediaUseCase interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error)
	// UploadAvatar stores the image and records its URL on the user.
	UploadAvatar(ctx context.Context, username string, req UploadRequest) (*UploadResponse, error)
}
