package handler

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/fixora/storefront/application/port/inbound"
	"github.com/fixora/storefront/application/usecase"
	domainerr "github.com/fixora/storefront/domain/error"
	"github.com/fixora/storefront/infrastructure/http/middleware"
	"github.com/fixora/storefront/infrastructure/http/response"
)

// multipart framing on top of the file itself
const multipartOverhead = 1 << 20

type MediaHandler struct {
	media inbound.MediaUseCase
}

func NewMediaHandler(media inbound.MediaUseCase) *MediaHandler {
	return &MediaHandler{media: media}
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := readUpload(w, r)
	if err != nil {
		response.FromError(w, err)
		return
	}
	defer cleanup()

	res, err := h.media.Upload(r.Context(), *req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "uploaded", res)
}

func (h *MediaHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		response.FromError(w, domainerr.ErrInvalidAccessToken)
		return
	}

	req, cleanup, err := readUpload(w, r)
	if err != nil {
		response.FromError(w, err)
		return
	}
	defer cleanup()

	res, err := h.media.UploadAvatar(r.Context(), username, *req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "avatar updated", res)
}

func readUpload(w http.ResponseWriter, r *http.Request) (*inbound.UploadRequest, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, usecase.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(usecase.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, domainerr.NewValidationError("file exceeds the 10 MiB limit")
		}
		return nil, nil, domainerr.NewValidationError("expected a multipart form with a file field")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, domainerr.NewValidationError("file is required")
	}

	contentType, body, err := detectContentType(file, header)
	if err != nil {
		file.Close()
		return nil, nil, err
	}

	cleanup := func() {
		file.Close()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return &inbound.UploadRequest{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        body,
	}, cleanup, nil
}

// detectContentType trusts the part header and sniffs the first bytes when it is missing.
func detectContentType(file multipart.File, header *multipart.FileHeader) (string, io.Reader, error) {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct, file, nil
	}
	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, domainerr.NewValidationError("could not read uploaded file")
	}
	sniff = sniff[:n]
	return http.DetectContentType(sniff), io.MultiReader(bytes.NewReader(sniff), file), nil
}
