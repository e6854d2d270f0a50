package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/fixora/storefront/application/port/inbound"
	domainerr "github.com/fixora/storefront/domain/error"
	"github.com/fixora/storefront/infrastructure/http/middleware"
	"github.com/fixora/storefront/infrastructure/http/response"
	"github.com/fixora/storefront/infrastructure/http/validator"
)

const maxJSONBody = 1 << 20

type AuthHandler struct {
	authUseCase inbound.AuthUseCase
	validator   *validator.Validator
}

func NewAuthHandler(authUseCase inbound.AuthUseCase, v *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		validator:   v,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req inbound.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.FromError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.FromError(w, err)
		return
	}

	pair, err := h.authUseCase.Register(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "registered", pair)
}

// Token is the OAuth2 password-grant style login. It takes a form body and
// falls back to JSON.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req inbound.LoginRequest
	if isJSON(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			response.FromError(w, err)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			response.FromError(w, domainerr.NewValidationError("malformed form body"))
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}
	if err := h.validator.Struct(req); err != nil {
		response.FromError(w, err)
		return
	}

	pair, err := h.authUseCase.Login(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "success", pair)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req inbound.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.FromError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.FromError(w, err)
		return
	}

	pair, err := h.authUseCase.Refresh(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "success", pair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		response.FromError(w, domainerr.ErrInvalidAccessToken)
		return
	}
	if err := h.authUseCase.Logout(r.Context(), username); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

// Me serves both /protected and /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		response.FromError(w, domainerr.ErrInvalidAccessToken)
		return
	}
	me, err := h.authUseCase.Me(r.Context(), username)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, me.Message, me)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return domainerr.NewValidationError("request body is empty")
		case errors.As(err, &tooLarge):
			return domainerr.NewValidationError("request body too large")
		default:
			return domainerr.NewValidationError("malformed JSON body")
		}
	}
	return nil
}
