package handler

import (
	"net/http"

	"github.com/fixora/storefront/application/port/inbound"
	domainerr "github.com/fixora/storefront/domain/error"
	"github.com/fixora/storefront/infrastructure/http/middleware"
	"github.com/fixora/storefront/infrastructure/http/response"
	"github.com/fixora/storefront/infrastructure/http/validator"
)

type ProductHandler struct {
	products  inbound.ProductUseCase
	validator *validator.Validator
}

func NewProductHandler(products inbound.ProductUseCase, v *validator.Validator) *ProductHandler {
	return &ProductHandler{products: products, validator: v}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		response.FromError(w, domainerr.ErrInvalidAccessToken)
		return
	}
	products, err := h.products.List(r.Context(), username)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "success", products)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		response.FromError(w, domainerr.ErrInvalidAccessToken)
		return
	}

	var req inbound.CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.FromError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.FromError(w, err)
		return
	}

	product, err := h.products.Create(r.Context(), username, req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "created", product)
}
