package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/fixora/storefront/application/port/inbound"
	"github.com/fixora/storefront/application/port/outbound"
	"github.com/fixora/storefront/domain/entity"
	domainerr "github.com/fixora/storefront/domain/error"
	"github.com/fixora/storefront/infrastructure/service/logger"
)

type ListScope string

const (
	ListScopeOwn ListScope = "own"
	ListScopeAll ListScope = "all"

	maxProductName        = 200
	maxProductDescription = 2000
	maxListedProducts     = 500

	// largest value a NUMERIC(12,2) column holds
	maxProductPrice = 9999999999.99
)

type ProductUseCase struct {
	products outbound.ProductRepository
	notifier outbound.ProductNotifier
	scope    ListScope
	logger   logger.Logger
}

// NewProductUseCase accepts a nil notifier when live events are disabled.
func NewProductUseCase(products outbound.ProductRepository, notifier outbound.ProductNotifier, scope ListScope, log logger.Logger) *ProductUseCase {
	if scope != ListScopeAll {
		scope = ListScopeOwn
	}
	return &ProductUseCase{
		products: products,
		notifier: notifier,
		scope:    scope,
		logger:   log,
	}
}

var _ inbound.ProductUseCase = (*ProductUseCase)(nil)

func (uc *ProductUseCase) Create(ctx context.Context, owner string, req inbound.CreateProductRequest) (*entity.Product, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, domainerr.NewValidationError("name is required")
	case utf8.RuneCountInString(name) > maxProductName:
		return nil, domainerr.NewValidationError(fmt.Sprintf("name must be at most %d characters", maxProductName))
	case utf8.RuneCountInString(req.Description) > maxProductDescription:
		return nil, domainerr.NewValidationError(fmt.Sprintf("description must be at most %d characters", maxProductDescription))
	case req.Price == nil:
		return nil, domainerr.NewValidationError("price is required")
	case math.IsNaN(*req.Price) || math.IsInf(*req.Price, 0) || *req.Price < 0:
		return nil, domainerr.NewValidationError("price must be a non-negative number")
	}

	price := math.Round(*req.Price*100) / 100
	if price > maxProductPrice {
		return nil, domainerr.NewValidationError(fmt.Sprintf("price must be at most %.2f", maxProductPrice))
	}

	product := entity.NewProduct(name, req.Description, price, owner)
	if err := uc.products.Create(ctx, product); err != nil {
		// the owner was deleted after the token was checked
		if errors.Is(err, domainerr.ErrNotFound) {
			return nil, domainerr.ErrInvalidAccessToken
		}
		uc.logger.Error(ctx, "Failed to create product", err, map[string]interface{}{
			"owner": owner,
		})
		return nil, fmt.Errorf("create product: %w", err)
	}

	uc.logger.Info(ctx, "Product created", map[string]interface{}{
		"product_id": product.ID,
		"owner":      owner,
	})
	if uc.notifier != nil {
		uc.notifier.Publish(outbound.EventProductCreated, product)
	}
	return product, nil
}

// List returns the caller's products, or every product when the scope is "all".
// The result is never nil.
func (uc *ProductUseCase) List(ctx context.Context, owner string) ([]*entity.Product, error) {
	filter := outbound.ProductFilter{Limit: maxListedProducts}
	if uc.scope == ListScopeOwn {
		filter.Owner = owner
	}

	products, err := uc.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []*entity.Product{}
	}
	return products, nil
}
