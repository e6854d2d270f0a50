package inbound

import (
	"context"

	"github.com/fixora/storefront/domain/entity"
)

type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Price       *float64 `json:"price" validate:"required,gte=0,lte=9999999999.99"`
}

type ProductUseCase interface {
	Create(ctx context.Context, owner string, req CreateProductRequest) (*entity.Product, error)
	List(ctx context.Context, owner string) ([]*entity.Product, error)
}
