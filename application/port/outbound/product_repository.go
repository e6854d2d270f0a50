package outbound

import (
	"context"

	"github.com/fixora/storefront/domain/entity"
)

type ProductFilter struct {
	// Owner restricts the listing; empty lists every product.
	Owner string
	Limit uint64
}

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
}
