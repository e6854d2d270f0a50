package outbound

import "github.com/fixora/storefront/domain/entity"

const EventProductCreated = "product.created"

// ProductNotifier fans product events out to live listeners. Publish must not block.
type ProductNotifier interface {
	Publish(event string, product *entity.Product)
}
