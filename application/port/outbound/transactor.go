package outbound

import "context"

// Transactor runs fn inside a database transaction carried by ctx.
// Repositories called with that ctx join the transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
