package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/fixora/storefront/application/port/outbound"
	"github.com/fixora/storefront/domain/entity"
	domainerr "github.com/fixora/storefront/domain/error"
)

var productColumns = []string{"id", "name", "description", "price", "is_active", "owner_username", "created_at"}

type ProductRepositoryAdapter struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

func NewProductRepositoryAdapter(db *sql.DB) outbound.ProductRepository {
	return &ProductRepositoryAdapter{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ProductRepositoryAdapter) Create(ctx context.Context, product *entity.Product) error {
	query, args, err := r.builder.
		Insert("products").
		Columns("name", "description", "price", "is_active", "owner_username", "created_at").
		Values(product.Name, product.Description, product.Price, product.IsActive, product.OwnerUsername, product.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if err := conn(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&product.ID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("owner %q: %w", product.OwnerUsername, domainerr.ErrNotFound)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *ProductRepositoryAdapter) List(ctx context.Context, filter outbound.ProductFilter) ([]*entity.Product, error) {
	qb := r.builder.
		Select(productColumns...).
		From("products").
		OrderBy("id DESC")
	if filter.Owner != "" {
		qb = qb.Where(sq.Eq{"owner_username": filter.Owner})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(filter.Limit)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]*entity.Product, 0)
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.IsActive, &p.OwnerUsername, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}
