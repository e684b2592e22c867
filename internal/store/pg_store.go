package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	perrors "github.com/Nest-Microservices-MFY/products-microservice/internal/errors"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productsTable = "products"

var productColumns = []string{"id", "name", "price", "available", "created_at", "updated_at"}

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
	qb sq.StatementBuilderType
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Create adds a new product to the system.
func (p *PgStore) Create(ctx context.Context, name string, price float64) (*Product, error) {
	query := p.qb.Insert(productsTable).
		Columns("name", "price").
		Values(name, price).
		Suffix("RETURNING " + columnList())
	product, err := p.queryOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// Count returns the number of products with the given availability.
func (p *PgStore) Count(ctx context.Context, available bool) (int64, error) {
	sql, args, err := p.qb.Select("count(*)").
		From(productsTable).
		Where(sq.Eq{"available": available}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var count int64
	if err := p.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// FindMany retrieves a page of products with the given availability.
// It returns a slice of products, which may be empty if no products exist.
func (p *PgStore) FindMany(ctx context.Context, available bool, offset, limit int) ([]Product, error) {
	query := p.qb.Select(productColumns...).
		From(productsTable).
		Where(sq.Eq{"available": available}).
		OrderBy("id").
		Offset(uint64(offset)).
		Limit(uint64(limit))
	products, err := p.queryMany(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}

// FindUnique retrieves a product by id and availability.
// Returns ErrProductNotFound if no such product exists.
func (p *PgStore) FindUnique(ctx context.Context, id int64, available bool) (*Product, error) {
	query := p.qb.Select(productColumns...).
		From(productsTable).
		Where(sq.Eq{"id": id, "available": available})
	product, err := p.queryOne(ctx, query)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// FindByIDs retrieves products by IDs regardless of availability.
// It returns a slice of products, which may be empty if no products exist.
func (p *PgStore) FindByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	query := p.qb.Select(productColumns...).
		From(productsTable).
		Where(sq.Eq{"id": ids}).
		OrderBy("id")
	products, err := p.queryMany(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by IDs: %w", err)
	}
	return products, nil
}

// Update applies the change set to the product and bumps updated_at.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) Update(ctx context.Context, id int64, changes ProductChanges) (*Product, error) {
	query := p.qb.Update(productsTable).
		SetMap(changes.toMap()).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + columnList())
	product, err := p.queryOne(ctx, query)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (p *PgStore) queryOne(ctx context.Context, query sq.Sqlizer) (*Product, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (p *PgStore) queryMany(ctx context.Context, query sq.Sqlizer) ([]Product, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Product])
}

func columnList() string {
	return strings.Join(productColumns, ", ")
}
