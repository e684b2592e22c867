// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"time"
)

// Product is a row of the products table.
type Product struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Price     float64   `db:"price"`
	Available bool      `db:"available"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ProductChanges is a partial update. Nil fields are left untouched.
type ProductChanges struct {
	Name      *string
	Price     *float64
	Available *bool
}

// IsEmpty reports whether the change set touches no column.
func (c ProductChanges) IsEmpty() bool {
	return c.Name == nil && c.Price == nil && c.Available == nil
}

func (c ProductChanges) toMap() map[string]any {
	m := make(map[string]any, 3)
	if c.Name != nil {
		m["name"] = *c.Name
	}
	if c.Price != nil {
		m["price"] = *c.Price
	}
	if c.Available != nil {
		m["available"] = *c.Available
	}
	return m
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
// Rows are never deleted; availability is the soft-delete marker.
type ProductStore interface {
	// Create inserts a new available product and returns the stored row.
	Create(ctx context.Context, name string, price float64) (*Product, error)

	// Count returns the number of products with the given availability.
	Count(ctx context.Context, available bool) (int64, error)

	// FindMany returns a page of products with the given availability ordered by id.
	FindMany(ctx context.Context, available bool, offset, limit int) ([]Product, error)

	// FindUnique returns the product with the given id and availability.
	// Returns ErrProductNotFound if there is none.
	FindUnique(ctx context.Context, id int64, available bool) (*Product, error)

	// FindByIDs returns the products whose id is in ids, regardless of availability, ordered by id.
	FindByIDs(ctx context.Context, ids []int64) ([]Product, error)

	// Update applies changes to the product with the given id and returns the updated row.
	// Returns ErrProductNotFound if the row does not exist.
	Update(ctx context.Context, id int64, changes ProductChanges) (*Product, error)
}
