package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	perrors "github.com/Nest-Microservices-MFY/products-microservice/internal/errors"
)

// MemoryStore implements ProductStore using an in-memory map.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[int64]Product
	nextID   int64
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[int64]Product),
		nextID:   1,
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, name string, price float64) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	product := Product{
		ID:        s.nextID,
		Name:      name,
		Price:     price,
		Available: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.products[product.ID] = product
	s.nextID++
	return &product, nil
}

func (s *MemoryStore) Count(_ context.Context, available bool) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, p := range s.products {
		if p.Available == available {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) FindMany(_ context.Context, available bool, offset, limit int) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.sorted(func(p Product) bool { return p.Available == available })
	if offset >= len(list) {
		return []Product{}, nil
	}
	end := len(list)
	if limit < end-offset {
		end = offset + limit
	}
	return list[offset:end], nil
}

func (s *MemoryStore) FindUnique(_ context.Context, id int64, available bool) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok || p.Available != available {
		return nil, perrors.ErrProductNotFound
	}
	return &p, nil
}

func (s *MemoryStore) FindByIDs(_ context.Context, ids []int64) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(func(p Product) bool { return slices.Contains(ids, p.ID) }), nil
}

func (s *MemoryStore) Update(_ context.Context, id int64, changes ProductChanges) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	if changes.Name != nil {
		p.Name = *changes.Name
	}
	if changes.Price != nil {
		p.Price = *changes.Price
	}
	if changes.Available != nil {
		p.Available = *changes.Available
	}
	p.UpdatedAt = s.now()
	s.products[id] = p
	return &p, nil
}

// sorted returns the products matching keep ordered by id. Callers hold the lock.
func (s *MemoryStore) sorted(keep func(Product) bool) []Product {
	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			list = append(list, p)
		}
	}
	slices.SortFunc(list, func(a, b Product) int { return cmp.Compare(a.ID, b.ID) })
	return list
}
