// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	perrors "github.com/Nest-Microservices-MFY/products-microservice/internal/errors"
	"github.com/Nest-Microservices-MFY/products-microservice/internal/store"
)

// ProductService defines the methods for managing products.
// Expected failures are built by the error factory the service was created with.
type ProductService interface {
	// Create adds a new product and returns it with its generated id.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// FindAll returns a page of available products.
	// Fails with NotFound when the page is past the last page.
	FindAll(ctx context.Context, pagination PaginationDto) (*PageDto, error)

	// FindAllRemoved returns a page of soft-deleted products.
	FindAllRemoved(ctx context.Context, pagination PaginationDto) (*PageDto, error)

	// FindByID returns an available product.
	// Fails with NotFound for unknown and removed products.
	FindByID(ctx context.Context, id int64) (*ProductDto, error)

	// Update applies a partial update to an available product.
	Update(ctx context.Context, id int64, product ProductUpdateDto) (*ProductDto, error)

	// Remove soft-deletes an available product and returns it.
	Remove(ctx context.Context, id int64) (*ProductDto, error)

	// ValidateExisting returns the products with the given ids, regardless of availability.
	// Fails with BadRequest when any id is unknown.
	ValidateExisting(ctx context.Context, ids []int64) ([]ProductDto, error)
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
	errs       perrors.Factory
}

// NewService creates a new instance of ProductService with the provided repository.
// errs shapes NotFound and BadRequest failures for the calling transport.
func NewService(repo store.ProductStore, errs perrors.Factory) *Service {
	return &Service{
		repository: repo,
		errs:       errs,
	}
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Name  string  `json:"name"  validate:"required,max=100"`
	Price float64 `json:"price" validate:"min=0"`
}

// ProductUpdateDto carries the fields of a partial update. Absent fields are left unchanged.
type ProductUpdateDto struct {
	Name  *string  `json:"name,omitempty"  validate:"omitnil,min=1,max=100"`
	Price *float64 `json:"price,omitempty" validate:"omitnil,min=0"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PaginationDto selects a 1-based page of limit items.
type PaginationDto struct {
	Page  int `json:"page"  validate:"min=1"`
	Limit int `json:"limit" validate:"min=1"`
}

// Default pagination applied by transports when the caller omits a value.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// WithDefaults fills zero fields with DefaultPage and DefaultLimit.
func (p PaginationDto) WithDefaults() PaginationDto {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// PageMetadata describes a page of a listing.
type PageMetadata struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	LastPage int64 `json:"lastPage"`
}

// PageDto is one page of a listing.
type PageDto struct {
	Metadata PageMetadata `json:"metadata"`
	Data     []ProductDto `json:"data"`
}

// Create creates a new product and returns it as a ProductDto.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	p, err := s.repository.Create(ctx, product.Name, product.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return toDto(p), nil
}

// FindAll retrieves a page of available products.
func (s *Service) FindAll(ctx context.Context, pagination PaginationDto) (*PageDto, error) {
	return s.findPage(ctx, true, pagination)
}

// FindAllRemoved retrieves a page of soft-deleted products.
func (s *Service) FindAllRemoved(ctx context.Context, pagination PaginationDto) (*PageDto, error) {
	return s.findPage(ctx, false, pagination)
}

func (s *Service) findPage(ctx context.Context, available bool, pagination PaginationDto) (*PageDto, error) {
	total, err := s.repository.Count(ctx, available)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	lastPage := LastPage(total, pagination.Limit)
	// total == 0 gives lastPage == 0, so even page 1 is reported as missing.
	if int64(pagination.Page) > lastPage {
		return nil, s.errs.New(perrors.NotFound,
			fmt.Sprintf("Page %d not exist, last page is %d", pagination.Page, lastPage))
	}

	offset := (pagination.Page - 1) * pagination.Limit
	products, err := s.repository.FindMany(ctx, available, offset, pagination.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	return &PageDto{
		Metadata: PageMetadata{
			Total:    total,
			Page:     pagination.Page,
			LastPage: lastPage,
		},
		Data: toDtos(products),
	}, nil
}

// LastPage returns ceil(total/limit).
func LastPage(total int64, limit int) int64 {
	l := int64(limit)
	last := total / l
	if total%l != 0 {
		last++
	}
	return last
}

// FindByID retrieves an available product by its ID.
func (s *Service) FindByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindUnique(ctx, id, true)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			return nil, s.notFound(id)
		}
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toDto(product), nil
}

// Update checks that the product is available, then applies the partial update.
// The check and the write are separate statements.
func (s *Service) Update(ctx context.Context, id int64, product ProductUpdateDto) (*ProductDto, error) {
	current, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changes := store.ProductChanges{Name: product.Name, Price: product.Price}
	if changes.IsEmpty() {
		return current, nil
	}
	return s.apply(ctx, id, changes)
}

// Remove soft-deletes an available product by flipping its availability.
func (s *Service) Remove(ctx context.Context, id int64) (*ProductDto, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	unavailable := false
	return s.apply(ctx, id, store.ProductChanges{Available: &unavailable})
}

func (s *Service) apply(ctx context.Context, id int64, changes store.ProductChanges) (*ProductDto, error) {
	updated, err := s.repository.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			return nil, s.notFound(id)
		}
		return nil, fmt.Errorf("failed to update product with ID %d: %w", id, err)
	}
	return toDto(updated), nil
}

// ValidateExisting fetches the distinct ids and fails when any of them is unknown.
// Removed products count as existing.
func (s *Service) ValidateExisting(ctx context.Context, ids []int64) ([]ProductDto, error) {
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	products, err := s.repository.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	if len(products) != len(unique) {
		return nil, s.errs.New(perrors.BadRequest, "Some products were not found")
	}
	return toDtos(products), nil
}

func (s *Service) notFound(id int64) error {
	return s.errs.New(perrors.NotFound, fmt.Sprintf("Product with id: %d not found", id))
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Available: product.Available,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}

func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos
}
