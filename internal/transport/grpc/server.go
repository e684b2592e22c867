// Package grpc provides a gRPC server for the product service.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	perrors "github.com/Nest-Microservices-MFY/products-microservice/internal/errors"
	"github.com/Nest-Microservices-MFY/products-microservice/internal/service"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Server struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

var _ ProductServiceServer = (*Server)(nil)

// NewServer creates a Server. The service is expected to report failures with perrors.RPCFactory.
func NewServer(service service.ProductService, logger *slog.Logger) *Server {
	return &Server{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("component", "grpc"),
	}
}

// CreateProduct stores a new available product.
func (s *Server) CreateProduct(ctx context.Context, req *CreateProductRequest) (*service.ProductDto, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	created, err := s.service.Create(ctx, service.ProductCreateDto{Name: req.Name, Price: req.Price})
	if err != nil {
		return nil, s.toStatus(ctx, "CreateProduct", err)
	}
	return created, nil
}

// ListProducts returns a page of available products.
func (s *Server) ListProducts(ctx context.Context, req *ListProductsRequest) (*service.PageDto, error) {
	pagination, err := s.pagination(req)
	if err != nil {
		return nil, err
	}
	page, err := s.service.FindAll(ctx, pagination)
	if err != nil {
		return nil, s.toStatus(ctx, "ListProducts", err)
	}
	return page, nil
}

// ListRemovedProducts returns a page of removed products.
func (s *Server) ListRemovedProducts(ctx context.Context, req *ListProductsRequest) (*service.PageDto, error) {
	pagination, err := s.pagination(req)
	if err != nil {
		return nil, err
	}
	page, err := s.service.FindAllRemoved(ctx, pagination)
	if err != nil {
		return nil, s.toStatus(ctx, "ListRemovedProducts", err)
	}
	return page, nil
}

// GetProduct returns an available product or NotFound.
func (s *Server) GetProduct(ctx context.Context, req *ProductRequest) (*service.ProductDto, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	found, err := s.service.FindByID(ctx, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "GetProduct", err)
	}
	return found, nil
}

// UpdateProduct applies a partial update to an available product.
func (s *Server) UpdateProduct(ctx context.Context, req *UpdateProductRequest) (*service.ProductDto, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	updated, err := s.service.Update(ctx, req.ID, service.ProductUpdateDto{Name: req.Name, Price: req.Price})
	if err != nil {
		return nil, s.toStatus(ctx, "UpdateProduct", err)
	}
	return updated, nil
}

// RemoveProduct marks an available product as removed and returns it.
func (s *Server) RemoveProduct(ctx context.Context, req *ProductRequest) (*service.ProductDto, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	removed, err := s.service.Remove(ctx, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "RemoveProduct", err)
	}
	return removed, nil
}

// ValidateProducts returns the products with the given ids, or InvalidArgument if any is unknown.
func (s *Server) ValidateProducts(ctx context.Context, req *ValidateProductsRequest) (*ProductsResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	logger := s.logger.With(slog.Any("product_ids", req.IDs))
	logger.DebugContext(ctx, "received grpc request ValidateProducts")
	products, err := s.service.ValidateExisting(ctx, req.IDs)
	if err != nil {
		return nil, s.toStatus(ctx, "ValidateProducts", err)
	}
	return &ProductsResponse{Products: products}, nil
}

func (s *Server) pagination(req *ListProductsRequest) (service.PaginationDto, error) {
	p := service.PaginationDto{Page: req.Page, Limit: req.Limit}.WithDefaults()
	if err := s.check(&p); err != nil {
		return service.PaginationDto{}, err
	}
	return p, nil
}

// check validates req and reports the first violation as InvalidArgument.
func (s *Server) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	msg := "invalid request"
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		msg = fmt.Sprintf("%s failed on rule: %s", validationErrors[0].Field(), validationErrors[0].Tag())
	}
	return perrors.NewRPCError(http.StatusBadRequest, msg)
}

// toStatus passes RPCError values through, since they carry their own gRPC status,
// and hides every other failure behind codes.Internal.
func (s *Server) toStatus(ctx context.Context, method string, err error) error {
	var rpcErr *perrors.RPCError
	if errors.As(err, &rpcErr) {
		s.logger.WarnContext(ctx, rpcErr.Message, "method", method, "status", rpcErr.Status)
		return rpcErr
	}
	s.logger.ErrorContext(ctx, "service call failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal server error")
}
