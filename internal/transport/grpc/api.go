package grpc

import (
	"context"

	"github.com/Nest-Microservices-MFY/products-microservice/internal/service"
	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "catalog.v1.ProductService"

// Full method names, as used by clients and interceptors.
const (
	CreateProductFullMethod       = "/" + ServiceName + "/CreateProduct"
	ListProductsFullMethod        = "/" + ServiceName + "/ListProducts"
	ListRemovedProductsFullMethod = "/" + ServiceName + "/ListRemovedProducts"
	GetProductFullMethod          = "/" + ServiceName + "/GetProduct"
	UpdateProductFullMethod       = "/" + ServiceName + "/UpdateProduct"
	RemoveProductFullMethod       = "/" + ServiceName + "/RemoveProduct"
	ValidateProductsFullMethod    = "/" + ServiceName + "/ValidateProducts"
)

// CreateProductRequest carries the fields of a new product.
type CreateProductRequest struct {
	Name  string  `json:"name"  validate:"required,max=100"`
	Price float64 `json:"price" validate:"min=0"`
}

// ListProductsRequest selects a page. Zero values fall back to the default page and limit.
type ListProductsRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ProductRequest addresses a single product.
type ProductRequest struct {
	ID int64 `json:"id" validate:"gt=0"`
}

// UpdateProductRequest changes the name or price of a product. Nil fields are left as they are.
type UpdateProductRequest struct {
	ID    int64    `json:"id"              validate:"gt=0"`
	Name  *string  `json:"name,omitempty"  validate:"omitnil,min=1,max=100"`
	Price *float64 `json:"price,omitempty" validate:"omitnil,min=0"`
}

// ValidateProductsRequest lists the ids to check. Duplicates are allowed.
type ValidateProductsRequest struct {
	IDs []int64 `json:"ids" validate:"dive,gt=0"`
}

// ProductsResponse wraps a product list, one entry per distinct id.
type ProductsResponse struct {
	Products []service.ProductDto `json:"products"`
}

// ProductServiceServer is the server API of ServiceName.
type ProductServiceServer interface {
	CreateProduct(context.Context, *CreateProductRequest) (*service.ProductDto, error)
	ListProducts(context.Context, *ListProductsRequest) (*service.PageDto, error)
	ListRemovedProducts(context.Context, *ListProductsRequest) (*service.PageDto, error)
	GetProduct(context.Context, *ProductRequest) (*service.ProductDto, error)
	UpdateProduct(context.Context, *UpdateProductRequest) (*service.ProductDto, error)
	RemoveProduct(context.Context, *ProductRequest) (*service.ProductDto, error)
	ValidateProducts(context.Context, *ValidateProductsRequest) (*ProductsResponse, error)
}

// ServiceDesc describes ServiceName for grpc.ServiceRegistrar.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProductServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateProduct", ProductServiceServer.CreateProduct),
		unary("ListProducts", ProductServiceServer.ListProducts),
		unary("ListRemovedProducts", ProductServiceServer.ListRemovedProducts),
		unary("GetProduct", ProductServiceServer.GetProduct),
		unary("UpdateProduct", ProductServiceServer.UpdateProduct),
		unary("RemoveProduct", ProductServiceServer.RemoveProduct),
		unary("ValidateProducts", ProductServiceServer.ValidateProducts),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/product",
}

// RegisterProductServiceServer registers srv on s.
func RegisterProductServiceServer(s grpc.ServiceRegistrar, srv ProductServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds the method descriptor the protobuf generator would emit for a unary call.
func unary[Req, Resp any](name string, call func(ProductServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ProductServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ProductServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
