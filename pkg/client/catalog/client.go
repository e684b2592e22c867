// Package catalog provides a resilient gRPC client for the product catalog,
// for services such as orders that need to look products up.
package catalog

import (
	"context"
	"fmt"

	"github.com/Nest-Microservices-MFY/products-microservice/internal/service"
	transport "github.com/Nest-Microservices-MFY/products-microservice/internal/transport/grpc"
	"github.com/Nest-Microservices-MFY/products-microservice/pkg/client/grpc/interceptors"
	"github.com/Nest-Microservices-MFY/products-microservice/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Product is a catalog product as returned by the client.
type Product = service.ProductDto

// Config groups the settings of a CatalogClient.
type Config struct {
	Grpc       config.GrpcClientConfig `koanf:"grpc"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
}

func (c *Config) Validate() error {
	if err := c.Grpc.Validate(); err != nil {
		return err
	}
	return c.Resilience.Validate()
}

// CatalogClient calls the product service on behalf of consumer services.
type CatalogClient struct {
	conn *grpc.ClientConn
}

// New dials the catalog at cfg.Grpc.Addr. Every call gets a timeout and is retried
// on transient codes behind a circuit breaker. Extra dial options are appended last.
func New(cfg Config, opts ...grpc.DialOption) (*CatalogClient, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(transport.CodecName)),
		grpc.WithChainUnaryInterceptor(
			interceptors.UnaryClientTimeoutInterceptor(cfg.Grpc.Timeout),
			interceptors.NewRetryInterceptor(cfg.Resilience.Retry),
			interceptors.NewCircuitBreaker("catalog", cfg.Resilience.CircuitBreaker),
		),
	}, opts...)

	conn, err := grpc.NewClient(cfg.Grpc.Addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client connection: %w", err)
	}
	return &CatalogClient{conn: conn}, nil
}

// GetProduct returns an available product. A missing product is reported with codes.NotFound.
func (c *CatalogClient) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var out Product
	if err := c.conn.Invoke(ctx, transport.GetProductFullMethod, &transport.ProductRequest{ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateProducts returns the products with the given ids.
// Unknown ids are reported with codes.InvalidArgument.
func (c *CatalogClient) ValidateProducts(ctx context.Context, ids []int64) ([]Product, error) {
	var out transport.ProductsResponse
	if err := c.conn.Invoke(ctx, transport.ValidateProductsFullMethod, &transport.ValidateProductsRequest{IDs: ids}, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// Close tears down the underlying connection.
func (c *CatalogClient) Close() error {
	return c.conn.Close()
}
