// Package app wires the products service together.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Nest-Microservices-MFY/products-microservice/internal/config"
	perrors "github.com/Nest-Microservices-MFY/products-microservice/internal/errors"
	"github.com/Nest-Microservices-MFY/products-microservice/internal/service"
	"github.com/Nest-Microservices-MFY/products-microservice/internal/store"
	grpcImpl "github.com/Nest-Microservices-MFY/products-microservice/internal/transport/grpc"
	"github.com/Nest-Microservices-MFY/products-microservice/internal/transport/rest"
	"github.com/Nest-Microservices-MFY/products-microservice/internal/transport/rpc"
	pconfig "github.com/Nest-Microservices-MFY/products-microservice/pkg/config"
	"github.com/Nest-Microservices-MFY/products-microservice/pkg/server"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"google.golang.org/grpc"
)

// Dependencies holds one product service per error shape, all sharing a single store.
type Dependencies struct {
	// HTTPService reports failures as *errors.HTTPError.
	HTTPService service.ProductService
	// RPCService reports failures as *errors.RPCError.
	RPCService service.ProductService
	// Metrics serves the Prometheus registry; nil when metrics are disabled.
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewStore returns the store selected by cfg.Driver. dbPool is only used by the postgres driver.
func NewStore(cfg pconfig.DatabaseConfig, dbPool *pgxpool.Pool) (store.ProductStore, error) {
	switch cfg.Driver {
	case pconfig.DriverMemory:
		return store.NewMemoryStore(), nil
	case pconfig.DriverPostgres, "":
		if dbPool == nil {
			return nil, fmt.Errorf("postgres driver requires a database pool")
		}
		return store.NewPgStore(dbPool), nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}

func SetupDependencies(repo store.ProductStore, logger *slog.Logger) *Dependencies {
	return &Dependencies{
		HTTPService: service.NewService(repo, perrors.HTTPFactory),
		RPCService:  service.NewService(repo, perrors.RPCFactory),
		Logger:      logger,
	}
}

// SetupHttpHandler builds the router with the product routes and, when enabled, the metrics endpoint.
func SetupHttpHandler(deps *Dependencies, metrics pconfig.MetricsConfig) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	rest.NewHandler(deps.HTTPService, deps.Logger).RegisterRoutes(mux)
	if metrics.Enabled && deps.Metrics != nil {
		mux.Handle(metrics.Path, deps.Metrics)
	}
	return mux
}

// SetupHttpServer creates and configures an HTTP server for the products service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, "products-http", SetupHttpHandler(deps, cfg.Metrics))
}

// SetupGrpcServer initializes the gRPC server for the products service.
func SetupGrpcServer(deps *Dependencies) *grpc.Server {
	productRegisterFunc := func(s *grpc.Server) {
		grpcImpl.RegisterProductServiceServer(s, grpcImpl.NewServer(deps.RPCService, deps.Logger))
	}
	return server.NewGRPCServer(nil, productRegisterFunc)
}

// SetupNATSResponder creates the request-reply responder. Call Start to subscribe.
func SetupNATSResponder(deps *Dependencies, nc *nats.Conn, cfg pconfig.NATSConfig) *rpc.Responder {
	return rpc.NewResponder(nc, deps.RPCService, cfg, deps.Logger)
}
