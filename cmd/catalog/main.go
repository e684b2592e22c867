// Package main runs the products catalog service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/Nest-Microservices-MFY/products-microservice/internal/app"
	"github.com/Nest-Microservices-MFY/products-microservice/internal/config"
	"github.com/Nest-Microservices-MFY/products-microservice/pkg/bootstrap"
	pconfig "github.com/Nest-Microservices-MFY/products-microservice/pkg/config"
	"github.com/Nest-Microservices-MFY/products-microservice/pkg/config/configloader"
	pnats "github.com/Nest-Microservices-MFY/products-microservice/pkg/nats"
	"github.com/Nest-Microservices-MFY/products-microservice/pkg/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const serviceName = "products"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, connects the store and serves HTTP, gRPC, NATS and pprof until ctx is done.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		tracerProvider, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown tracer provider", slog.Any("error", err))
			}
		}()
	}

	var dbPool *pgxpool.Pool
	if cfg.Database.Driver == pconfig.DriverPostgres {
		var err error
		dbPool, err = bootstrap.NewDbPool(ctx, cfg.Database, serviceName)
		if err != nil {
			return fmt.Errorf("failed to create database connection pool: %w", err)
		}
		defer dbPool.Close()
		logger.Info("Database connected")
	}
	repo, err := app.NewStore(cfg.Database, dbPool)
	if err != nil {
		return err
	}

	deps := app.SetupDependencies(repo, logger)
	if cfg.Metrics.Enabled {
		meterProvider, metricsHandler, err := telemetry.NewMeterProvider(serviceName)
		if err != nil {
			return err
		}
		defer func() {
			if err := meterProvider.Shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown meter provider", slog.Any("error", err))
			}
		}()
		deps.Metrics = metricsHandler
	}

	g, gCtx := errgroup.WithContext(ctx)

	startHTTP(g, gCtx, "HTTP server", app.SetupHttpServer(deps, cfg), cfg.Shutdown.Timeout, logger)

	if cfg.GRPC.Enabled {
		startGRPC(g, gCtx, deps, cfg, logger)
	}

	if cfg.NATS.Enabled {
		nc, err := pnats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout, serviceName, logger)
		if err != nil {
			return err
		}
		defer nc.Close()
		responder := app.SetupNATSResponder(deps, nc, cfg.NATS)
		if err := responder.Start(); err != nil {
			return err
		}
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Draining NATS subscriptions...")
			return responder.Drain()
		})
	}

	if cfg.PProf.Enabled {
		startHTTP(g, gCtx, "pprof server", &http.Server{Addr: cfg.PProf.Addr}, cfg.Shutdown.Timeout, logger)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// startHTTP serves srv and shuts it down gracefully when ctx is done.
func startHTTP(g *errgroup.Group, ctx context.Context, name string, srv *http.Server, timeout time.Duration, logger *slog.Logger) {
	g.Go(func() error {
		logger.Info(name+" listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s failed: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down " + name + "...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func startGRPC(g *errgroup.Group, ctx context.Context, deps *app.Dependencies, cfg *config.Config, logger *slog.Logger) {
	grpcServer := app.SetupGrpcServer(deps)
	g.Go(func() error {
		grpcAddr := ":" + cfg.GRPC.Port
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		logger.Info("gRPC server listening", slog.String("addr", grpcAddr))
		return grpcServer.Serve(lis)
	})
	// gracefully shutdown gRPC server on context cancellation
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down gRPC server...")
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
			logger.Info("gRPC server stopped gracefully.")
			return nil
		case <-time.After(cfg.Shutdown.Timeout):
			logger.Warn("gRPC server graceful stop timed out. Forcing stop.")
			grpcServer.Stop()
			return fmt.Errorf("grpc server graceful stop timed out")
		}
	})
}
