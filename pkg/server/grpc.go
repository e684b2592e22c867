package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// RegistrationFunc registers a grpc service with the server.
type RegistrationFunc func(*grpc.Server)

// NewGRPCServer creates a new gRPC server instance with tracing and the given services registered.
func NewGRPCServer(opts []grpc.ServerOption, registerFunc ...RegistrationFunc) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	grpcServer := grpc.NewServer(opts...)

	for _, regFunc := range registerFunc {
		regFunc(grpcServer)
	}

	return grpcServer
}
