// Package interceptors provides gRPC client interceptors for timeouts, retries and circuit breaking.
package interceptors

import (
	"context"

	"github.com/Nest-Microservices-MFY/products-microservice/pkg/config"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// transientCodes are retried and count as failures for the circuit breaker.
var transientCodes = []codes.Code{codes.Unavailable, codes.ResourceExhausted, codes.Aborted}

// NewRetryInterceptor creates a gRPC unary client interceptor with retry logic.
func NewRetryInterceptor(cfg config.RetryConfig) grpc.UnaryClientInterceptor {
	opts := []retry.CallOption{
		retry.WithCodes(transientCodes...),
		retry.WithMax(cfg.MaxAttempts),
		retry.WithBackoff(retry.BackoffExponential(cfg.InitialBackoff)),
	}
	return retry.UnaryClientInterceptor(opts...)
}

// UnaryCircuitBreakerInterceptor returns a gRPC unary client interceptor that wraps calls in a Circuit Breaker.
// The CircuitBreaker instance should be configured with a custom `IsSuccessful` function
// to distinguish between system failures (which should trip the breaker) and other errors (like NotFound).
func UnaryCircuitBreakerInterceptor[T any](cb *gobreaker.CircuitBreaker[T]) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		// Only the error matters, the reply is filled in by the invoker.
		var zero T
		_, err := cb.Execute(func() (T, error) {
			err := invoker(ctx, method, req, reply, cc, opts...)
			return zero, err
		})
		return err
	}
}

// NewCircuitBreaker builds a circuit breaker interceptor named name.
// Only transient gRPC codes and non-status errors count as failures.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig) grpc.UnaryClientInterceptor {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(counts.TotalSuccesses+counts.TotalFailures > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.TotalSuccesses+counts.TotalFailures)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: isSuccessful,
	}
	breaker := gobreaker.NewCircuitBreaker[any](st)
	return UnaryCircuitBreakerInterceptor(breaker)
}

func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	for _, code := range transientCodes {
		if st.Code() == code {
			return false
		}
	}
	return true
}
