package interceptors

import (
	"context"
	"testing"
	"time"

	"github.com/Nest-Microservices-MFY/products-microservice/pkg/config"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// fakeServer answers invocations with a pre-configured queue of codes.
// Not thread-safe, should be used in sequential tests only.
type fakeServer struct {
	callCount int32
	responses []codes.Code
}

func (s *fakeServer) invoke(_ context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
	s.callCount++
	if len(s.responses) > 0 {
		code := s.responses[0]
		s.responses = s.responses[1:]
		if code != codes.OK {
			return status.Error(code, "mock error")
		}
	}
	return nil
}

// setupChain wires the retry and circuit breaker interceptors in the same order as a client would.
func setupChain(t *testing.T) (call func() error, server *fakeServer) {
	t.Helper()

	server = &fakeServer{}
	retryInterceptor := NewRetryInterceptor(config.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})
	breakerInterceptor := NewCircuitBreaker("test-cb", config.CircuitBreakerConfig{
		ConsecutiveFailures: 5,
		ErrorRatePercent:    60,
		OpenTimeout:         5 * time.Second,
	})

	call = func() error {
		return retryInterceptor(context.Background(), "/catalog.v1.ProductService/GetProduct", nil, nil, nil,
			func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
				return breakerInterceptor(ctx, method, req, reply, cc, server.invoke, opts...)
			})
	}
	return call, server
}

func TestInterceptors_HappyPath(t *testing.T) {
	call, server := setupChain(t)

	// given
	server.responses = []codes.Code{codes.OK}

	// when
	err := call()

	// then
	require.NoError(t, err)
	require.Equal(t, int32(1), server.callCount, "Server should be called exactly once")
}

func TestInterceptors_RetryOnTransientError(t *testing.T) {
	call, server := setupChain(t)

	// given
	server.responses = []codes.Code{codes.Unavailable, codes.Unavailable, codes.OK}

	// when
	err := call()

	// then
	require.NoError(t, err)
	require.Equal(t, int32(3), server.callCount, "Server should be called exactly 3 times due to retries")
}

func TestInterceptors_NoRetryOnDataError(t *testing.T) {
	call, server := setupChain(t)

	// given
	server.responses = []codes.Code{codes.NotFound}

	// when
	err := call()

	// then
	require.Error(t, err)
	require.Equal(t, codes.NotFound, status.Code(err))
	require.Equal(t, int32(1), server.callCount, "Server should be called exactly once, no retries on data error")
}

func TestInterceptors_CircuitBreakerOpens(t *testing.T) {
	call, server := setupChain(t)

	// given
	// The breaker opens after more than 5 consecutive failures:
	// 2 calls, each of which makes 3 attempts.
	server.responses = []codes.Code{
		codes.Unavailable, codes.Unavailable, codes.Unavailable,
		codes.Unavailable, codes.Unavailable, codes.Unavailable,
	}

	// when
	require.Error(t, call(), "First call should fail")
	require.Error(t, call(), "Second call should fail")
	require.Equal(t, int32(6), server.callCount, "Server should be called 6 times")

	// then
	err := call()
	require.ErrorIs(t, err, gobreaker.ErrOpenState, "Third call should be blocked by circuit breaker")
	require.Equal(t, int32(6), server.callCount, "Server call count should not change, circuit breaker should block the call")
}

func TestInterceptors_CircuitBreakerIgnoresDataError(t *testing.T) {
	call, server := setupChain(t)

	// given
	responses := make([]codes.Code, 10)
	for i := range responses {
		responses[i] = codes.InvalidArgument
	}
	server.responses = responses

	// when
	for range 10 {
		err := call()
		require.Equal(t, codes.InvalidArgument, status.Code(err))
	}

	// then
	require.Equal(t, int32(10), server.callCount, "circuit breaker should not trigger on data errors")
}

func TestUnaryClientTimeoutInterceptor(t *testing.T) {
	interceptor := UnaryClientTimeoutInterceptor(10 * time.Millisecond)

	err := interceptor(context.Background(), "/m", nil, nil, nil,
		func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
			deadline, ok := ctx.Deadline()
			require.True(t, ok, "call context should carry a deadline")
			require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 10*time.Millisecond)
			<-ctx.Done()
			return status.FromContextError(ctx.Err()).Err()
		})

	require.Equal(t, codes.DeadlineExceeded, status.Code(err))
}

func TestUnaryClientTimeoutInterceptor_Disabled(t *testing.T) {
	interceptor := UnaryClientTimeoutInterceptor(0)

	err := interceptor(context.Background(), "/m", nil, nil, nil,
		func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
			_, ok := ctx.Deadline()
			require.False(t, ok, "a zero timeout should not add a deadline")
			return nil
		})

	require.NoError(t, err)
}
