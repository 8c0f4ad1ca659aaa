package grpcinterceptor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"Travel_Companion/backend/go/pkg/circuitbreaker"
	"Travel_Companion/backend/go/pkg/ratelimiter"
)

// RateLimitUnaryInterceptor 返回一个 gRPC 一元拦截器，用于限流。
func RateLimitUnaryInterceptor(limiter ratelimiter.RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !limiter.Allow() {
			// 被限流时返回 gRPC 标准的 ResourceExhausted 错误码。
			return nil, status.Errorf(codes.ResourceExhausted, "request rejected due to rate limiting")
		}
		return handler(ctx, req)
	}
}

// CircuitBreakUnaryInterceptor 返回一个 gRPC 一元拦截器，用于熔断。
func CircuitBreakUnaryInterceptor(breaker circuitbreaker.CircuitBreaker) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := breaker.Execute(func() (interface{}, error) {
			return handler(ctx, req)
		})
		if err != nil {
			// 熔断器打开时返回 gRPC 标准的 Unavailable 错误码。
			if err == circuitbreaker.ErrCircuitOpen {
				return nil, status.Errorf(codes.Unavailable, "service unavailable: circuit breaker is open")
			}
			return nil, err
		}
		return resp, nil
	}
}
