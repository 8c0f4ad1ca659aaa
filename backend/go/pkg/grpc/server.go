package grpc

import (
	"fmt"
	"log"
	"net"

	"google.golang.org/grpc"

	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/pkg/circuitbreaker"
	"Travel_Companion/backend/go/pkg/grpcinterceptor"
	"Travel_Companion/backend/go/pkg/ratelimiter"
)

// Server 是一个自定义的 gRPC 服务器，封装了标准的 grpc.Server 并提供了内置的中间件支持。
type Server struct {
	grpcServer *grpc.Server
	address    string
}

// ServerOption 定义了用于配置 Server 的函数。
type ServerOption func(*Server)

// WithAddress 设置服务器监听的地址。
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.address = addr
	}
}

// NewServer 根据提供的 AppConfig 和选项创建并配置一个新的 Server 实例。
// 它会自动应用配置中启用的限流和熔断拦截器。
func NewServer(cfg *config.AppConfig, opts ...ServerOption) (*Server, error) {
	var interceptors []grpc.UnaryServerInterceptor

	if cfg.Middleware.RateLimiter.Enabled {
		limiter, err := ratelimiter.FromConfig(cfg.Middleware.RateLimiter)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		log.Printf("Enabling gRPC Rate Limiter middleware with algorithm: %s", cfg.Middleware.RateLimiter.Algorithm)
		interceptors = append(interceptors, grpcinterceptor.RateLimitUnaryInterceptor(limiter))
	}

	if cfg.Middleware.CircuitBreaker.Enabled {
		breaker, err := circuitbreaker.FromConfig(cfg.Middleware.CircuitBreaker)
		if err != nil {
			return nil, fmt.Errorf("failed to create circuit breaker: %w", err)
		}
		log.Println("Enabling gRPC Circuit Breaker middleware.")
		interceptors = append(interceptors, grpcinterceptor.CircuitBreakUnaryInterceptor(breaker))
	}

	g := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))

	srv := &Server{
		grpcServer: g,
	}

	for _, opt := range opts {
		opt(srv)
	}

	if srv.address == "" {
		srv.address = ":9090"
	}

	return srv, nil
}

// RegisterService 暴露底层的 gRPC RegisterService 方法，用于注册服务实现。
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	s.grpcServer.RegisterService(desc, impl)
}

// ListenAndServe 开始监听并提供 gRPC 服务。
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	log.Printf("Starting gRPC server on %s", s.address)
	return s.grpcServer.Serve(lis)
}

// GracefulStop 优雅地停止 gRPC 服务器。
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// GetGRPCServer 返回底层的 *grpc.Server 实例。
func (s *Server) GetGRPCServer() *grpc.Server {
	return s.grpcServer
}
