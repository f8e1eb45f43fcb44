package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/miradorstack/mirador-triage/internal/config"
)

// Server runs the triage gRPC service and, when a handler is supplied, the HTTP API next to it.
// Both listeners are bound in NewServer so addresses are known before serving starts.
type Server struct {
	cfg config.ServerConfig

	grpcServer *grpc.Server
	grpcLis    net.Listener
	health     *health.Server

	httpServer *http.Server
	httpLis    net.Listener
}

// NewServer binds cfg.GRPCAddress for service and, if handler is non-nil and cfg.HTTPAddress
// is set, cfg.HTTPAddress for handler.
func NewServer(cfg config.ServerConfig, service TriageServer, handler http.Handler, opts ...grpc.ServerOption) (*Server, error) {
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return nil, fmt.Errorf("listen grpc on %s: %w", cfg.GRPCAddress, err)
	}

	s := &Server{cfg: cfg, grpcLis: grpcLis}

	if handler != nil && cfg.HTTPAddress != "" {
		httpLis, err := net.Listen("tcp", cfg.HTTPAddress)
		if err != nil {
			grpcLis.Close()
			return nil, fmt.Errorf("listen http on %s: %w", cfg.HTTPAddress, err)
		}
		s.httpLis = httpLis
		s.httpServer = &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
		}
	}

	grpc_prometheus.EnableHandlingTimeHistogram()
	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(grpc_prometheus.UnaryServerInterceptor),
		grpc.ChainStreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	}
	if cfg.MaxBodyBytes > 0 {
		serverOpts = append(serverOpts, grpc.MaxRecvMsgSize(int(cfg.MaxBodyBytes)))
	}
	s.grpcServer = grpc.NewServer(append(serverOpts, opts...)...)

	RegisterTriageServer(s.grpcServer, service)
	grpc_prometheus.Register(s.grpcServer)

	s.health = health.NewServer()
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(TriageServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)

	reflection.Register(s.grpcServer)
	return s, nil
}

// Serve blocks until both listeners stop. It returns the first serving error, or nil after Shutdown.
func (s *Server) Serve() error {
	if s.grpcServer == nil || s.grpcLis == nil {
		return fmt.Errorf("server not initialised")
	}

	running := 1
	errs := make(chan error, 2)
	go func() {
		errs <- s.grpcServer.Serve(s.grpcLis)
	}()
	if s.httpServer != nil {
		running++
		go func() {
			err := s.httpServer.Serve(s.httpLis)
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			errs <- err
		}()
	}

	for ; running > 0; running-- {
		if err := <-errs; err != nil {
			return err
		}
	}
	return nil
}

// Shutdown flips health to NOT_SERVING, drains HTTP, then stops gRPC gracefully. When ctx
// expires first the gRPC server is stopped hard.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.health != nil {
		s.health.Shutdown()
	}

	var httpErr error
	if s.httpServer != nil {
		httpErr = s.httpServer.Shutdown(ctx)
	}

	if s.grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-ctx.Done():
			s.grpcServer.Stop()
		case <-stopped:
		}
	}

	// Listeners that never reached Serve are still open.
	for _, lis := range []net.Listener{s.grpcLis, s.httpLis} {
		if lis != nil {
			_ = lis.Close()
		}
	}
	return httpErr
}

// GRPCAddress returns the bound gRPC address.
func (s *Server) GRPCAddress() string {
	if s.grpcLis == nil {
		return ""
	}
	return s.grpcLis.Addr().String()
}

// HTTPAddress returns the bound HTTP address, or "" when HTTP is disabled.
func (s *Server) HTTPAddress() string {
	if s.httpLis == nil {
		return ""
	}
	return s.httpLis.Addr().String()
}

// GracefulTimeout returns the configured shutdown budget.
func (s *Server) GracefulTimeout() time.Duration {
	return s.cfg.GracefulTimeout
}
