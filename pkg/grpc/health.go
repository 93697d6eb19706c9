// Package grpc serves the standard gRPC health service for the API so
// orchestrators and etcd watchers can poll it.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type HealthServer struct {
	name     string
	addr     string
	checks   map[string]Check
	interval time.Duration
	health   *health.Server
	srv      *grpc.Server
	logger   *zap.Logger
}

// NewHealthServer exposes one health entry per check plus name, which is
// serving only while every check passes.
func NewHealthServer(name, addr string, checks map[string]Check, logger *zap.Logger) *HealthServer {
	h := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, h)
	reflection.Register(srv)

	return &HealthServer{
		name:     name,
		addr:     addr,
		checks:   checks,
		interval: 15 * time.Second,
		health:   h,
		srv:      srv,
		logger:   logger.Named("health"),
	}
}

// CheckOnce runs every check once and publishes the result.
func (s *HealthServer) CheckOnce(ctx context.Context) bool {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	for _, name := range names {
		status := healthpb.HealthCheckResponse_SERVING
		if err := s.checks[name](ctx); err != nil {
			s.logger.Warn("Dependency check failed", zap.String("dependency", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
			healthy = false
		}
		s.health.SetServingStatus(name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(s.name, overall)
	s.health.SetServingStatus("", overall)
	return healthy
}

// Start runs the checks on an interval and serves until Stop.
func (s *HealthServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.CheckOnce(ctx)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				s.CheckOnce(checkCtx)
				cancel()
			}
		}
	}()

	s.logger.Info("gRPC health server started", zap.String("address", s.addr))
	return s.srv.Serve(lis)
}

func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
