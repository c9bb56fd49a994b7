// Package grpcserver runs the gRPC health endpoint of the auth service.
package grpcserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported next to the overall "" entry.
const ServiceName = "docqa.auth.v1.Auth"

// Pinger is satisfied by the database handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health mirrors database reachability into the standard gRPC health service.
type Health struct {
	srv      *health.Server
	db       Pinger
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewHealth constructs a Health probe. Status starts as NOT_SERVING until the
// first successful ping.
func NewHealth(db Pinger, log *zap.Logger, interval time.Duration) *Health {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	h := &Health{srv: health.NewServer(), db: db, log: log, interval: interval, timeout: 2 * time.Second}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *Health) set(st healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", st)
	h.srv.SetServingStatus(ServiceName, st)
}

// Probe pings the database once and updates the reported status.
func (h *Health) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health: db ping failed", zap.Error(err))
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return false
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
	return true
}

// Run probes every interval until ctx is done, then marks everything as
// NOT_SERVING for good.
func (h *Health) Run(ctx context.Context) {
	h.Probe(ctx)
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			h.Probe(ctx)
		}
	}
}

// NewServer builds a gRPC server exposing h with logging and recovery
// interceptors. Reflection is registered in dev mode only.
func NewServer(h *Health, log *zap.Logger, dev bool, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(
			RecoverUnary(log),
			LoggingUnary(log),
		),
		grpc.ChainStreamInterceptor(
			RecoverStream(log),
			LoggingStream(log),
		),
	)
	s := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(s, h.srv)
	if dev {
		reflection.Register(s)
	}
	return s
}
