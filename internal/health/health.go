package health

import (
	"context"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"wordcheck.org/internal/obs"
)

// ServiceName is reported next to the overall ("") status.
const ServiceName = "wordcheck.MockAPI"

// Probe reports whether the server's dependencies are usable.
type Probe interface {
	Check(ctx context.Context) error
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) error

func (f ProbeFunc) Check(ctx context.Context) error { return f(ctx) }

// Server publishes the probe result through the standard gRPC health
// service.
type Server struct {
	hs    *grpchealth.Server
	probe Probe
}

func NewServer(probe Probe) *Server {
	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{hs: hs, probe: probe}
}

// Register attaches the health service to g.
func (s *Server) Register(g *grpc.Server) {
	healthpb.RegisterHealthServer(g, s.hs)
}

// Refresh runs the probe once and updates the served status.
func (s *Server) Refresh(ctx context.Context) error {
	err := s.probe.Check(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.hs.SetServingStatus("", status)
	s.hs.SetServingStatus(ServiceName, status)
	obs.SetReady(err == nil)
	return err
}

// Run refreshes every interval until ctx ends.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if err := s.Refresh(ctx); err != nil {
		obs.Warn("readiness probe failed", map[string]any{"error": err.Error()})
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				obs.Warn("readiness probe failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

// Shutdown flips every service to NOT_SERVING ahead of GracefulStop.
func (s *Server) Shutdown() { s.hs.Shutdown() }
