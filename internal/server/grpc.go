package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported by the gRPC health service for the router.
const ServiceName = "signalgate.Router"

// NewGRPCServer creates a gRPC server with standard interceptors, registers
// the health service and reflection, and marks the router as serving.
func NewGRPCServer(s *Server, authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			AuthInterceptor(authToken),
		),
	)

	grpc_health_v1.RegisterHealthServer(srv, s.Health)
	reflection.Register(srv)

	s.Health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.Health.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return srv
}

// Shutdown marks every service as not serving so health probes fail while
// in-flight work drains.
func (s *Server) Shutdown() {
	s.Health.Shutdown()
}
