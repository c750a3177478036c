package grpc

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/talentqx/crewrisk/pkg/auth"
	"github.com/talentqx/crewrisk/pkg/tlsutil"
)

// ServerConfig configures the gRPC listener.
type ServerConfig struct {
	Address string
	// TLS is enabled when both CertFile and KeyFile are set. ClientCAFile
	// additionally requires client certificates.
	CertFile     string
	KeyFile      string
	ClientCAFile string
	Reflection   bool
}

// Server wraps the gRPC server with the CrewRiskService handler.
type Server struct {
	address    string
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
}

// NewServer creates a new gRPC server. Every CrewRiskService call passes
// the JWT interceptor; the health service does not.
func NewServer(handler CrewRiskServiceServer, cfg ServerConfig, validator auth.TokenValidator, logger *slog.Logger) (*Server, error) {
	authInterceptor := auth.UnaryAuthInterceptor(validator, []string{
		"/grpc.health.v1.Health/Check",
		"/grpc.health.v1.Health/Watch",
		"/grpc.health.v1.Health/List",
	})

	serverOpts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(authInterceptor)}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		creds, err := tlsutil.ServerTLSConfig(cfg.CertFile, cfg.KeyFile, cfg.ClientCAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
		logger.Info("gRPC TLS enabled", "cert", cfg.CertFile, "mtls", cfg.ClientCAFile != "")
	} else {
		logger.Info("gRPC TLS not configured, running without TLS")
	}

	grpcServer := grpc.NewServer(serverOpts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	RegisterCrewRiskServiceServer(grpcServer, handler)

	if cfg.Reflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		address:    cfg.Address,
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
	}, nil
}

// Start begins listening and serving gRPC requests.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(listener)
}

// Serve serves gRPC requests on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("gRPC server starting", slog.String("address", listener.Addr().String()))
	return s.grpcServer.Serve(listener)
}

// Stop marks the service not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
