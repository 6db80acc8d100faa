// Package server hosts the diagram service over gRPC.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/louisbranch/diagramharness/internal/diagram/memory"
	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	platformgrpc "github.com/louisbranch/diagramharness/internal/platform/grpc"
	"github.com/louisbranch/diagramharness/internal/platform/timeouts"
	"github.com/louisbranch/diagramharness/internal/transport/diagramgrpc"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// GeneralView is the name of the description served by default.
const GeneralView = "General View"

// Server hosts the gRPC diagram service.
type Server struct {
	listener net.Listener
	grpc     *grpc.Server
	health   *health.Server
}

// New creates a server listening on addr that serves backend.
func New(addr string, backend diagramgrpc.Backend) (*Server, error) {
	listener, err := Listen(addr, 0)
	if err != nil {
		return nil, err
	}
	return NewWithListener(listener, backend), nil
}

// Listen opens a TCP listener on addr. A positive maxConns caps the number of
// simultaneously accepted connections.
func Listen(addr string, maxConns int) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if maxConns > 0 {
		listener = netutil.LimitListener(listener, maxConns)
	}
	return listener, nil
}

// NewWithListener creates a server on an existing listener.
func NewWithListener(listener net.Listener, backend diagramgrpc.Backend) *Server {
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	diagramgrpc.Register(grpcServer, diagramgrpc.NewHandler(backend))
	healthServer := platformgrpc.RegisterHealth(grpcServer, diagramgrpc.ServiceName)
	return &Server{
		listener: listener,
		grpc:     grpcServer,
		health:   healthServer,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve starts the gRPC server and blocks until ctx ends or serving fails.
// On ctx end the health status flips to NOT_SERVING before a graceful stop.
func (s *Server) Serve(ctx context.Context) error {
	log.Printf("server listening at %v", s.listener.Addr())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpc.Serve(s.listener)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.health.SetServingStatus(diagramgrpc.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeouts.Shutdown):
		s.grpc.Stop()
		<-stopped
	}
	if err := <-serveErr; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}
	return nil
}

// NewGeneralView returns an in-memory diagram service with the general view
// description registered: packages own packages, parts and actions, parts
// own ports, and dependency edges accept a binding node.
func NewGeneralView(names naming.Namer) *memory.Service {
	svc := memory.NewService(names)
	svc.Register(GeneralViewDescription(names))
	return svc
}

// GeneralViewDescription builds the general view description.
func GeneralViewDescription(names naming.Namer) *memory.Description {
	return memory.NewDescription(GeneralView, names).
		Node("Package", "Package", "PartUsage", "Action").
		Node("PartUsage", "PortUsage", "Action").
		Node("Action").
		EdgeTool("Dependency", names.CreationToolName("Binding"), "Binding")
}
