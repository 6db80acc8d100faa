package grpc

import (
	"context"
	"fmt"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	healthInitialBackoff = 100 * time.Millisecond
	healthMaxBackoff     = time.Second
)

// RegisterHealth installs a health server on srv and marks service SERVING.
// The returned server lets callers flip the status during shutdown.
func RegisterHealth(srv *gogrpc.Server, service string) *health.Server {
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
	return healthServer
}

// WaitForHealth blocks until the health check for service reports SERVING or
// the context ends.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logf func(string, ...any)) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client := grpc_health_v1.NewHealthClient(conn)
	backoff := healthInitialBackoff
	for {
		callCtx, cancel := context.WithTimeout(ctx, healthMaxBackoff)
		response, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		cancel()
		if err == nil && response.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			if logf != nil {
				logf("gRPC health %q is SERVING", service)
			}
			return nil
		}
		if logf != nil {
			if err != nil {
				logf("waiting for gRPC health %q: %v", service, err)
			} else {
				logf("waiting for gRPC health %q: status %s", service, response.GetStatus())
			}
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-timer.C:
		}
		backoff = min(backoff*2, healthMaxBackoff)
	}
}
