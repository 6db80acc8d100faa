// Package grpc holds the dial and health helpers used to reach the diagram
// service.
package grpc

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Connector creates a client connection for an address.
type Connector func(addr string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error)

// DialStage describes where a dial attempt failed.
type DialStage string

const (
	// DialStageConnect indicates the client connection could not be created.
	DialStageConnect DialStage = "connect"
	// DialStageHealth indicates the health check never reported SERVING.
	DialStageHealth DialStage = "health"
)

// DialError wraps dial and health check failures with a stage indicator.
type DialError struct {
	Stage DialStage
	Addr  string
	Err   error
}

// Error implements the error interface.
func (e *DialError) Error() string {
	if e == nil {
		return "gRPC dial error"
	}
	return fmt.Sprintf("gRPC %s error for %s: %v", e.Stage, e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *DialError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DefaultClientDialOptions returns plaintext dial options with the OTel stats
// handler so tool invocations carry the step span context.
func DefaultClientDialOptions() []gogrpc.DialOption {
	return []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// DialWithHealth creates a client for addr and waits until the health check
// for service reports SERVING. The connection is closed on failure.
func DialWithHealth(ctx context.Context, connect Connector, addr, service string, dialTimeout time.Duration, logf func(string, ...any), opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if connect == nil {
		connect = gogrpc.NewClient
	}

	conn, err := connect(addr, opts...)
	if err != nil {
		return nil, &DialError{Stage: DialStageConnect, Addr: addr, Err: err}
	}

	healthCtx := ctx
	if dialTimeout > 0 {
		var cancel context.CancelFunc
		healthCtx, cancel = context.WithTimeout(ctx, dialTimeout)
		defer cancel()
	}
	if err := WaitForHealth(healthCtx, conn, service, logf); err != nil {
		_ = conn.Close()
		return nil, &DialError{Stage: DialStageHealth, Addr: addr, Err: err}
	}
	return conn, nil
}
