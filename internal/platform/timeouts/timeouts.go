// Package timeouts defines shared timeout constants used by the harness and
// the diagram service.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the diagram service.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single unary call to the diagram service.
const GRPCRequest = 2 * time.Second

// StepWait is the default time a verification step waits for its expected
// refresh event.
const StepWait = 5 * time.Second

// Shutdown limits how long the gRPC server waits for in-flight calls during
// graceful shutdown.
const Shutdown = 5 * time.Second
