// Package errors provides structured harness errors that survive a gRPC hop.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Precondition errors
	CodeMissingArgument Code = "MISSING_REQUIRED_ARGUMENT"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Live service errors
	CodeSessionNotFound Code = "SESSION_NOT_FOUND"
	CodeDiagramNotFound Code = "DIAGRAM_NOT_FOUND"
	CodeToolNotFound    Code = "TOOL_NOT_FOUND"
	CodeTargetNotFound  Code = "TARGET_NOT_FOUND"

	// Harness errors
	CodeSnapshotMissing    Code = "SNAPSHOT_MISSING"
	CodeEventTimeout       Code = "EVENT_TIMEOUT"
	CodeUnexpectedEvent    Code = "UNEXPECTED_EVENT"
	CodeSubscriptionClosed Code = "SUBSCRIPTION_CLOSED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeMissingArgument,
		CodeInvalidArgument:
		return codes.InvalidArgument

	case CodeSnapshotMissing,
		CodeUnexpectedEvent:
		return codes.FailedPrecondition

	case CodeSessionNotFound,
		CodeDiagramNotFound,
		CodeToolNotFound,
		CodeTargetNotFound:
		return codes.NotFound

	case CodeEventTimeout:
		return codes.DeadlineExceeded

	case CodeSubscriptionClosed:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}
