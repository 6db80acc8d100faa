package errors

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain is the error domain attached to gRPC error details.
const Domain = "github.com/louisbranch/diagramharness"

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs and step reports)
	Metadata map[string]string // Diagnostic context (tool id, label, step)
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error carrying diagnostic metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithMetadata creates a domain error with both metadata and a cause.
func WrapWithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
		Cause:    cause,
	}
}

// ToGRPCStatus converts the error to a gRPC status with an ErrorInfo detail
// whose reason is the domain code.
func (e *Error) ToGRPCStatus() error {
	grpcCode := e.Code.GRPCCode()
	st := status.New(grpcCode, e.Message)

	st, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(e.Code),
		Domain:   Domain,
		Metadata: e.Metadata,
	})
	if err != nil {
		return status.New(grpcCode, e.Message).Err()
	}
	return st.Err()
}

// HandleError converts domain errors to a gRPC status for client responses.
func HandleError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.ToGRPCStatus()
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Internal, err.Error())
}

// FromGRPCStatus restores a domain error from a gRPC status produced by
// HandleError. Errors without an ErrorInfo detail from this domain are
// returned unchanged.
func FromGRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, detail := range st.Details() {
		info, ok := detail.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != Domain {
			continue
		}
		return &Error{
			Code:     Code(info.GetReason()),
			Message:  st.Message(),
			Metadata: info.GetMetadata(),
		}
	}
	return err
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetMetadata extracts metadata from an error if present.
func GetMetadata(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Metadata
	}
	return nil
}
