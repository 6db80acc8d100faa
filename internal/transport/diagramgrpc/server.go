// Package diagramgrpc carries the diagram service over gRPC. The service is
// described by hand and every message is a google.protobuf.Struct, so no
// generated code is needed on either side.
package diagramgrpc

import (
	"context"
	"errors"

	"github.com/louisbranch/diagramharness/internal/diagram/event"
	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	apperrors "github.com/louisbranch/diagramharness/internal/platform/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name, also used for health
// checks.
const ServiceName = "diagram.v1.DiagramService"

const (
	methodOpenDiagram = "/" + ServiceName + "/OpenDiagram"
	methodInvokeTool  = "/" + ServiceName + "/InvokeTool"
	methodConnect     = "/" + ServiceName + "/Connect"
	methodSubscribe   = "/" + ServiceName + "/Subscribe"
)

// Backend is the live diagram service exposed over gRPC.
type Backend interface {
	OpenDiagram(ctx context.Context, req event.OpenDiagram) (*event.Diagram, error)
	InvokeTool(ctx context.Context, inv event.ToolInvocation) error
	Connect(ctx context.Context, sessionID, diagramID string, kind naming.Kind, label, sourceID, targetID string) (event.Edge, error)
	Subscribe(ctx context.Context, sessionID, diagramID string) (event.Stream, error)
}

// Handler implements the diagram service on top of a Backend.
type Handler struct {
	backend Backend
}

// NewHandler wraps backend.
func NewHandler(backend Backend) *Handler {
	return &Handler{backend: backend}
}

// Register installs the diagram service on srv.
func Register(srv grpc.ServiceRegistrar, handler *Handler) {
	srv.RegisterService(&serviceDesc, handler)
}

// OpenDiagram creates a diagram and returns its first snapshot.
func (h *Handler) OpenDiagram(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "open diagram request is required")
	}
	diagram, err := h.backend.OpenDiagram(ctx, decodeOpenDiagram(in))
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	out, err := encodeDiagram(diagram)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode diagram: %v", err)
	}
	return out, nil
}

// InvokeTool runs a creation tool.
func (h *Handler) InvokeTool(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "invoke tool request is required")
	}
	if err := h.backend.InvokeTool(ctx, decodeInvocation(in)); err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &structpb.Struct{}, nil
}

// Connect adds an edge between two nodes.
func (h *Handler) Connect(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "connect request is required")
	}
	req := decodeConnect(in)
	edge, err := h.backend.Connect(ctx, req.SessionID, req.DiagramID, naming.Kind(req.Kind), req.Label, req.SourceID, req.TargetID)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	out, err := encodeEdge(edge)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode edge: %v", err)
	}
	return out, nil
}

// Subscribe streams refresh events until the client goes away.
func (h *Handler) Subscribe(in *structpb.Struct, stream grpc.ServerStream) error {
	m := in.AsMap()
	ctx := stream.Context()
	sub, err := h.backend.Subscribe(ctx, stringField(m, "session_id"), stringField(m, "diagram_id"))
	if err != nil {
		return apperrors.HandleError(err)
	}
	defer sub.Close()

	for evt := range sub.Events() {
		msg, err := encodeRefreshed(evt)
		if err != nil {
			return status.Errorf(codes.Internal, "encode refresh %d: %v", evt.Seq, err)
		}
		if err := stream.SendMsg(msg); err != nil {
			return err
		}
	}
	if err := sub.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return status.FromContextError(err).Err()
	}
	return nil
}

func openDiagramHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Handler).OpenDiagram(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodOpenDiagram}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Handler).OpenDiagram(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func invokeToolHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Handler).InvokeTool(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodInvokeTool}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Handler).InvokeTool(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func connectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Handler).Connect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodConnect}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Handler).Connect(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(*Handler).Subscribe(in, stream)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "OpenDiagram", Handler: openDiagramHandler},
		{MethodName: "InvokeTool", Handler: invokeToolHandler},
		{MethodName: "Connect", Handler: connectHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
}
