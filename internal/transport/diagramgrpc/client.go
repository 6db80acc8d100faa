package diagramgrpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/louisbranch/diagramharness/internal/diagram/event"
	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	apperrors "github.com/louisbranch/diagramharness/internal/platform/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote diagram service. Domain errors are restored from the
// status details, so apperrors.IsCode works on returned errors.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// OpenDiagram creates a diagram in an editing session.
func (c *Client) OpenDiagram(ctx context.Context, req event.OpenDiagram) (*event.Diagram, error) {
	in, err := encodeOpenDiagram(req)
	if err != nil {
		return nil, fmt.Errorf("encode open diagram: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodOpenDiagram, in, out); err != nil {
		return nil, apperrors.FromGRPCStatus(err)
	}
	return decodeDiagram(out), nil
}

// InvokeTool runs a creation tool on the remote service.
func (c *Client) InvokeTool(ctx context.Context, inv event.ToolInvocation) error {
	in, err := encodeInvocation(inv)
	if err != nil {
		return fmt.Errorf("encode tool invocation: %w", err)
	}
	if err := c.conn.Invoke(ctx, methodInvokeTool, in, new(structpb.Struct)); err != nil {
		return apperrors.FromGRPCStatus(err)
	}
	return nil
}

// Connect adds an edge of kind between two nodes.
func (c *Client) Connect(ctx context.Context, sessionID, diagramID string, kind naming.Kind, label, sourceID, targetID string) (event.Edge, error) {
	in, err := encodeConnect(connectRequest{
		SessionID: sessionID,
		DiagramID: diagramID,
		Kind:      string(kind),
		Label:     label,
		SourceID:  sourceID,
		TargetID:  targetID,
	})
	if err != nil {
		return event.Edge{}, fmt.Errorf("encode connect: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodConnect, in, out); err != nil {
		return event.Edge{}, apperrors.FromGRPCStatus(err)
	}
	return decodeEdge(out), nil
}

// Subscribe opens a refresh stream. The first event is the current snapshot.
func (c *Client) Subscribe(ctx context.Context, sessionID, diagramID string) (event.Stream, error) {
	in, err := encodeSubscribe(sessionID, diagramID)
	if err != nil {
		return nil, fmt.Errorf("encode subscribe: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	cs, err := c.conn.NewStream(streamCtx, &serviceDesc.Streams[0], methodSubscribe)
	if err != nil {
		cancel()
		return nil, apperrors.FromGRPCStatus(err)
	}
	if err := cs.SendMsg(in); err != nil {
		cancel()
		return nil, apperrors.FromGRPCStatus(err)
	}
	if err := cs.CloseSend(); err != nil {
		cancel()
		return nil, apperrors.FromGRPCStatus(err)
	}

	sub := &Subscription{
		ctx:    streamCtx,
		cancel: cancel,
		out:    make(chan event.Refreshed),
		done:   make(chan struct{}),
	}
	go sub.recv(cs)
	return sub, nil
}

// Subscription is a refresh stream received over gRPC.
type Subscription struct {
	ctx    context.Context
	cancel context.CancelFunc
	out    chan event.Refreshed
	done   chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
}

// Events returns the delivery channel, closed when the stream ends.
func (s *Subscription) Events() <-chan event.Refreshed {
	return s.out
}

// Err reports why the stream ended. It is nil after Close or when the server
// finished the stream.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the stream and waits for the receive goroutine.
func (s *Subscription) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	<-s.done
	return nil
}

func (s *Subscription) recv(cs grpc.ClientStream) {
	defer close(s.done)
	defer close(s.out)

	for {
		msg := new(structpb.Struct)
		if err := cs.RecvMsg(msg); err != nil {
			s.finish(err)
			return
		}
		evt, err := decodeRefreshed(msg)
		if err != nil {
			s.finish(err)
			s.cancel()
			return
		}
		select {
		case s.out <- evt:
		case <-s.ctx.Done():
			s.finish(s.ctx.Err())
			return
		}
	}
}

func (s *Subscription) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || errors.Is(err, io.EOF) {
		return
	}
	if status.Code(err) == codes.Canceled && s.ctx.Err() != nil {
		s.err = s.ctx.Err()
		return
	}
	s.err = apperrors.FromGRPCStatus(err)
}
