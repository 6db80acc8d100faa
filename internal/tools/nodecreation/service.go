package nodecreation

import (
	"context"
	"strings"

	"github.com/louisbranch/diagramharness/internal/diagram/event"
	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	apperrors "github.com/louisbranch/diagramharness/internal/platform/errors"
	"github.com/louisbranch/diagramharness/internal/tools/stepper"
)

// NodeRequest describes one node creation.
//
// ToolName defaults to the conventional creation tool name of ChildKind.
// Variables defaults to empty. ParentKind names the node description (or edge
// description for CreateNodeOnEdge) that owns the tool. Kinds must be
// canonical (naming.Kind.Validate).
type NodeRequest struct {
	ParentKind  naming.Kind
	ParentLabel string
	ChildKind   naming.Kind
	ToolName    string
	Variables   []event.ToolVariable
}

// Service is the scenario context: an editing session plus the deriver and
// tester used by every scheduled action. It is immutable.
type Service struct {
	sessionID string
	deriver   *Deriver
	tester    *Tester
}

// NewService builds a scenario context. Every argument is required.
func NewService(sessionID string, deriver *Deriver, tester *Tester) (*Service, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperrors.New(apperrors.CodeMissingArgument, "session id is required")
	}
	if deriver == nil {
		return nil, apperrors.New(apperrors.CodeMissingArgument, "deriver is required")
	}
	if tester == nil {
		return nil, apperrors.New(apperrors.CodeMissingArgument, "tester is required")
	}
	return &Service{sessionID: sessionID, deriver: deriver, tester: tester}, nil
}

// SessionID returns the editing session.
func (s *Service) SessionID() string {
	return s.sessionID
}

// Deriver returns the identifier deriver.
func (s *Service) Deriver() *Deriver {
	return s.deriver
}

// CreateNode schedules a node creation under the node labelled
// req.ParentLabel. The tool id and the target are resolved when the action
// runs, from the snapshot in seq's slot.
func (s *Service) CreateNode(seq *stepper.Sequence, req NodeRequest) error {
	return s.schedule(seq, req, false)
}

// CreateNodeOnEdge schedules a node creation on the edge labelled
// req.ParentLabel.
func (s *Service) CreateNodeOnEdge(seq *stepper.Sequence, req NodeRequest) error {
	return s.schedule(seq, req, true)
}

func (s *Service) schedule(seq *stepper.Sequence, req NodeRequest, onEdge bool) error {
	if seq == nil {
		return apperrors.New(apperrors.CodeMissingArgument, "step sequence is required")
	}
	if strings.TrimSpace(string(req.ParentKind)) == "" {
		return apperrors.New(apperrors.CodeMissingArgument, "parent kind is required")
	}
	if strings.TrimSpace(req.ParentLabel) == "" {
		return apperrors.New(apperrors.CodeMissingArgument, "parent label is required")
	}
	if req.ToolName == "" && strings.TrimSpace(string(req.ChildKind)) == "" {
		return apperrors.New(apperrors.CodeMissingArgument, "tool name or child kind is required")
	}
	if err := req.ParentKind.Validate(); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid parent kind", err)
	}
	if req.ChildKind != "" {
		if err := req.ChildKind.Validate(); err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid child kind", err)
		}
	}

	slot := seq.Slot()
	seq.Then(stepper.NewAction(actionName(req, onEdge), func(ctx context.Context) error {
		toolName := req.ToolName
		if toolName == "" {
			toolName = s.deriver.ToolName(req.ChildKind)
		}
		if onEdge {
			toolID := s.deriver.NodeCreationIDOnEdge(req.ParentKind, toolName)
			return s.tester.CreateNodeOnEdge(ctx, s.sessionID, slot, req.ParentLabel, toolID, req.Variables)
		}
		toolID := s.deriver.NodeCreationID(req.ParentKind, toolName)
		return s.tester.CreateNode(ctx, s.sessionID, slot, req.ParentLabel, toolID, req.Variables)
	}))
	return nil
}

func actionName(req NodeRequest, onEdge bool) string {
	what := string(req.ChildKind)
	if req.ToolName != "" {
		what = req.ToolName
	}
	if onEdge {
		return "create " + what + " on edge " + req.ParentLabel
	}
	return "create " + what + " under " + req.ParentLabel
}
