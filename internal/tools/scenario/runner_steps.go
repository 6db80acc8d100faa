package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/diagramharness/internal/diagram/event"
	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	apperrors "github.com/louisbranch/diagramharness/internal/platform/errors"
	"github.com/louisbranch/diagramharness/internal/tools/nodecreation"
	"github.com/louisbranch/diagramharness/internal/tools/stepper"
)

// defaultQuietWindow is used by expect_quiet steps without ms.
const defaultQuietWindow = 200 * time.Millisecond

func (r *Runner) scheduleStep(seq *stepper.Sequence, svc *nodecreation.Service, state *scenarioState, step Step) error {
	switch step.Kind {
	case StepExpectRefresh:
		return r.scheduleExpectRefresh(seq, step)
	case StepExpectQuiet:
		window := time.Duration(optionalInt(step.Args, "ms", int(defaultQuietWindow/time.Millisecond))) * time.Millisecond
		if window <= 0 {
			return r.failf("expect_quiet ms must be positive")
		}
		seq.ExpectNoEvent(optionalString(step.Args, "name", "quiet"), window)
		return nil
	case StepCreateNode, StepCreateNodeOnEdge:
		req, err := r.nodeRequest(step)
		if err != nil {
			return err
		}
		if step.Kind == StepCreateNodeOnEdge {
			return svc.CreateNodeOnEdge(seq, req)
		}
		return svc.CreateNode(seq, req)
	case StepConnect:
		return r.scheduleConnect(seq, state, step)
	case StepCancel:
		seq.ThenCancel()
		return nil
	case StepDiagram:
		return r.failf("diagram step may only appear first")
	default:
		return r.failf("unknown step kind %q", step.Kind)
	}
}

// scheduleExpectRefresh consumes one refresh event and checks it against the
// optional nodes, has_label, lacks_label and cause arguments.
func (r *Runner) scheduleExpectRefresh(seq *stepper.Sequence, step Step) error {
	wantNodes, checkNodes := readInt(step.Args, "nodes")
	hasLabels := readStringSlice(step.Args, "has_label")
	lacksLabels := readStringSlice(step.Args, "lacks_label")
	wantCause := optionalString(step.Args, "cause", "")
	name := optionalString(step.Args, "name", "refresh")

	seq.ConsumeNext(name, func(evt event.Refreshed) error {
		if checkNodes {
			if got := evt.Diagram.NodeCount(); got != wantNodes {
				if err := r.assertf("%s: node count = %d, want %d", name, got, wantNodes); err != nil {
					return err
				}
			}
		}
		for _, label := range hasLabels {
			if _, ok := evt.Diagram.FindNodeByLabel(label); !ok {
				if _, isEdge := evt.Diagram.FindEdgeByLabel(label); !isEdge {
					if err := r.assertf("%s: label %q not found", name, label); err != nil {
						return err
					}
				}
			}
		}
		for _, label := range lacksLabels {
			_, isNode := evt.Diagram.FindNodeByLabel(label)
			_, isEdge := evt.Diagram.FindEdgeByLabel(label)
			if isNode || isEdge {
				if err := r.assertf("%s: label %q present", name, label); err != nil {
					return err
				}
			}
		}
		if wantCause != "" && evt.Cause != wantCause {
			if err := r.assertf("%s: cause = %q, want %q", name, evt.Cause, wantCause); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}

func (r *Runner) nodeRequest(step Step) (nodecreation.NodeRequest, error) {
	parent := requiredString(step.Args, "parent")
	if parent == "" {
		return nodecreation.NodeRequest{}, r.failf("%s parent is required", step.Kind)
	}
	label := requiredString(step.Args, "label")
	if label == "" {
		return nodecreation.NodeRequest{}, r.failf("%s label is required", step.Kind)
	}
	vars, err := readVariables(step.Args)
	if err != nil {
		return nodecreation.NodeRequest{}, r.failf("%s: %v", step.Kind, err)
	}
	return nodecreation.NodeRequest{
		ParentKind:  naming.Kind(parent),
		ParentLabel: label,
		ChildKind:   naming.Kind(optionalString(step.Args, "child", "")),
		ToolName:    optionalString(step.Args, "tool", ""),
		Variables:   vars,
	}, nil
}

// scheduleConnect adds an edge between two labelled nodes. Labels are
// resolved from the latest snapshot when the action runs.
func (r *Runner) scheduleConnect(seq *stepper.Sequence, state *scenarioState, step Step) error {
	kind := requiredString(step.Args, "kind")
	if kind == "" {
		return r.failf("connect kind is required")
	}
	if err := naming.Kind(kind).Validate(); err != nil {
		return r.failf("connect: %v", err)
	}
	source := requiredString(step.Args, "source")
	target := requiredString(step.Args, "target")
	if source == "" || target == "" {
		return r.failf("connect source and target are required")
	}
	label := optionalString(step.Args, "label", "")
	slot := seq.Slot()

	seq.Then(stepper.NewAction(fmt.Sprintf("connect %s %s -> %s", kind, source, target), func(ctx context.Context) error {
		diagram, ok := slot.Latest()
		if !ok || diagram == nil {
			return apperrors.New(apperrors.CodeSnapshotMissing, "no diagram snapshot observed yet")
		}
		ids := make([]string, 0, 2)
		for _, end := range []string{source, target} {
			node, ok := diagram.FindNodeByLabel(end)
			if !ok {
				return apperrors.WithMetadata(apperrors.CodeTargetNotFound, "edge end not found in snapshot",
					map[string]string{"target_label": end})
			}
			ids = append(ids, node.ID)
		}
		edge, err := r.client.Connect(ctx, state.sessionID, state.diagramID, naming.Kind(kind), label, ids[0], ids[1])
		if err != nil {
			return fmt.Errorf("connect %s: %w", kind, err)
		}
		r.logf("edge connected: %s (%s)", edge.Label, edge.ID)
		return nil
	}))
	return nil
}
