package stepper

import "github.com/louisbranch/diagramharness/internal/diagram/event"

// SnapshotSlot holds the latest observed diagram in a single-slot channel.
// The sequence writes it once per consumed event and actions read it right
// before they run; the sequence never runs both at once.
type SnapshotSlot struct {
	ch chan *event.Diagram
}

// NewSnapshotSlot returns an empty slot.
func NewSnapshotSlot() *SnapshotSlot {
	return &SnapshotSlot{ch: make(chan *event.Diagram, 1)}
}

// Publish replaces the held snapshot.
func (s *SnapshotSlot) Publish(d *event.Diagram) {
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- d:
	default:
	}
}

// Latest returns the held snapshot without blocking and without consuming
// it. It reports false until the first Publish.
func (s *SnapshotSlot) Latest() (*event.Diagram, bool) {
	select {
	case d := <-s.ch:
		select {
		case s.ch <- d:
		default:
		}
		return d, true
	default:
		return nil, false
	}
}
