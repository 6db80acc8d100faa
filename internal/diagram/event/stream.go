package event

// Stream is a cancellable subscription to refresh events of one diagram.
// Events are delivered in emission order; the channel is closed when the
// stream ends, after which Err reports why (nil for a Close by the caller).
type Stream interface {
	Events() <-chan Refreshed
	Err() error
	Close() error
}

// Seed is a node placed on a diagram when it is opened.
type Seed struct {
	Kind  string
	Label string
}

// OpenDiagram asks the live service to create a diagram in an editing
// session. The session is created on first use.
type OpenDiagram struct {
	SessionID     string
	DescriptionID string
	Label         string
	Seeds         []Seed
}
