package stepper

import "context"

// Action is a deferred side effect. It is built when scheduled and run only
// when the sequence reaches it.
type Action interface {
	Name() string
	Run(ctx context.Context) error
}

type funcAction struct {
	name string
	fn   func(context.Context) error
}

// NewAction adapts a named closure to Action.
func NewAction(name string, fn func(context.Context) error) Action {
	return funcAction{name: name, fn: fn}
}

func (a funcAction) Name() string { return a.name }

func (a funcAction) Run(ctx context.Context) error {
	if a.fn == nil {
		return nil
	}
	return a.fn(ctx)
}
