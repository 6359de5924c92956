// Package hooks implements an ordered pre-mount lifecycle chain: an
// arbitrary ordered list of on_mount callbacks with cont/halt control
// flow, run before a view's own Mount.
package hooks

import "github.com/RodolfoSilva/live-data/assign"

// Outcome is the control-flow result of a single hook.
type Outcome int

const (
	// Cont lets the lifecycle chain and view.Mount continue.
	Cont Outcome = iota
	// Halt skips every remaining hook and view.Mount; the returned socket
	// is used as-is (including any redirect it set).
	Halt
)

// Hook is one on_mount callback.
type Hook func(params map[string]any, session map[string]any, s *assign.Socket) (Outcome, *assign.Socket, error)

// Chain is an ordered list of hooks, run in registration order.
type Chain []Hook

// Run executes every hook in order, short-circuiting on the first Halt or
// error. It returns the resulting socket and whether the view's own
// Mount should still run; Mount is only invoked if every hook conts.
func (c Chain) Run(params map[string]any, session map[string]any, s *assign.Socket) (*assign.Socket, bool, error) {
	for _, h := range c {
		outcome, next, err := h(params, session, s)
		if err != nil {
			return s, false, err
		}
		s = next
		if outcome == Halt {
			return s, false, nil
		}
	}
	return s, true, nil
}
