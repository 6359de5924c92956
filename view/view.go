// Package view defines the view-module contract: a small closed set of
// optional operations, modeled as capability interfaces so the session
// actor can type-assert for each one independently.
package view

import "github.com/RodolfoSilva/live-data/assign"

// Params is the data passed to a View's Mount, taken from the join
// envelope's "p" field.
type Params map[string]any

// Session carries connection-scoped metadata available at mount time
// (e.g. values lifecycle hooks stashed on the transport before join).
type Session map[string]any

// View is a marker interface every view module implements. A View must
// also implement Renderer; Mounter, EventHandler, and InfoHandler are all
// optional.
type View interface {
	Renderer
}

// Mounter is implemented by views that need setup work when a session
// joins: mount(params, socket) -> socket'.
type Mounter interface {
	Mount(params Params, session Session, s *assign.Socket) (*assign.Socket, error)
}

// EventResult is the outcome of handling a client event: either a plain
// continuation or a continuation carrying a reply payload.
type EventResult struct {
	Socket *assign.Socket
	Reply  map[string]any // non-nil selects the {reply, map, socket'} variant
}

// EventHandler is implemented by views that respond to client events:
// handle_event(name, payload, socket) -> {noreply|ok, socket'} |
// {reply, map, socket'}.
type EventHandler interface {
	HandleEvent(name string, payload map[string]any, s *assign.Socket) (EventResult, error)
}

// InfoHandler is implemented by views that respond to server-sent
// messages: handle_info(message, socket) -> socket'.
type InfoHandler interface {
	HandleInfo(message any, s *assign.Socket) (*assign.Socket, error)
}

// Renderer is the only mandatory operation: render(assigns) -> JSON tree.
type Renderer interface {
	Render(assigns map[string]any) (any, error)
}

// SelfNotifier is implemented by views that need to send themselves
// server-originated messages later (a ticker, a subscription callback).
// BindSelf is called once, before Mount, with a function equivalent to
// the session actor's own SendInfo; Mount itself has no context
// parameter to smuggle a handle through, so the capability is made
// explicit instead.
type SelfNotifier interface {
	BindSelf(send func(message any))
}

// Closer is implemented by views that hold resources needing explicit
// teardown (a ticker, a subscription) when their session terminates. The
// session actor checks for it via a type assertion and tolerates its
// absence.
type Closer interface {
	Close() error
}

// ComponentRef is a sub-component reference appearing inside a render
// tree: {id, module, assigns}. The Renderer replaces each occurrence
// with the result of invoking Module.Render(Assigns).
type ComponentRef struct {
	ID      string
	Module  Renderer
	Assigns map[string]any
}
