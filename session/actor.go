// Package session implements the session actor: the per-subscription
// long-lived process that mounts a view, owns its assigns, dispatches
// inbound events, runs the render+diff+patch pipeline, and frames
// outbound messages. Its single-threaded, mailbox-driven select loop
// runs one goroutine per session: one goroutine reading the transport,
// one select over typed channels dispatching to the current view and
// re-rendering after every handler.
package session

import (
	"fmt"
	"sync"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
	"github.com/sirupsen/logrus"

	"github.com/RodolfoSilva/live-data/assign"
	"github.com/RodolfoSilva/live-data/async"
	"github.com/RodolfoSilva/live-data/hooks"
	"github.com/RodolfoSilva/live-data/view"
	"github.com/RodolfoSilva/live-data/wire"
)

// Transport is the duplex message channel the session actor consumes,
// a collaborator defined only by the interface the core needs.
type Transport interface {
	// Send writes one framed outbound message.
	Send(frame []byte) error
	// Close tears down the connection, used on redirect/shutdown.
	Close() error
}

// Metrics is the observability collaborator the actor reports render and
// async outcomes to. A nil Metrics is valid and is a no-op.
type Metrics interface {
	RenderCycle(topic string, renderCount int)
	AsyncOutcome(topic string, ok bool)
	SessionStarted()
	SessionStopped(reason string)
}

// ResolvedRoute is what a router.Resolver produces for a route string.
type ResolvedRoute struct {
	View  view.View
	Hooks hooks.Chain
}

// Resolver maps a route string to a ResolvedRoute, or reports no match.
// It receives the session's async Manager so a view factory can close
// over it and give assign_async calls somewhere to register their
// in-flight attempts.
type Resolver func(route string, mgr *async.Manager) (ResolvedRoute, bool)

// state is the session actor's lifecycle state.
type state int

const (
	stateInit state = iota
	stateMounting
	stateReady
	stateTerminated
)

// Actor is the per-subscription session actor.
type Actor struct {
	mu sync.Mutex

	state state
	topic string
	view  view.View

	socket      *assign.Socket
	renderCount int
	lastTree    any

	asyncMgr *async.Manager

	transport      Transport
	joinRef        *string
	metrics        Metrics
	log            *logrus.Entry
	hibernateAfter time.Duration

	lastEvents []assign.PushEvent
	lastFlash  map[string]any

	inbound  chan *wire.Msg
	info     chan any
	testReq  chan testRequest
	stopped  chan struct{}
	stopOnce sync.Once

	stopReason string
}

// Option configures an Actor at construction time.
type Option func(*Actor)

// WithMetrics attaches a Metrics collaborator.
func WithMetrics(m Metrics) Option { return func(a *Actor) { a.metrics = m } }

// WithLogger attaches a structured logger, used for crash and
// termination logging.
func WithLogger(l *logrus.Entry) Option { return func(a *Actor) { a.log = l } }

// WithHibernateAfter overrides the default 15s idle hibernation window.
func WithHibernateAfter(d time.Duration) Option {
	return func(a *Actor) { a.hibernateAfter = d }
}

const defaultHibernateAfter = 15 * time.Second

func newActor(topic string, v view.View, transport Transport, mgr *async.Manager, opts ...Option) *Actor {
	a := &Actor{
		state:          stateInit,
		topic:          topic,
		view:           v,
		socket:         assign.New(),
		renderCount:    -1,
		transport:      transport,
		asyncMgr:       mgr,
		hibernateAfter: defaultHibernateAfter,
		// Unbuffered: a send only completes once the actor's select loop
		// has taken ownership of it, so a caller's sequential
		// Dispatch/SendInfo/Ping calls are each fully handled before the
		// next one is even accepted.
		inbound: make(chan *wire.Msg),
		info:    make(chan any),
		testReq: make(chan testRequest),
		stopped: make(chan struct{}),
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithFields(logrus.Fields{"topic": topic})
	return a
}

// Join resolves route via resolver and, if found, runs the lifecycle
// hooks + view.Mount, sending the join reply and the first render cycle's
// frames directly through transport before returning. Because this all
// happens synchronously, before Start launches the mailbox goroutine,
// there is no race with later sends: the ok reply is guaranteed to precede
// the first "o" envelope.
func Join(resolver Resolver, route string, transport Transport, joinRef, msgRef *string, params map[string]any, sessionData map[string]any, opts ...Option) (*Actor, error) {
	topic := wire.ViewTopicPrefix + route
	mgr := async.NewManager()
	resolved, ok := resolver(route, mgr)
	if !ok {
		mgr.Close()
		if sendErr := sendFrame(transport, wire.NewErrorReply(msgRef, joinRef, topic, "no_route")); sendErr != nil {
			return nil, sendErr
		}
		return nil, fmt.Errorf("session: no route registered for %q", route)
	}

	a := newActor(topic, resolved.View, transport, mgr, opts...)
	a.joinRef = joinRef
	a.state = stateMounting

	if sn, ok := a.view.(view.SelfNotifier); ok {
		sn.BindSelf(a.SendInfo)
	}

	socket, shouldMount, err := resolved.Hooks.Run(params, sessionData, a.socket)
	a.socket = socket
	if err != nil {
		a.log.WithError(err).Error("lifecycle hook failed during join")
		return nil, fmt.Errorf("session: lifecycle hook failed: %w", err)
	}

	if shouldMount {
		if m, ok := a.view.(view.Mounter); ok {
			a.socket, err = m.Mount(params, sessionData, a.socket)
			if err != nil {
				a.log.WithError(err).Error("view.Mount failed")
				return nil, fmt.Errorf("session: mount failed: %w", err)
			}
		}
	}

	if a.socket.Redirect != nil {
		// Mount requested a redirect before any render happened; reply ok
		// with the redirect embedded.
		kind, target := redirectKindAndTarget(a.socket.Redirect)
		if err := sendFrame(transport, wire.NewRedirectReply(msgRef, joinRef, topic, kind, target)); err != nil {
			return nil, err
		}
		a.state = stateTerminated
		return a, nil
	}

	a.state = stateReady
	if err := sendFrame(transport, wire.NewOKReply(msgRef, joinRef, topic, map[string]any{})); err != nil {
		return nil, err
	}
	if err := a.renderAndSend(); err != nil {
		return nil, err
	}

	if a.metrics != nil {
		a.metrics.SessionStarted()
	}
	return a, nil
}

func redirectKindAndTarget(r *assign.Redirect) (wire.RedirectKind, string) {
	if r.External != "" {
		return wire.RedirectExternal, r.External
	}
	return wire.RedirectLocal, r.To
}

func sendFrame(t Transport, v any) error {
	b, err := marshalJSON(v)
	if err != nil {
		return fmt.Errorf("session: marshal frame: %w", err)
	}
	return t.Send(b)
}

// Start launches the actor's mailbox loop in a new goroutine. It returns
// immediately; Stopped can be waited on for termination.
func (a *Actor) Start() {
	go a.serve()
}

// Stopped returns a channel closed once the actor has terminated.
func (a *Actor) Stopped() <-chan struct{} { return a.stopped }

// StopReason returns the terminal reason once the actor has stopped:
// closed | shutdown:redirect | crash.
func (a *Actor) StopReason() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopReason
}

// Dispatch delivers one client-originated frame (event or leave) to the
// actor's mailbox.
func (a *Actor) Dispatch(msg *wire.Msg) {
	select {
	case a.inbound <- msg:
	case <-a.stopped:
	}
}

// SendInfo delivers an arbitrary server-originated message to the actor's
// mailbox.
func (a *Actor) SendInfo(message any) {
	select {
	case a.info <- message:
	case <-a.stopped:
	}
}

// TransportDown notifies the actor that its transport has disconnected.
func (a *Actor) TransportDown() {
	a.stop("closed", nil)
}

func (a *Actor) stop(reason string, closeErr error) {
	a.stopOnce.Do(func() {
		a.mu.Lock()
		a.state = stateTerminated
		a.stopReason = reason
		a.mu.Unlock()
		a.asyncMgr.Close()
		close(a.stopped)
		if c, ok := a.view.(view.Closer); ok {
			if err := c.Close(); err != nil {
				a.log.WithError(err).Warn("view.Close failed")
			}
		}
		if reason != "closed" {
			// "closed" means the transport already went away; any other
			// reason means the actor itself is ending the connection.
			if err := a.transport.Close(); err != nil && closeErr == nil {
				closeErr = err
			}
		}
		if a.metrics != nil {
			a.metrics.SessionStopped(reason)
		}
		if closeErr != nil {
			a.log.WithError(closeErr).WithField("reason", reason).Info("session actor stopped")
		} else {
			a.log.WithField("reason", reason).Info("session actor stopped")
		}
	})
}

// serve is the actor's single-threaded select loop: one goroutine owns
// the socket and every handler call, so no locking is needed around
// assigns or view state. asyncResults is wrapped with channerics.OrDone
// so it stops yielding once the actor's stopped channel closes.
func (a *Actor) serve() {
	asyncResults := channerics.OrDone(a.stopped, a.asyncMgr.Results())
	ticker := channerics.NewTicker(a.stopped, a.hibernateAfter)

	for {
		select {
		case msg, ok := <-a.inbound:
			if !ok {
				return
			}
			a.handleInbound(msg)
		case m, ok := <-a.info:
			if !ok {
				return
			}
			a.handleInfo(m)
		case result, ok := <-asyncResults:
			if !ok {
				continue
			}
			a.handleAsyncResult(result)
		case req, ok := <-a.testReq:
			if !ok {
				continue
			}
			a.handleTestRequest(req)
		case <-ticker:
			// Hibernation tick: no-op for now, preserved so an idle
			// session's liveness is observable.
		case <-a.stopped:
			return
		}
	}
}
