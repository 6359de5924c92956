// Package router registers routes to view factories and refuses any
// pattern under the wire-reserved "dv:" namespace at registration time.
// It wraps gorilla/mux and builds an ahead-of-time registry that a
// session.Resolver looks up against on every join.
package router

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/RodolfoSilva/live-data/async"
	"github.com/RodolfoSilva/live-data/hooks"
	"github.com/RodolfoSilva/live-data/session"
	"github.com/RodolfoSilva/live-data/view"
	"github.com/RodolfoSilva/live-data/wire"
)

// ViewFactory builds a fresh View for one joining session, closing over
// mgr so the view's Mount can call async.AssignAsync against it.
type ViewFactory func(mgr *async.Manager) view.View

// Registration is one registered route's view factory and lifecycle
// hooks.
type Registration struct {
	Factory ViewFactory
	Hooks   hooks.Chain
}

// Router registers view routes and produces a session.Resolver for them.
// It also embeds a gorilla/mux router so the same process can serve
// ordinary HTTP alongside view sessions.
type Router struct {
	mu    sync.RWMutex
	mux   *mux.Router
	views map[string]Registration
}

// New returns an empty Router.
func New() *Router {
	return &Router{mux: mux.NewRouter(), views: map[string]Registration{}}
}

// HandleView registers a view factory at pattern. It returns an error if
// pattern falls under the reserved "dv:" namespace or is already
// registered.
func (r *Router) HandleView(pattern string, factory ViewFactory, chain hooks.Chain) error {
	if strings.HasPrefix(pattern, wire.TopicPrefix) {
		return fmt.Errorf("router: pattern %q is reserved for view sessions (the %q namespace is internal)", pattern, wire.TopicPrefix)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.views[pattern]; exists {
		return fmt.Errorf("router: route %q is already registered", pattern)
	}
	r.views[pattern] = Registration{Factory: factory, Hooks: chain}
	r.mux.NewRoute().Path(pattern).HandlerFunc(r.serveShell(pattern))
	return nil
}

// serveShell renders the minimal static page that bootstraps a client
// connection to the websocket transport and immediately joins pattern's
// topic. Real deployments replace this with their own asset pipeline and
// templating; this package's scope ends at the wire protocol, not the
// HTML it is framed inside of.
func (r *Router) serveShell(pattern string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, shellTemplate, wire.ViewTopicPrefix+pattern)
	}
}

const shellTemplate = `<!doctype html>
<html>
<head><meta charset="utf-8"></head>
<body>
<script>
  const topic = %q;
  const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/live/websocket");
  ws.onopen = () => ws.send(JSON.stringify(["1", "1", topic, "join", {p: {}}]));
</script>
</body>
</html>
`

// ServeHTTP lets Router act as a plain http.Handler for whatever
// non-websocket routes the embedding application also serves (page
// shells, static assets); view sessions are joined through Resolver over
// a transport.Adapter, not through this mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Resolver builds the session.Resolver backing Join, looking up the
// registered factory for a route and instantiating a fresh View bound to
// the session's own async.Manager.
func (r *Router) Resolver() session.Resolver {
	return func(route string, mgr *async.Manager) (session.ResolvedRoute, bool) {
		r.mu.RLock()
		reg, ok := r.views[route]
		r.mu.RUnlock()
		if !ok {
			return session.ResolvedRoute{}, false
		}
		return session.ResolvedRoute{View: reg.Factory(mgr), Hooks: reg.Hooks}, true
	}
}
