package session

import "github.com/RodolfoSilva/live-data/assign"

// testKind enumerates the synchronous test-harness barriers: ping proves
// liveness and total ordering, render_sync proves the mailbox has
// drained up to this point (every Dispatch/SendInfo that returned before
// the call is fully handled; async results arrive on their own channel
// and are not ordered against it), and get_events/get_flash let a test
// driver inspect what the most recent render cycle emitted without
// needing a real transport.
type testKind int

const (
	testPing testKind = iota
	testRenderSync
	testGetEvents
	testGetFlash
)

type testRequest struct {
	kind testKind
	resp chan testResponse
}

type testResponse struct {
	events []assign.PushEvent
	flash  map[string]any
}

func (a *Actor) request(kind testKind) testResponse {
	resp := make(chan testResponse, 1)
	select {
	case a.testReq <- testRequest{kind: kind, resp: resp}:
	case <-a.stopped:
		return testResponse{}
	}
	select {
	case r := <-resp:
		return r
	case <-a.stopped:
		return testResponse{}
	}
}

// Ping blocks until every message enqueued before this call has been
// processed by the actor's mailbox, then returns. It never itself
// triggers a render.
func (a *Actor) Ping() { a.request(testPing) }

// RenderSync blocks until the mailbox has drained up to this point,
// guaranteeing any client event or info message sent before the call has
// already been handled and rendered. An async result that completed
// before the call may still be pending.
func (a *Actor) RenderSync() { a.request(testRenderSync) }

// GetEvents returns the push-events recorded by the most recent render
// cycle and clears them: a second call before the next render returns
// empty.
func (a *Actor) GetEvents() []assign.PushEvent {
	return a.request(testGetEvents).events
}

// GetFlash returns the flash delta written by the most recent render
// cycle and clears it, with the same exactly-once semantics as GetEvents.
func (a *Actor) GetFlash() map[string]any {
	return a.request(testGetFlash).flash
}

func (a *Actor) handleTestRequest(req testRequest) {
	var resp testResponse
	switch req.kind {
	case testGetEvents:
		resp.events = a.lastEvents
		a.lastEvents = nil
	case testGetFlash:
		resp.flash = a.lastFlash
		a.lastFlash = nil
	case testPing, testRenderSync:
		// No state to report; arriving here at all proves every message
		// enqueued ahead of this request has already been handled.
	}
	req.resp <- resp
}
