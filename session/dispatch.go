package session

import (
	"github.com/RodolfoSilva/live-data/async"
	"github.com/RodolfoSilva/live-data/view"
	"github.com/RodolfoSilva/live-data/wire"
)

// handleInbound dispatches one client-originated frame: a client event
// or a leave.
func (a *Actor) handleInbound(msg *wire.Msg) {
	switch msg.Event {
	case "phx_leave":
		a.stop("closed", nil)
		return
	case "e":
		a.handleClientEvent(msg)
	default:
		a.log.WithField("event", msg.Event).Warn("ignoring unrecognized inbound event")
	}
}

func (a *Actor) handleClientEvent(msg *wire.Msg) {
	ev, err := wire.ParseClientEvent(msg.Payload)
	if err != nil {
		a.crash(err, "malformed client event")
		return
	}

	var replyPayload map[string]any
	if h, ok := a.view.(view.EventHandler); ok {
		result, err := h.HandleEvent(ev.Name, ev.Payload, a.socket)
		if err != nil {
			a.crash(err, "handle_event failed")
			return
		}
		a.socket = result.Socket
		replyPayload = result.Reply
	}

	if a.bailOnRedirect(&msg.MsgRef) {
		return
	}

	scratchReply, err := a.renderCycle()
	if err != nil {
		a.crash(err, "render cycle failed")
		return
	}

	ref := msg.MsgRef
	switch {
	case replyPayload != nil:
		a.sendOrCrash(wire.NewOKReply(&ref, a.joinRef, a.topic, replyPayload))
	case scratchReply != nil:
		a.sendOrCrash(wire.NewOKReply(&ref, a.joinRef, a.topic, scratchReply.Payload))
	default:
		a.sendOrCrash(wire.NewOKReply(&ref, a.joinRef, a.topic, map[string]any{}))
	}
}

// handleInfo dispatches an arbitrary server-originated message.
func (a *Actor) handleInfo(message any) {
	if h, ok := a.view.(view.InfoHandler); ok {
		next, err := h.HandleInfo(message, a.socket)
		if err != nil {
			a.crash(err, "handle_info failed")
			return
		}
		a.socket = next
	}
	if a.bailOnRedirect(nil) {
		return
	}
	if err := a.renderAndSend(); err != nil {
		a.crash(err, "render cycle failed")
	}
}

// handleAsyncResult folds one completed async attempt into the socket,
// discarding it if it has been superseded.
func (a *Actor) handleAsyncResult(msg async.Message) {
	if !a.asyncMgr.IsCurrent(msg.Ref, msg.Keys) {
		return
	}
	socket, err := async.Fold(a.socket, msg)
	if err != nil {
		a.crash(err, "async fold failed")
		return
	}
	a.socket = socket
	if a.metrics != nil {
		a.metrics.AsyncOutcome(a.topic, msg.Result.OK)
	}
	if a.bailOnRedirect(nil) {
		return
	}
	if err := a.renderAndSend(); err != nil {
		a.crash(err, "render cycle failed")
	}
}

// bailOnRedirect checks whether the current handler set a redirect on the
// socket; if so it emits the redirect (as a push if no msg ref is
// outstanding, or folded into the reply to msgRef otherwise) and
// terminates the actor.
func (a *Actor) bailOnRedirect(msgRef *string) bool {
	if a.socket.Redirect == nil {
		return false
	}
	kind, target := redirectKindAndTarget(a.socket.Redirect)
	var err error
	if msgRef != nil {
		err = sendFrame(a.transport, wire.NewRedirectReply(msgRef, a.joinRef, a.topic, kind, target))
	} else {
		err = sendFrame(a.transport, wire.NewRedirectEnvelope(a.joinRef, a.topic, kind, target))
	}
	if err != nil {
		a.log.WithError(err).Error("failed to send redirect frame")
	}
	a.stop("shutdown:redirect", nil)
	return true
}

// crash logs a user-callback failure and terminates the actor, leaving
// assigns unmodified.
func (a *Actor) crash(err error, msg string) {
	a.log.WithError(err).Error(msg)
	a.stop("crash", err)
}

func (a *Actor) sendOrCrash(v any) {
	if err := sendFrame(a.transport, v); err != nil {
		a.crash(err, "failed to send frame")
	}
}
