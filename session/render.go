package session

import (
	"fmt"

	"github.com/RodolfoSilva/live-data/assign"
	"github.com/RodolfoSilva/live-data/patch"
	"github.com/RodolfoSilva/live-data/render"
	"github.com/RodolfoSilva/live-data/wire"
)

// renderCycle runs one render+diff+emit cycle: it
// renders the view against the current assigns, diffs against the last
// rendered tree, bumps the render counter, sends the patch envelope and
// any queued push-events through transport in order, snapshots the
// cycle's events/flash for the test harness, and finally resets scratch.
// It returns the cycle's pending reply, if the view set one, for the
// caller to frame with the appropriate msg ref.
func (a *Actor) renderCycle() (*assign.Reply, error) {
	tree, _, err := render.Tree(a.view, a.socket.Assigns)
	if err != nil {
		return nil, fmt.Errorf("session: render failed: %w", err)
	}

	ops, err := patch.Diff(a.lastTree, tree)
	if err != nil {
		return nil, fmt.Errorf("session: diff failed: %w", err)
	}
	a.lastTree = tree
	a.renderCount++

	flash := a.socket.Scratch.Flash
	events := a.socket.Scratch.Events
	reply := a.socket.Scratch.Reply

	if err := sendFrame(a.transport, wire.NewPatchEnvelope(a.joinRef, a.topic, ops, a.renderCount, flash)); err != nil {
		return nil, err
	}
	for _, ev := range events {
		if err := sendFrame(a.transport, wire.NewEventEnvelope(a.joinRef, a.topic, ev.Name, ev.Payload)); err != nil {
			return nil, err
		}
	}

	a.lastEvents = events
	a.lastFlash = flash

	if a.metrics != nil {
		a.metrics.RenderCycle(a.topic, a.renderCount)
	}

	assign.ResetScratch(a.socket)
	return reply, nil
}

// renderAndSend runs a render cycle for a path with no inbound msg ref to
// reply to (join's first render, handle_info, async_result). A reply the
// view queued in this situation has nowhere to go and is dropped; this is
// a misuse of PutReply outside a client-event handler, not a normal path.
func (a *Actor) renderAndSend() error {
	reply, err := a.renderCycle()
	if err != nil {
		return err
	}
	if reply != nil {
		a.log.Warn("view queued a reply outside of handle_event; dropping it")
	}
	return nil
}
