package wire

import (
	"encoding/json"

	"github.com/RodolfoSilva/live-data/patch"
)

// PatchPayload is the payload of a server->client patch envelope:
// {o: compressed_patch, c: render_count, f: flash_delta?}.
type PatchPayload struct {
	O []patch.CompressedOp `json:"o"`
	C int                  `json:"c"`
	F map[string]any       `json:"f,omitempty"`
}

// Push is one outbound frame on a joined topic, encoded as a 5-element
// array: [join_ref, msg_ref, topic, event, payload]. msg_ref is always
// absent on a push (it is not a reply to any specific inbound message).
type Push struct {
	JoinRef *string
	Topic   string
	Event   string
	Payload any
}

func (p *Push) MarshalJSON() ([]byte, error) {
	return json.Marshal([5]any{p.JoinRef, nil, p.Topic, p.Event, p.Payload})
}

// NewPatchEnvelope builds the patch envelope for one render cycle:
// {event: "o", payload: {o, c, f?}}.
func NewPatchEnvelope(joinRef *string, topic string, ops []patch.CompressedOp, renderCount int, flash map[string]any) *Push {
	return &Push{
		JoinRef: joinRef,
		Topic:   topic,
		Event:   "o",
		Payload: PatchPayload{O: ops, C: renderCount, F: flash},
	}
}

// NewEventEnvelope builds a push-event envelope:
// {event: <user_name>, payload: <user_payload>}.
func NewEventEnvelope(joinRef *string, topic, name string, payload any) *Push {
	return &Push{JoinRef: joinRef, Topic: topic, Event: name, Payload: payload}
}

// RedirectKind distinguishes local path redirects from external URL
// ones.
type RedirectKind int

const (
	RedirectLocal RedirectKind = iota
	RedirectExternal
)

// RedirectPayload is the payload of a redirect envelope:
// {to: path} | {external: url}.
type RedirectPayload struct {
	To       string `json:"to,omitempty"`
	External string `json:"external,omitempty"`
}

// NewRedirectEnvelope builds a push "redirect" envelope, used when no
// reply is outstanding.
func NewRedirectEnvelope(joinRef *string, topic string, kind RedirectKind, target string) *Push {
	p := RedirectPayload{}
	if kind == RedirectExternal {
		p.External = target
	} else {
		p.To = target
	}
	return &Push{JoinRef: joinRef, Topic: topic, Event: "redirect", Payload: p}
}

// Reply is a response to a specific inbound message: Reply{ref, join_ref,
// topic, status, payload}, encoded with the same array-tuple
// MarshalJSON convention as Push.
type Reply struct {
	Ref     *string
	JoinRef *string
	Topic   string
	Status  string // "ok" | "error"
	Payload map[string]any
}

type replyPayload struct {
	Status   string         `json:"status"`
	Response map[string]any `json:"response,omitempty"`
}

func (r *Reply) MarshalJSON() ([]byte, error) {
	return json.Marshal([5]any{r.JoinRef, r.Ref, r.Topic, "phx_reply", replyPayload{
		Status:   r.Status,
		Response: r.Payload,
	}})
}

// NewOKReply builds a successful reply to an inbound client event carrying
// the view's scratch reply payload, if any.
func NewOKReply(ref, joinRef *string, topic string, payload map[string]any) *Reply {
	return &Reply{Ref: ref, JoinRef: joinRef, Topic: topic, Status: "ok", Payload: payload}
}

// NewErrorReply builds an error reply, used on join when no route
// matches.
func NewErrorReply(ref, joinRef *string, topic string, reason string) *Reply {
	return &Reply{Ref: ref, JoinRef: joinRef, Topic: topic, Status: "error", Payload: map[string]any{"reason": reason}}
}

// NewRedirectReply builds the {ok, {redirect: opts}} reply used when a
// redirect happens while a reply is already outstanding.
func NewRedirectReply(ref, joinRef *string, topic string, kind RedirectKind, target string) *Reply {
	p := RedirectPayload{}
	if kind == RedirectExternal {
		p.External = target
	} else {
		p.To = target
	}
	return &Reply{Ref: ref, JoinRef: joinRef, Topic: topic, Status: "ok", Payload: map[string]any{"redirect": p}}
}
