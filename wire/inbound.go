// Package wire implements the envelope shapes for the wire protocol:
// join/leave, inbound client events, async notifications, and outbound
// patch/push-event/flash/reply/redirect/close frames, all encoded as
// flat JSON arrays rather than objects.
package wire

import (
	"encoding/json"
	"fmt"
)

// Msg is a single inbound frame: a 5-element array of
// [join_ref, msg_ref, topic, event, payload].
type Msg struct {
	JoinRef string
	MsgRef  string
	Topic   string
	Event   string
	Payload map[string]any
}

// ParseMsg parses a raw inbound frame.
func ParseMsg(raw []byte) (*Msg, error) {
	var elems []any
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("wire: malformed frame: %w", err)
	}
	if len(elems) != 5 {
		return nil, fmt.Errorf("wire: frame must contain 5 elements, got %d", len(elems))
	}
	var strs [4]string
	for i, e := range elems[:4] {
		if e == nil {
			continue
		}
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("wire: element %d must be a string, got %T", i, e)
		}
		strs[i] = s
	}
	payload, ok := elems[4].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("wire: payload must be an object, got %T", elems[4])
	}
	return &Msg{
		JoinRef: strs[0],
		MsgRef:  strs[1],
		Topic:   strs[2],
		Event:   strs[3],
		Payload: payload,
	}, nil
}

// TopicPrefix is the topic prefix reserved for view sessions.
// Implementations must refuse user-registered channels under "dv:".
const TopicPrefix = "dv:"

// ViewTopicPrefix is the reserved namespace for view sessions specifically.
const ViewTopicPrefix = "dv:c:"

// JoinParams is the payload carried by a join frame: params may include a
// "caller" tuple (test attribution) and a "p" field carrying user params.
type JoinParams struct {
	Caller any
	P      map[string]any
}

// ParseJoinParams extracts the known fields from a join frame's payload.
func ParseJoinParams(payload map[string]any) JoinParams {
	jp := JoinParams{Caller: payload["caller"]}
	if p, ok := payload["p"].(map[string]any); ok {
		jp.P = p
	}
	return jp
}

// ClientEventPayload is the payload carried by an "e" frame:
// {e: name, p: payload}.
type ClientEventPayload struct {
	Name    string
	Payload map[string]any
}

// ParseClientEvent extracts the event name and payload from an "e" frame.
func ParseClientEvent(payload map[string]any) (ClientEventPayload, error) {
	name, ok := payload["e"].(string)
	if !ok {
		return ClientEventPayload{}, fmt.Errorf("wire: client event missing %q", "e")
	}
	p, _ := payload["p"].(map[string]any)
	return ClientEventPayload{Name: name, Payload: p}, nil
}
