// Package transport adapts a gorilla/websocket connection to the
// session.Transport collaborator interface and runs the per-connection
// read loop that turns inbound frames into Join/Dispatch/TransportDown
// calls against a session.Actor.
package transport

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/RodolfoSilva/live-data/session"
	"github.com/RodolfoSilva/live-data/wire"
)

var upgrader = &websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}

// Adapter wraps a *websocket.Conn as a session.Transport.
type Adapter struct {
	conn *websocket.Conn
}

// NewAdapter wraps an already-upgraded connection.
func NewAdapter(conn *websocket.Conn) *Adapter {
	return &Adapter{conn: conn}
}

// Send implements session.Transport.
func (a *Adapter) Send(frame []byte) error {
	return a.conn.WriteMessage(websocket.TextMessage, frame)
}

// Close implements session.Transport.
func (a *Adapter) Close() error {
	return a.conn.Close()
}

// Serve upgrades r to a websocket connection and runs its read loop until
// the client disconnects. The first frame must be a join; every frame
// after that is dispatched to the resulting session.Actor. opts are
// passed through to session.Join (e.g. session.WithMetrics,
// session.WithLogger).
func Serve(w http.ResponseWriter, r *http.Request, resolver session.Resolver, opts ...session.Option) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("transport: upgrade failed: %w", err)
	}
	defer conn.Close()

	adapter := NewAdapter(conn)
	var actor *session.Actor

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if actor != nil {
				actor.TransportDown()
			}
			return nil
		}

		msg, err := wire.ParseMsg(raw)
		if err != nil {
			// Malformed frame on an unestablished connection: nothing to
			// reply on, so drop the connection rather than loop forever.
			if actor == nil {
				return fmt.Errorf("transport: malformed join frame: %w", err)
			}
			continue
		}

		if actor == nil {
			if msg.Event != "join" {
				continue
			}
			route := strings.TrimPrefix(msg.Topic, wire.ViewTopicPrefix)
			jp := wire.ParseJoinParams(msg.Payload)
			joinRef, msgRef := msg.JoinRef, msg.MsgRef
			actor, err = session.Join(resolver, route, adapter, &joinRef, &msgRef, jp.P, nil, opts...)
			if err != nil {
				return fmt.Errorf("transport: join failed: %w", err)
			}
			actor.Start()
			continue
		}

		actor.Dispatch(msg)
	}
}
