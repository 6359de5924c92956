package session

import "encoding/json"

// marshalJSON is the actor's sole JSON encoding entry point, kept as a
// thin wrapper so every outbound frame goes through one place.
func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
