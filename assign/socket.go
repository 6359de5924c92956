// Package assign owns the per-session assigns map, its change tracking,
// and the per-render-cycle scratch area (push events, pending reply,
// flash delta).
package assign

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
)

// ErrInvalidKey is returned when an assign key is not a symbol-like
// identifier.
var ErrInvalidKey = errors.New("assign: key must match [A-Za-z_][A-Za-z0-9_]*")

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidKey reports whether key is an acceptable assign identifier.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// Redirect is the socket's once-settable redirect marker.
type Redirect struct {
	To       string // local path, set for internal navigation
	External string // external URL, set when navigating off-site
}

// Socket is the per-session state the session actor exclusively owns:
// assigns and change hints, plus the redirect marker and the scratch area.
type Socket struct {
	// Assigns holds the session's named JSON-compatible values.
	Assigns map[string]any
	// Changed mirrors Assigns: for every key mutated since the last render,
	// Changed holds either the previous value (if it was a map, to enable
	// nested diff hints) or true.
	Changed map[string]any

	// Redirect is set once by the view or a lifecycle hook; re-setting it
	// is a programmer error.
	Redirect *Redirect

	// Scratch holds per-render-cycle outputs: queued push-events, a
	// pending reply, and the flash delta written this cycle.
	Scratch Scratch
}

// New returns an empty Socket ready for a view's mount.
func New() *Socket {
	return &Socket{
		Assigns: map[string]any{},
		Changed: map[string]any{},
	}
}

// Assign sets socket.Assigns[key] = value, recording a change hint,
// unless the new value is structurally equal to the current one. It
// reports ErrInvalidKey if key is not a valid identifier.
func Assign(s *Socket, key string, value any) (*Socket, error) {
	if !ValidKey(key) {
		return s, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return assign(s, key, value, false), nil
}

// Force assigns key = value unconditionally, skipping the equality check.
func Force(s *Socket, key string, value any) (*Socket, error) {
	if !ValidKey(key) {
		return s, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return assign(s, key, value, true), nil
}

func assign(s *Socket, key string, value any, force bool) *Socket {
	if !force {
		if prev, ok := s.Assigns[key]; ok && reflect.DeepEqual(prev, value) {
			return s
		}
	}
	prev := s.Assigns[key]
	s.Assigns[key] = value
	if m, ok := prev.(map[string]any); ok {
		s.Changed[key] = m
	} else {
		s.Changed[key] = true
	}
	return s
}

// AssignMap folds Assign over every entry in kv, stopping at the first
// invalid key.
func AssignMap(s *Socket, kv map[string]any) (*Socket, error) {
	for k, v := range kv {
		var err error
		s, err = Assign(s, k, v)
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

// AssignNew computes and assigns a value via fn only if key does not
// already exist in the assigns map.
func AssignNew(s *Socket, key string, fn func() any) (*Socket, error) {
	if !ValidKey(key) {
		return s, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if _, ok := s.Assigns[key]; ok {
		return s, nil
	}
	return assign(s, key, fn(), true), nil
}

// ResetChanged clears the per-cycle change hints after a render completes.
func ResetChanged(s *Socket) {
	s.Changed = map[string]any{}
}

// SetRedirect sets s.Redirect. Re-setting an already-set redirect is a
// programmer error.
func SetRedirect(s *Socket, r Redirect) error {
	if s.Redirect != nil {
		return errors.New("assign: redirect already set on socket")
	}
	s.Redirect = &r
	return nil
}
