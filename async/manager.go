package async

import (
	"context"
	"sync"

	"github.com/google/uuid"
	channerics "github.com/niceyeti/channerics/channels"

	"github.com/RodolfoSilva/live-data/assign"
)

// Message is the self-addressed notification an async attempt delivers
// back to the owning session actor on completion.
type Message struct {
	Ref         string
	ComponentID string // empty selects the root view; non-root components are a future extension
	Keys        []string
	Result      Result // the folded per-attempt Result; Value holds the per-key map on success
}

// Producer is user-provided asynchronous work. It must return either a
// map with an entry per requested key, or an error.
type Producer func(ctx context.Context) (map[string]any, error)

// Manager owns the in-flight async attempts for a single session actor. It
// is not safe for concurrent use by more than one actor.
type Manager struct {
	mu      sync.Mutex
	current map[string]string // assign key -> current attempt ref
	cancel  map[string]context.CancelFunc

	done chan struct{}
	out  chan Message
}

// NewManager returns a Manager whose result channel is closed (and all
// in-flight attempts best-effort cancelled) once Close is called.
func NewManager() *Manager {
	return &Manager{
		current: map[string]string{},
		cancel:  map[string]context.CancelFunc{},
		done:    make(chan struct{}),
		out:     make(chan Message, 16),
	}
}

// Results returns a channel of completion notifications, already filtered
// to stop yielding once the Manager is closed (channerics.OrDone).
func (m *Manager) Results() <-chan Message {
	return channerics.OrDone(m.done, m.out)
}

// Close cancels every in-flight attempt (best-effort) and stops the
// Results channel from yielding further messages.
func (m *Manager) Close() {
	m.mu.Lock()
	for _, cancel := range m.cancel {
		cancel()
	}
	m.mu.Unlock()
	close(m.done)
}

// AssignAsync assigns a Loading AsyncResult for each key, then spawns a
// supervised goroutine running producer. A superseding call for any of
// the same keys cancels the prior attempt (best-effort) and its late
// result, if it arrives, is discarded by IsCurrent.
func AssignAsync(s *assign.Socket, m *Manager, keys []string, producer Producer) (*assign.Socket, error) {
	for _, k := range keys {
		if !assign.ValidKey(k) {
			return s, assign.ErrInvalidKey
		}
	}

	ref := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	for _, k := range keys {
		if priorRef, ok := m.current[k]; ok {
			if priorCancel, ok := m.cancel[priorRef]; ok {
				priorCancel()
			}
		}
		m.current[k] = ref
	}
	m.cancel[ref] = cancel
	m.mu.Unlock()

	var err error
	for _, k := range keys {
		s, err = assign.Force(s, k, Loading())
		if err != nil {
			return s, err
		}
	}

	go func() {
		values, perr := producer(ctx)
		var result Result
		if perr != nil {
			result = Err(perr)
		} else {
			result = Ok(values)
		}
		select {
		case m.out <- Message{Ref: ref, Keys: keys, Result: result}:
		case <-m.done:
		}
	}()

	return s, nil
}

// IsCurrent reports whether ref is still the live attempt for every key
// it was spawned for; a stale ref's result must be discarded.
func (m *Manager) IsCurrent(ref string, keys []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		if m.current[k] != ref {
			return false
		}
	}
	return true
}

// Fold applies a completion Message to the socket per key: on success,
// each key is assigned Ok(value[key]); on failure, every key is assigned
// the same Failed/Err result.
func Fold(s *assign.Socket, msg Message) (*assign.Socket, error) {
	var err error
	if msg.Result.OK {
		values, _ := msg.Result.Value.(map[string]any)
		for _, k := range msg.Keys {
			s, err = assign.Force(s, k, Ok(values[k]))
			if err != nil {
				return s, err
			}
		}
		return s, nil
	}
	for _, k := range msg.Keys {
		s, err = assign.Force(s, k, msg.Result)
		if err != nil {
			return s, err
		}
	}
	return s, nil
}
