package assign

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssignSkipsEqualValue(t *testing.T) {
	s := New()
	s, err := Assign(s, "counter", 0)
	require.NoError(t, err)
	ResetChanged(s)

	s, err = Assign(s, "counter", 0)
	require.NoError(t, err)
	require.Empty(t, s.Changed, "assigning an equal value must not mark the key changed")
}

func TestAssignRejectsInvalidKey(t *testing.T) {
	s := New()
	_, err := Assign(s, "1bad", 1)
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestAssignTracksPreviousMapForNestedHints(t *testing.T) {
	s := New()
	s, err := Assign(s, "profile", map[string]any{"name": "a"})
	require.NoError(t, err)
	ResetChanged(s)

	s, err = Assign(s, "profile", map[string]any{"name": "b"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "a"}, s.Changed["profile"])
}

func TestAssignNewIsNoopWhenKeyExists(t *testing.T) {
	s := New()
	calls := 0
	s, err := AssignNew(s, "lazy", func() any { calls++; return 1 })
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	s, err = AssignNew(s, "lazy", func() any { calls++; return 2 })
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, 1, s.Assigns["lazy"])
}

func TestForceSkipsEqualityCheck(t *testing.T) {
	s := New()
	s, _ = Assign(s, "x", 1)
	ResetChanged(s)
	s, err := Force(s, "x", 1)
	require.NoError(t, err)
	require.Contains(t, s.Changed, "x")
}

func TestPutFlashWritesAssignAndScratch(t *testing.T) {
	s := New()
	PutFlash(s, "info", "Incremented!")
	require.Equal(t, map[string]any{"info": "Incremented!"}, s.Assigns["flash"])
	require.Equal(t, map[string]any{"info": "Incremented!"}, GetFlash(s))

	ResetScratch(s)
	require.Empty(t, GetFlash(s))
	require.Equal(t, map[string]any{"info": "Incremented!"}, s.Assigns["flash"], "flash assign persists across render cycles")
}

func TestPushEventOrderAndReset(t *testing.T) {
	s := New()
	PushEventTo(s, "chart", map[string]any{"a": 1})
	PushEventTo(s, "toast", "done")
	events := GetEvents(s)
	require.Len(t, events, 2)
	require.Equal(t, "chart", events[0].Name)
	require.Equal(t, "toast", events[1].Name)

	ResetScratch(s)
	require.Empty(t, GetEvents(s))
}

func TestGetReplyOverwritesWithinCycle(t *testing.T) {
	s := New()
	PutReply(s, map[string]any{"a": 1})
	PutReply(s, map[string]any{"b": 2})
	require.Equal(t, map[string]any{"b": 2}, GetReply(s).Payload)
}
