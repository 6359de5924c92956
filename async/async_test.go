package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RodolfoSilva/live-data/assign"
)

// S4 - async assign (spec §8): mount sets assign_async(:lazy_counter, fn ->
// {ok, {lazy_counter: 3}}).
func TestAssignAsyncSucceeds(t *testing.T) {
	m := NewManager()
	defer m.Close()

	s := assign.New()
	s, err := AssignAsync(s, m, []string{"lazy_counter"}, func(ctx context.Context) (map[string]any, error) {
		return map[string]any{"lazy_counter": 3}, nil
	})
	require.NoError(t, err)

	result := s.Assigns["lazy_counter"].(Result)
	require.True(t, result.Loading)

	select {
	case msg := <-m.Results():
		require.True(t, m.IsCurrent(msg.Ref, msg.Keys))
		s, err = Fold(s, msg)
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for async result")
	}

	final := s.Assigns["lazy_counter"].(Result)
	require.True(t, final.OK)
	require.Equal(t, 3, final.Value)
}

func TestAssignAsyncFailurePopulatesFailed(t *testing.T) {
	m := NewManager()
	defer m.Close()

	s := assign.New()
	boom := errors.New("boom")
	s, err := AssignAsync(s, m, []string{"x"}, func(ctx context.Context) (map[string]any, error) {
		return nil, boom
	})
	require.NoError(t, err)

	msg := <-m.Results()
	s, err = Fold(s, msg)
	require.NoError(t, err)

	final := s.Assigns["x"].(Result)
	require.True(t, final.Loading == false && final.OK == false)
	require.ErrorIs(t, final.Failed, boom)
}

func TestSupersedingCallCancelsPriorAttempt(t *testing.T) {
	m := NewManager()
	defer m.Close()

	s := assign.New()
	started := make(chan struct{})
	s, err := AssignAsync(s, m, []string{"k"}, func(ctx context.Context) (map[string]any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	<-started

	s, err = AssignAsync(s, m, []string{"k"}, func(ctx context.Context) (map[string]any, error) {
		return map[string]any{"k": "second"}, nil
	})
	require.NoError(t, err)

	seen := map[string]bool{}
	results := m.Results()
	for i := 0; i < 2; i++ {
		select {
		case msg := <-results:
			if m.IsCurrent(msg.Ref, msg.Keys) {
				s, err = Fold(s, msg)
				require.NoError(t, err)
			}
			seen[msg.Ref] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for results")
		}
	}
	final := s.Assigns["k"].(Result)
	require.True(t, final.OK)
	require.Equal(t, "second", final.Value)
}

func TestMatchRejectsUnknownClause(t *testing.T) {
	_, err := Match(Loading(), map[string]func(any) any{"bogus": func(any) any { return nil }})
	require.Error(t, err)
}

func TestMatchSelectsClauseByState(t *testing.T) {
	v, err := Match(Ok(5), map[string]func(any) any{
		ClauseOK:      func(a any) any { return a },
		ClauseLoading: func(a any) any { return "loading" },
	})
	require.NoError(t, err)
	require.Equal(t, 5, v)
}
