// Package async implements the asynchronous-assign subsystem:
// AssignAsync launches user-provided producers, folds their results back
// into AsyncResult-tagged assigns, and supports best-effort cancellation
// of superseded attempts. Cancellation and result fan-in use the
// channerics library's OrDone, which stops forwarding once a done
// channel closes.
package async

import "fmt"

// Result is the tagged AsyncResult variant: exactly one of Loading, OK,
// Failed is truthy at any time.
type Result struct {
	Loading bool
	OK      bool
	Failed  error
	Value   any
}

// Loading returns the initial AsyncResult assigned the moment AssignAsync
// is called.
func Loading() Result { return Result{Loading: true} }

// Ok returns a successful AsyncResult wrapping value.
func Ok(value any) Result { return Result{OK: true, Value: value} }

// Err returns a failed AsyncResult wrapping err. Value is set to the same
// error, for symmetry with Failed.
func Err(err error) Result { return Result{Failed: err, Value: err} }

// Clauses is the set of recognized async_result clause keys.
const (
	ClauseOK      = "ok"
	ClauseLoading = "loading"
	ClauseFailed  = "failed"
)

// Match is the view-side async_result helper: given clauses keyed
// ok/loading/failed, it invokes the clause matching r's current state.
// An unknown clause key is a fatal argument error, never silently
// ignored.
func Match(r Result, clauses map[string]func(any) any) (any, error) {
	for k := range clauses {
		switch k {
		case ClauseOK, ClauseLoading, ClauseFailed:
		default:
			return nil, fmt.Errorf("async: unknown async_result clause %q", k)
		}
	}
	switch {
	case r.Loading:
		if fn := clauses[ClauseLoading]; fn != nil {
			return fn(nil), nil
		}
	case r.OK:
		if fn := clauses[ClauseOK]; fn != nil {
			return fn(r.Value), nil
		}
	case r.Failed != nil:
		if fn := clauses[ClauseFailed]; fn != nil {
			return fn(r.Failed), nil
		}
	}
	return nil, nil
}
