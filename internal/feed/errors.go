package feed

import (
	"errors"
	"fmt"
	"strings"
)

// MalformedQueryError reports a primary query spec that references columns
// the primary store cannot evaluate, i.e. fields that live on a joined
// entity. The store must reject such a spec rather than silently dropping
// the clause; the engine recovers by stripping the offending fields and
// letting the secondary predicate pass cover them.
type MalformedQueryError struct {
	Fields []string
}

func (e *MalformedQueryError) Error() string {
	return fmt.Sprintf("primary query references joined fields: %s", strings.Join(e.Fields, ", "))
}

// RetrievalError wraps a transport or store failure during the primary
// query. It is the only failure surfaced to the caller.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("primary store retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// CompositionError is what the caller sees when a compose cycle fails.
// The previously displayed page stays intact; the only recovery is an
// explicit retry.
type CompositionError struct {
	Err error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("feed composition failed: %v", e.Err)
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}

// ErrStaleResult marks a compose cycle superseded by a newer action. It is
// not a failure: the result was discarded and the session reflects the
// newer action's outcome.
var ErrStaleResult = errors.New("feed: result superseded by a newer action")

// ErrSessionClosed is returned when composing against a reset session
var ErrSessionClosed = errors.New("feed: session closed")

// ErrNoRetryableAction is returned when retry is requested but the session
// has no failed action to repeat.
var ErrNoRetryableAction = errors.New("feed: nothing to retry")

// IsStale reports whether err means the compose result was discarded as stale
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleResult)
}
