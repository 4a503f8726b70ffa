package recid

import (
	"errors"
	"fmt"
)

// Sentinel errors for assignment-level failure conditions. These can be
// matched with errors.Is; component-level sentinels live in their own
// packages (canonical.ErrUnresolvableType, canonical.ErrAmbiguousFieldName,
// digest.ErrEmptyInput, digest.ErrUnknownAlgorithm, policy.ErrInvalidPolicy).
var (
	// ErrUndefinedOrder indicates a sequential policy was applied to a
	// batch whose ordering the caller did not explicitly mark as stable.
	// The engine never invents a record order.
	ErrUndefinedOrder = errors.New("batch ordering not declared stable")

	// ErrNonUniqueIndex indicates the caller-supplied stable order carries
	// a repeated sequence number. This signals a caller bug, not a data
	// condition the engine can adjudicate.
	ErrNonUniqueIndex = errors.New("non-unique sequence index")
)

// Error kinds categorize engine errors by the component they originate from.
const (
	// KindCanonicalization covers failures reducing a record to canonical
	// bytes.
	KindCanonicalization = "canonicalization"

	// KindPolicy covers invalid or inapplicable policy configuration.
	KindPolicy = "policy"

	// KindDigest covers digest engine failures.
	KindDigest = "digest"

	// KindAssignment covers batch-level failures in the assigner itself.
	KindAssignment = "assignment"
)

// EngineError is a structured error wrapping an underlying failure with the
// operation that failed and the component category it belongs to.
//
// EngineError supports errors.Is and errors.As through Unwrap, so callers
// can match either the wrapper or the underlying sentinel:
//
//	_, err := assigner.Assign(ctx, batch, pol)
//	if errors.Is(err, recid.ErrUndefinedOrder) { ... }
type EngineError struct {
	// Op is the operation that failed (e.g., "Assigner.Assign").
	Op string

	// Kind categorizes the error (e.g., KindCanonicalization).
	Kind string

	// Err is the underlying error.
	Err error

	// Context carries additional detail such as the record index involved.
	Context map[string]any
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("recid: %s: %s", e.Op, e.Kind)
	}
	if len(e.Context) > 0 {
		return fmt.Sprintf("recid: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}
	return fmt.Sprintf("recid: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is matches either another EngineError with the same Kind (and Op, when the
// target sets one) or the underlying error chain.
func (e *EngineError) Is(target error) bool {
	if target == nil {
		return false
	}
	if t, ok := target.(*EngineError); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			return t.Op == "" || e.Op == t.Op
		}
		return false
	}
	return errors.Is(e.Err, target)
}
