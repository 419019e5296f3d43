// Package executor runs a single deployment stage against the record.
//
// The executor validates preconditions, delegates the actual work to an
// external operation, verifies the operation's declared outputs, and
// produces an updated copy of the record. It guarantees at most one
// completion write per stage success and never more than one operation
// invocation per call, which is what makes re-running the top-level command
// safe: a contract deployment is attempted again only if it did not
// previously report success.
//
// Key types:
//   - [Operation] is the external collaborator performing the actual work
//   - [Executor] validates, invokes, verifies, and merges
//
// For testing, use [MockOperation] which records invocations without
// touching any external system.
package executor

import (
	"context"
	"time"

	"daoforge/internal/record"
	"daoforge/internal/stage"
)

// Operation is an external collaborator performing one stage's actual work:
// a contract deployment, an on-chain registration call, a container build.
//
// Run receives the resolved values of the stage's required fields and must
// return either the complete mapping of the stage's produced fields or an
// error. Implementations own all tool-specific output parsing; the core
// never interprets tool output. Run must honor ctx cancellation and
// deadlines.
type Operation interface {
	Run(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// Executor runs one stage at a time.
//
// The zero value is usable; [New] sets the default operation timeout.
// Executor is stateless across calls: every decision is a function of the
// stage definition and the record passed in.
type Executor struct {
	// Timeout bounds a single external operation. Zero means no timeout.
	Timeout time.Duration

	// now is the clock used for LastError timestamps, injectable for tests.
	now func() time.Time
}

// DefaultTimeout bounds a single external operation. Contract deployments
// and container builds routinely take minutes.
const DefaultTimeout = 15 * time.Minute

// New creates an [Executor] with the default operation timeout.
func New() *Executor {
	return &Executor{Timeout: DefaultTimeout}
}

// SetClock overrides the clock used for failure timestamps. Used in tests.
func (e *Executor) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Executor) timestamp() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now().UTC()
}

// Execute runs one stage.
//
// Preconditions are checked in order before any external system is touched:
//
//  1. Every required predecessor is complete, else [OutOfOrderError].
//  2. Every required field resolves to a non-null value, else
//     [MissingInputError]. The operation is never invoked for either.
//  3. The stage is already complete (its flag and every produced field are
//     present): the call is a no-op returning the record unchanged,
//     without invoking the operation.
//
// On success the returned record is a copy with the produced fields merged,
// the stage id appended to the completed set, and LastError cleared. The
// caller is responsible for persisting it.
//
// On operation failure (including a partial result, timeout, or
// cancellation) the returned record is a copy unchanged except for
// LastError, alongside the non-nil error; persisting it lets the next
// invocation report what failed without marking the stage complete.
// Precondition failures return a nil record.
func (e *Executor) Execute(ctx context.Context, def stage.Definition, rec *record.Record, op Operation) (*record.Record, error) {
	for _, pred := range def.RequiredPredecessors {
		if !rec.Completed(string(pred)) {
			return nil, &OutOfOrderError{Stage: def.ID, MissingPredecessor: pred}
		}
	}

	inputs := make(map[string]any, len(def.RequiredFields))
	for _, field := range def.RequiredFields {
		v, ok := rec.Field(field)
		if !ok {
			return nil, &MissingInputError{Stage: def.ID, Field: field}
		}
		inputs[field] = v
	}

	// Re-running a completed stage is always safe: return the cached
	// success without touching the external system. Completion here is the
	// same data-presence rule the orchestrator uses, so a record whose flag
	// survived a partial write without its fields is re-run, not skipped.
	if def.CompleteOn(rec) {
		return rec, nil
	}

	opCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	outputs, opErr := op.Run(opCtx, inputs)
	if opErr == nil && opCtx.Err() != nil {
		// A cancelled or timed-out operation is a failure even if the
		// adapter returned normally; the remote side may or may not have
		// completed, and the completed-stage check is the safety net for
		// operations that actually succeeded.
		opErr = opCtx.Err()
	}
	if opErr != nil {
		failure := &OperationError{Stage: def.ID, Err: opErr}
		return e.fail(def, rec, opErr.Error()), failure
	}

	result := rec.Clone()
	for _, field := range def.ProducedFields {
		v, ok := outputs[field]
		if !ok || v == nil {
			failure := &IncompleteResultError{Stage: def.ID, MissingField: field}
			return e.fail(def, rec, failure.Error()), failure
		}
		if err := result.SetField(field, v); err != nil {
			failure := &IncompleteResultError{Stage: def.ID, MissingField: field}
			return e.fail(def, rec, failure.Error()), failure
		}
	}

	result.MarkCompleted(string(def.ID))
	result.LastError = nil
	return result, nil
}

// fail returns a copy of rec carrying only a fresh LastError for the stage.
func (e *Executor) fail(def stage.Definition, rec *record.Record, message string) *record.Record {
	result := rec.Clone()
	result.LastError = &record.StageError{
		Stage:     string(def.ID),
		Message:   message,
		Timestamp: e.timestamp(),
	}
	return result
}

// MockOperation implements [Operation] for tests.
//
// It records every invocation and returns the configured outputs or error.
type MockOperation struct {
	// Outputs is returned from Run when Err is nil.
	Outputs map[string]any

	// Err, when set, makes Run fail.
	Err error

	// Invocations counts Run calls.
	Invocations int

	// RecordedInputs captures the inputs of each Run call.
	RecordedInputs []map[string]any
}

func (m *MockOperation) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	m.Invocations++
	m.RecordedInputs = append(m.RecordedInputs, inputs)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Outputs, nil
}
