package executor

import (
	"fmt"

	"daoforge/internal/stage"
)

// OutOfOrderError indicates a stage was requested whose predecessor has not
// completed. The orchestrator's next-stage decision never produces this; it
// surfaces only when a caller requests a specific stage directly.
type OutOfOrderError struct {
	Stage              stage.ID
	MissingPredecessor stage.ID
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("stage %s cannot run before %s has completed", e.Stage, e.MissingPredecessor)
}

// MissingInputError indicates a required record field is absent. The field
// path tells the operator which upstream step to run.
type MissingInputError struct {
	Stage stage.ID
	Field string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("stage %s requires record field %q, which is not set", e.Stage, e.Field)
}

// IncompleteResultError indicates the external operation reported success
// but omitted a declared output field. This is a defect in the operation
// adapter; nothing is merged into the record.
type IncompleteResultError struct {
	Stage        stage.ID
	MissingField string
}

func (e *IncompleteResultError) Error() string {
	return fmt.Sprintf("stage %s operation returned an incomplete result: missing %q", e.Stage, e.MissingField)
}

// OperationError indicates the external operation itself failed (tool
// crash, on-chain revert, timeout, cancellation). The stage remains
// retryable: it is not marked complete and its prerequisites are unchanged.
type OperationError struct {
	Stage stage.ID
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }
