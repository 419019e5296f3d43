package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daoforge/internal/record"
	"daoforge/internal/stage"
)

// opFunc adapts a function to the Operation interface for tests that need
// behavior beyond what MockOperation offers.
type opFunc func(ctx context.Context, inputs map[string]any) (map[string]any, error)

func (f opFunc) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return f(ctx, inputs)
}

func mustLookup(t *testing.T, id stage.ID) stage.Definition {
	t.Helper()
	def, ok := stage.Lookup(id)
	require.True(t, ok)
	return def
}

// recordAfterContracts has create and deployContracts complete with all
// their produced fields present.
func recordAfterContracts() *record.Record {
	return &record.Record{
		Name:         "my-dao",
		OwnerAddress: "0x1111111111111111111111111111111111111111",
		ContractAddresses: map[string]string{
			"token":   "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"proxy":   "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			"vesting": "0xcccccccccccccccccccccccccccccccccccccccc",
		},
		CompletedStages: []string{"create", "deployContracts"},
	}
}

func TestExecute_Success(t *testing.T) {
	exec := New()
	def := mustLookup(t, stage.Register)
	rec := recordAfterContracts()
	rec.LastError = &record.StageError{Stage: "register", Message: "previous revert"}
	op := &MockOperation{Outputs: map[string]any{"onChainId": int64(7)}}

	result, err := exec.Execute(context.Background(), def, rec, op)
	require.NoError(t, err)

	// Inputs carry the resolved required fields.
	require.Equal(t, 1, op.Invocations)
	assert.Equal(t, rec.ContractAddresses["proxy"], op.RecordedInputs[0]["contractAddresses.proxy"])

	// Monotonic progress: previous set plus exactly one id.
	assert.Equal(t, []string{"create", "deployContracts", "register"}, result.CompletedStages)
	require.NotNil(t, result.OnChainID)
	assert.Equal(t, int64(7), *result.OnChainID)
	assert.Nil(t, result.LastError)

	// The caller's record is untouched; the executor works on a copy.
	assert.Nil(t, rec.OnChainID)
	assert.Len(t, rec.CompletedStages, 2)
	assert.NotNil(t, rec.LastError)
}

func TestExecute_IdempotentReentry(t *testing.T) {
	exec := New()
	def := mustLookup(t, stage.DeployContracts)
	rec := recordAfterContracts()
	op := &MockOperation{}

	result, err := exec.Execute(context.Background(), def, rec, op)
	require.NoError(t, err)

	assert.Equal(t, 0, op.Invocations, "re-running a completed stage must never invoke the operation")
	assert.Same(t, rec, result, "re-running a completed stage returns the record unchanged")
}

func TestExecute_OutOfOrder(t *testing.T) {
	exec := New()
	def := mustLookup(t, stage.DeployProof)
	rec := recordAfterContracts() // register not complete
	op := &MockOperation{}

	result, err := exec.Execute(context.Background(), def, rec, op)

	var outOfOrder *OutOfOrderError
	require.ErrorAs(t, err, &outOfOrder)
	assert.Equal(t, stage.DeployProof, outOfOrder.Stage)
	assert.Equal(t, stage.Register, outOfOrder.MissingPredecessor)
	assert.Nil(t, result)
	assert.Equal(t, 0, op.Invocations)
}

func TestExecute_MissingInput(t *testing.T) {
	exec := New()
	def := mustLookup(t, stage.Register)
	rec := recordAfterContracts()
	delete(rec.ContractAddresses, "proxy")
	op := &MockOperation{}

	result, err := exec.Execute(context.Background(), def, rec, op)

	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, stage.Register, missing.Stage)
	assert.Equal(t, "contractAddresses.proxy", missing.Field)
	assert.Nil(t, result)
	assert.Equal(t, 0, op.Invocations, "the operation is never invoked when an input is missing")
}

func TestExecute_OperationFailure(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exec := New()
	exec.SetClock(func() time.Time { return now })

	def := mustLookup(t, stage.Register)
	rec := recordAfterContracts()
	op := &MockOperation{Err: errors.New("execution reverted")}

	result, err := exec.Execute(context.Background(), def, rec, op)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, stage.Register, opErr.Stage)

	// The stage is not marked complete and stays retryable; only
	// LastError changed.
	require.NotNil(t, result)
	assert.Equal(t, rec.CompletedStages, result.CompletedStages)
	assert.Nil(t, result.OnChainID)
	require.NotNil(t, result.LastError)
	assert.Equal(t, "register", result.LastError.Stage)
	assert.Contains(t, result.LastError.Message, "execution reverted")
	assert.Equal(t, now, result.LastError.Timestamp)
}

func TestExecute_IncompleteResult(t *testing.T) {
	exec := New()
	def := mustLookup(t, stage.DeployProof)
	rec := recordAfterContracts()
	rec.MarkCompleted("register")
	id := int64(7)
	rec.OnChainID = &id

	tests := []struct {
		name    string
		outputs map[string]any
		missing string
	}{
		{
			name:    "field absent",
			outputs: map[string]any{"keys.encryptionKey": "0xabc"},
			missing: "keys.proofUrl",
		},
		{
			name:    "field nil",
			outputs: map[string]any{"keys.encryptionKey": "0xabc", "keys.proofUrl": nil},
			missing: "keys.proofUrl",
		},
		{
			name:    "field of wrong type",
			outputs: map[string]any{"keys.encryptionKey": 12, "keys.proofUrl": "u"},
			missing: "keys.encryptionKey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &MockOperation{Outputs: tt.outputs}
			result, err := exec.Execute(context.Background(), def, rec, op)

			var incomplete *IncompleteResultError
			require.ErrorAs(t, err, &incomplete)
			assert.Equal(t, tt.missing, incomplete.MissingField)

			// No partial merge: the result differs from the input only
			// in LastError.
			require.NotNil(t, result)
			assert.Empty(t, result.Keys)
			assert.Equal(t, rec.CompletedStages, result.CompletedStages)
			require.NotNil(t, result.LastError)
			assert.Equal(t, "deployProof", result.LastError.Stage)
		})
	}
}

func TestExecute_Timeout(t *testing.T) {
	exec := &Executor{Timeout: 5 * time.Millisecond}
	def := mustLookup(t, stage.Register)
	rec := recordAfterContracts()

	op := opFunc(func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	result, err := exec.Execute(context.Background(), def, rec, op)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, result)
	assert.False(t, result.Completed("register"))
	require.NotNil(t, result.LastError)
}

func TestExecute_CancelledOperationIsNeverSuccess(t *testing.T) {
	exec := New()
	def := mustLookup(t, stage.Register)
	rec := recordAfterContracts()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The adapter ignores cancellation and reports success anyway; the
	// executor must still treat the outcome as failure and merge nothing.
	op := &MockOperation{Outputs: map[string]any{"onChainId": int64(7)}}
	result, err := exec.Execute(ctx, def, rec, op)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Nil(t, result.OnChainID)
	assert.False(t, result.Completed("register"))
}

func TestExecute_PartialWriteIsRerunNotSkipped(t *testing.T) {
	exec := New()
	def := mustLookup(t, stage.Register)
	rec := recordAfterContracts()
	// Flag present but the produced field is not: the stage is not
	// complete under the data-presence rule and must run again.
	rec.MarkCompleted("register")

	op := &MockOperation{Outputs: map[string]any{"onChainId": int64(9)}}
	result, err := exec.Execute(context.Background(), def, rec, op)
	require.NoError(t, err)

	assert.Equal(t, 1, op.Invocations)
	require.NotNil(t, result.OnChainID)
	assert.Equal(t, int64(9), *result.OnChainID)
	assert.Equal(t, []string{"create", "deployContracts", "register"}, result.CompletedStages)
}
