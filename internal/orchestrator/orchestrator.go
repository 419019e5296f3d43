// Package orchestrator decides and drives what runs next in the deployment
// pipeline.
//
// Given a persisted deployment record, [Orchestrator.Next] walks the stage
// table and returns the first incomplete required stage, a [BlockedError]
// naming the unmet input, or [ErrAllComplete]. The decision is a pure
// function of (table, record): resuming after an arbitrary delay, or on a
// different machine, yields the same answer as resuming immediately.
//
// [Orchestrator.RunOne] performs one full guarded cycle: advisory lock,
// load, decide, execute, persist, unlock. Only one stage runs per
// invocation unless the caller loops via [Orchestrator.RunAll].
//
// Key types:
//   - [Orchestrator] ties storage, locking, the operation registry, and the
//     stage executor together
//   - [BlockedError] is the user-facing "run X first" signal
//
// The orchestrator never writes to a console; all reporting flows through
// its return values.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daoforge/internal/executor"
	"daoforge/internal/journal"
	"daoforge/internal/record"
	"daoforge/internal/stage"
)

// ErrAllComplete is a sentinel indicating every required stage has
// completed. Callers should report success rather than treat this as a
// failure condition.
var ErrAllComplete = errors.New("deployment is complete, nothing left to run")

// BlockedError indicates the next stage cannot run because a required
// record field is absent. The field path tells the operator what upstream
// step to run first.
type BlockedError struct {
	Stage stage.ID
	Field string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("stage %s is blocked: record field %q is not set", e.Stage, e.Field)
}

// Store is the interface for deployment record persistence.
// [record.FileStore] implements it over the filesystem.
type Store interface {
	Load(path string) (*record.Record, error)
	Save(rec *record.Record, path string) error
}

// Locker is the interface for advisory locking of a record locator.
// [lock.Flock] implements it with exclusive file locks.
type Locker interface {
	// Acquire takes the lock without blocking, returning a release
	// function, or fails fast when the lock is already held.
	Acquire(path string) (func() error, error)
}

// Registry resolves the concrete external operation for a stage id.
type Registry interface {
	Operation(id stage.ID) (executor.Operation, bool)
}

// ProgressCallback is invoked right before a stage's operation runs.
// It enables progress reporting in the CLI and is optional.
type ProgressCallback func(id stage.ID)

// Orchestrator drives the deployment pipeline one stage at a time.
//
// Use [New] to create an instance. The journal and progress callback are
// optional and configured with [Orchestrator.SetJournal] and
// [Orchestrator.SetProgressCallback].
type Orchestrator struct {
	store    Store
	locker   Locker
	registry Registry
	exec     *executor.Executor
	table    []stage.Definition

	journal  *journal.Journal
	progress ProgressCallback
}

// New creates an [Orchestrator] over the canonical stage table.
func New(store Store, locker Locker, registry Registry, exec *executor.Executor) *Orchestrator {
	return &Orchestrator{
		store:    store,
		locker:   locker,
		registry: registry,
		exec:     exec,
		table:    stage.Table(),
	}
}

// SetJournal configures an optional attempt journal. When set, every
// execution RunOne or RunStage performs is recorded. Journal write failures
// never fail the run.
func (o *Orchestrator) SetJournal(j *journal.Journal) {
	o.journal = j
}

// SetProgressCallback configures an optional callback invoked before each
// stage execution.
func (o *Orchestrator) SetProgressCallback(cb ProgressCallback) {
	o.progress = cb
}

// Next returns the first required stage that is not yet complete on the
// record.
//
// Returns [ErrAllComplete] when every required stage is complete (optional
// stages never block completion), and a [BlockedError] when the next stage
// exists but one of its required fields is absent. Next performs no I/O and
// never mutates the record, so applying it twice to the same record yields
// the same answer.
func (o *Orchestrator) Next(rec *record.Record) (stage.Definition, error) {
	for _, def := range o.table {
		if def.Optional {
			continue
		}
		if def.CompleteOn(rec) {
			continue
		}
		for _, field := range def.RequiredFields {
			if _, ok := rec.Field(field); !ok {
				return stage.Definition{}, &BlockedError{Stage: def.ID, Field: field}
			}
		}
		return def, nil
	}
	return stage.Definition{}, ErrAllComplete
}

// RunOne executes the single next runnable stage against the record at
// path.
//
// The cycle is: acquire the advisory lock, load the record, resolve the
// next stage, execute it, persist the outcome (the updated record on
// success, or the record with LastError set on operation failure), release
// the lock. It returns the persisted record and the id of the stage that
// ran. Terminal and blocking conditions ([ErrAllComplete], [BlockedError],
// [lock.ErrLocked], load errors) are returned without executing anything.
func (o *Orchestrator) RunOne(ctx context.Context, path string) (*record.Record, stage.ID, error) {
	release, err := o.locker.Acquire(path + ".lock")
	if err != nil {
		return nil, "", err
	}
	defer release()

	rec, err := o.store.Load(path)
	if err != nil {
		return nil, "", err
	}

	def, err := o.Next(rec)
	if err != nil {
		return rec, "", err
	}

	result, err := o.execute(ctx, def, rec, path)
	return result, def.ID, err
}

// RunAll executes stages one at a time until the pipeline is complete,
// blocked, or a stage fails.
//
// Completion is reported as (record, nil). Each iteration re-acquires the
// lock and re-loads the record, so every decision is made against the
// persisted state.
func (o *Orchestrator) RunAll(ctx context.Context, path string) (*record.Record, error) {
	for {
		rec, _, err := o.RunOne(ctx, path)
		if errors.Is(err, ErrAllComplete) {
			return rec, nil
		}
		if err != nil {
			return rec, err
		}
	}
}

// RunStage executes one explicitly requested stage, bypassing the
// next-stage decision.
//
// This is how optional stages run, and the one path where the executor's
// order enforcement ([executor.OutOfOrderError]) can surface to a user.
func (o *Orchestrator) RunStage(ctx context.Context, path string, id stage.ID) (*record.Record, error) {
	def, ok := stage.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown stage: %s", id)
	}

	release, err := o.locker.Acquire(path + ".lock")
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := o.store.Load(path)
	if err != nil {
		return nil, err
	}

	return o.execute(ctx, def, rec, path)
}

// execute runs one stage via the executor and persists the outcome.
func (o *Orchestrator) execute(ctx context.Context, def stage.Definition, rec *record.Record, path string) (*record.Record, error) {
	op, ok := o.registry.Operation(def.ID)
	if !ok {
		return nil, fmt.Errorf("no operation registered for stage %s", def.ID)
	}

	if o.progress != nil {
		o.progress(def.ID)
	}

	start := time.Now()
	result, execErr := o.exec.Execute(ctx, def, rec, op)
	o.record(ctx, def.ID, execErr, time.Since(start))

	if execErr != nil {
		// Precondition failures leave no record to persist; operation
		// failures persist the updated LastError so the next invocation
		// can report what failed without re-running everything.
		if result != nil {
			if saveErr := o.store.Save(result, path); saveErr != nil {
				return result, errors.Join(execErr, saveErr)
			}
		}
		return result, execErr
	}

	if err := o.store.Save(result, path); err != nil {
		return result, err
	}
	return result, nil
}

// record appends the attempt to the journal when one is configured.
func (o *Orchestrator) record(ctx context.Context, id stage.ID, execErr error, elapsed time.Duration) {
	if o.journal == nil {
		return
	}
	a := journal.Attempt{
		Stage:    string(id),
		Outcome:  journal.OutcomeSuccess,
		Duration: elapsed,
	}
	if execErr != nil {
		a.Outcome = journal.OutcomeFailure
		a.Message = execErr.Error()
	}
	// Journaling is best-effort; a failed insert must not fail the stage.
	_ = o.journal.Append(ctx, a)
}
