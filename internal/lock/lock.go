// Package lock guards a deployment record against two local daoforge
// processes racing on it.
//
// The lock is advisory and exclusive, held for the duration of a single
// orchestrator run. A second invocation fails fast with [ErrLocked] rather
// than waiting; the operator simply retries once the first run finishes.
package lock

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked indicates another daoforge invocation holds the record lock.
// Not a data-corruption condition; retry once the other run completes.
var ErrLocked = errors.New("deployment record is locked by another invocation")

// Flock acquires advisory file locks next to the deployment record.
type Flock struct{}

// Acquire takes an exclusive advisory lock on path without blocking.
//
// On success it returns a release function. If the lock is already held it
// returns [ErrLocked] (wrapped with the path) immediately.
func (Flock) Acquire(path string) (func() error, error) {
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return fl.Unlock, nil
}
