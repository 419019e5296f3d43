package chainops

import (
	"fmt"

	"daoforge/internal/config"
	"daoforge/internal/executor"
	"daoforge/internal/stage"
)

// stageParsers binds each shell-backed stage to its output parser.
var stageParsers = map[stage.ID]ParseFunc{
	stage.DeployContracts: ParseContracts,
	stage.Register:        ParseRegister,
	stage.DeployProof:     ParseProof,
	stage.DeployRefiner:   ParseRefiner,
	stage.TestAll:         ParseNone,
}

// Registry resolves the external operation for each stage id. It satisfies
// the orchestrator's Registry interface.
type Registry struct {
	ops map[stage.ID]executor.Operation
}

// NewRegistry builds a [Registry] from the configured command templates.
//
// Each stage listed in cfg.Operations with a known parser gets a
// [ShellOperation]; stages without a parser (such as create) are added by
// the caller via [Registry.Register].
func NewRegistry(cfg *config.Config, texec ToolExecutor) (*Registry, error) {
	r := &Registry{ops: make(map[stage.ID]executor.Operation)}
	for name, oc := range cfg.Operations {
		id := stage.ID(name)
		parse, ok := stageParsers[id]
		if !ok {
			return nil, fmt.Errorf("no output parser for configured operation %q", name)
		}
		op, err := NewShellOperation(id, oc.Command, texec, parse)
		if err != nil {
			return nil, err
		}
		r.ops[id] = op
	}
	return r, nil
}

// Register adds or replaces the operation for a stage id.
func (r *Registry) Register(id stage.ID, op executor.Operation) {
	r.ops[id] = op
}

// Operation returns the operation registered for the stage id.
func (r *Registry) Operation(id stage.ID) (executor.Operation, bool) {
	op, ok := r.ops[id]
	return op, ok
}
