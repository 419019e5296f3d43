// Package stage defines the static, ordered catalog of deployment stages.
//
// The table is the single place encoding pipeline topology: which stages
// exist, their order, which predecessors and record fields each one needs,
// and which fields it produces. The executor and orchestrator never
// hard-code stage order anywhere else, so "what runs next" is always a pure
// function of (table, record).
//
// The canonical pipeline is:
//
//	create → deployContracts → register → deployProof → deployRefiner → (optional) testAll
//
// The table is fixed at build time and not user-extensible.
package stage

import "daoforge/internal/record"

// ID identifies a deployment stage.
type ID string

// Stage ids in pipeline order.
const (
	// Create produces the initial record fields (name, owner address).
	Create ID = "create"

	// DeployContracts compiles and deploys the DataDAO contracts.
	DeployContracts ID = "deployContracts"

	// Register registers the deployed pool with the on-chain registry.
	Register ID = "register"

	// DeployProof publishes the proof-of-contribution artifact and fetches
	// the pool encryption key.
	DeployProof ID = "deployProof"

	// DeployRefiner publishes the data refiner.
	DeployRefiner ID = "deployRefiner"

	// TestAll runs the end-to-end smoke test. Optional: it never blocks
	// the pipeline from reaching completion.
	TestAll ID = "testAll"
)

// Definition describes one stage: its position in the pipeline, what must
// already hold on the record before it may run, and what it produces.
type Definition struct {
	// ID is the stage identifier, also the flag added to the record's
	// completed set after the stage's outputs are durably written.
	ID ID

	// RequiredPredecessors are the stage ids that must be complete before
	// this stage may run.
	RequiredPredecessors []ID

	// RequiredFields are record field paths that must resolve to non-null
	// values before the stage's operation is invoked.
	RequiredFields []string

	// ProducedFields are the record field paths the stage's operation must
	// return. A partial result is a failure; nothing is merged.
	ProducedFields []string

	// Optional stages are skipped by the orchestrator's next-stage
	// decision and run only on explicit request.
	Optional bool
}

// table is the canonical pipeline. Order matters.
var table = []Definition{
	{
		ID:             Create,
		ProducedFields: []string{"name", "ownerAddress"},
	},
	{
		ID:                   DeployContracts,
		RequiredPredecessors: []ID{Create},
		RequiredFields:       []string{"name", "ownerAddress"},
		ProducedFields: []string{
			"contractAddresses.token",
			"contractAddresses.proxy",
			"contractAddresses.vesting",
		},
	},
	{
		ID:                   Register,
		RequiredPredecessors: []ID{Create, DeployContracts},
		RequiredFields:       []string{"contractAddresses.proxy"},
		ProducedFields:       []string{"onChainId"},
	},
	{
		ID:                   DeployProof,
		RequiredPredecessors: []ID{Register},
		RequiredFields:       []string{"onChainId"},
		ProducedFields:       []string{"keys.encryptionKey", "keys.proofUrl"},
	},
	{
		ID:                   DeployRefiner,
		RequiredPredecessors: []ID{DeployProof},
		RequiredFields:       []string{"keys.encryptionKey"},
		ProducedFields:       []string{"keys.refinerUrl"},
	},
	{
		ID:                   TestAll,
		RequiredPredecessors: []ID{DeployRefiner},
		RequiredFields:       []string{"onChainId"},
		Optional:             true,
	},
}

// Table returns the stage definitions in pipeline order.
//
// The returned slice is a copy; callers may not grow or reorder the
// pipeline at runtime.
func Table() []Definition {
	out := make([]Definition, len(table))
	copy(out, table)
	return out
}

// Lookup returns the definition for the given stage id.
func Lookup(id ID) (Definition, bool) {
	for _, def := range table {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

// CompleteOn reports whether the stage is complete on the given record.
//
// Completion is data presence, not a bare flag: the stage id must be in the
// record's completed set AND every produced field must resolve to a
// non-null value. A corrupted partial write is therefore never mistaken
// for success.
func (d Definition) CompleteOn(rec *record.Record) bool {
	if !rec.Completed(string(d.ID)) {
		return false
	}
	for _, field := range d.ProducedFields {
		if _, ok := rec.Field(field); !ok {
			return false
		}
	}
	return true
}
