package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"daoforge/internal/chainops"
	"daoforge/internal/config"
	"daoforge/internal/executor"
	"daoforge/internal/output"
	"daoforge/internal/record"
	"daoforge/internal/stage"
)

// newTestApp builds an [App] over a temporary project directory with an
// empty operation registry. Tests register [executor.MockOperation]s for
// the stages they exercise; everything else (store, lock, journal,
// orchestrator) is the production wiring.
func newTestApp(t *testing.T, dir string) (*App, *chainops.Registry, *bytes.Buffer) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.ProjectDir = dir
	cfg.Operations = map[string]config.OperationConfig{}

	registry, err := chainops.NewRegistry(cfg, &chainops.MockToolExecutor{})
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}

	buf := &bytes.Buffer{}
	app := &App{
		Config:     cfg,
		Printer:    output.NewPrinterWithWriter(buf),
		Registry:   registry,
		RecordPath: filepath.Join(dir, record.DefaultRecordName),
	}
	return app, registry, buf
}

// run executes the root command with the given arguments.
func run(t *testing.T, app *App, args ...string) error {
	t.Helper()

	root := NewRootCommand(app)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	return root.Execute()
}

// writeRecord persists a record for tests that start mid-pipeline.
func writeRecord(t *testing.T, app *App, rec *record.Record) {
	t.Helper()
	if err := record.Save(rec, app.RecordPath); err != nil {
		t.Fatalf("failed to write record: %v", err)
	}
}

// mockStage registers a MockOperation producing the given outputs.
func mockStage(registry *chainops.Registry, id stage.ID, outputs map[string]any) *executor.MockOperation {
	op := &executor.MockOperation{Outputs: outputs}
	registry.Register(id, op)
	return op
}

// contractOutputs is a complete deployContracts result.
func contractOutputs() map[string]any {
	return map[string]any{
		"contractAddresses.token":   "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"contractAddresses.proxy":   "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		"contractAddresses.vesting": "0xcccccccccccccccccccccccccccccccccccccccc",
	}
}
