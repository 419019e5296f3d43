// Package chainops provides the external operation adapters for each
// deployment stage.
//
// An adapter expands a configured command template, runs it through a
// [ToolExecutor], and parses the tool's output to extract the stage's
// produced fields. The adapters own all tool-specific output parsing; they
// guarantee either a complete produced-fields mapping or a failure, which
// is the contract the stage executor relies on.
//
// Key types:
//   - [ToolExecutor]: interface for running external toolchain commands
//   - [ShellOperation]: a template-driven, shell-backed operation
//   - [Registry]: stage id → operation lookup used by the orchestrator
//
// For testing, use [MockToolExecutor] which records commands without
// spawning real processes.
package chainops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ToolExecutor runs an external toolchain command and returns its combined
// output.
//
// Implementations must honor ctx cancellation and deadlines; the stage
// executor relies on that for its operation timeout.
type ToolExecutor interface {
	Run(ctx context.Context, command string) (output string, err error)
}

// ShellExecutor implements [ToolExecutor] by spawning `sh -c` in a working
// directory.
type ShellExecutor struct {
	// Dir is the working directory for commands. Empty means the current
	// directory.
	Dir string

	// Env is appended to the inherited environment.
	Env []string
}

// Run executes the command and returns its combined stdout and stderr.
//
// A non-zero exit reports an error that includes the exit status; the
// captured output is still returned so callers can surface tool logs.
func (s *ShellExecutor) Run(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = s.Dir
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("command %q: %w", command, err)
	}
	return string(out), nil
}

// MockToolExecutor implements [ToolExecutor] for tests.
type MockToolExecutor struct {
	// Output is returned from Run when Err is nil.
	Output string

	// Err, when set, makes Run fail.
	Err error

	// RecordedCommands captures every command passed to Run.
	RecordedCommands []string
}

func (m *MockToolExecutor) Run(ctx context.Context, command string) (string, error) {
	m.RecordedCommands = append(m.RecordedCommands, command)
	if m.Err != nil {
		return m.Output, m.Err
	}
	return m.Output, nil
}
