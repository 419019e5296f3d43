package chainops

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"daoforge/internal/stage"
)

// ShellOperation is an external operation backed by a configured shell
// command.
//
// The command template is expanded with the stage's input fields, run
// through the [ToolExecutor], and the output handed to the parser. Input
// field paths are addressable in templates by their path segments, e.g.
// {{.contractAddresses.proxy}}.
type ShellOperation struct {
	stage    stage.ID
	template *template.Template
	executor ToolExecutor
	parse    ParseFunc
}

// NewShellOperation builds a [ShellOperation] from a command template.
func NewShellOperation(id stage.ID, command string, executor ToolExecutor, parse ParseFunc) (*ShellOperation, error) {
	tmpl, err := template.New(string(id)).Option("missingkey=error").Parse(command)
	if err != nil {
		return nil, fmt.Errorf("invalid command template for stage %s: %w", id, err)
	}
	return &ShellOperation{
		stage:    id,
		template: tmpl,
		executor: executor,
		parse:    parse,
	}, nil
}

// Run expands the command with the inputs, executes it, and parses out the
// produced fields. The tool output is included in command failures so the
// operator sees what the toolchain printed.
func (op *ShellOperation) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	var cmd strings.Builder
	if err := op.template.Execute(&cmd, nest(inputs)); err != nil {
		return nil, fmt.Errorf("failed to expand command for stage %s: %w", op.stage, err)
	}

	output, err := op.executor.Run(ctx, cmd.String())
	if err != nil {
		if trimmed := strings.TrimSpace(output); trimmed != "" {
			return nil, fmt.Errorf("%w\n%s", err, trimmed)
		}
		return nil, err
	}

	return op.parse(output)
}

// nest converts dotted field paths into nested maps so templates can use
// natural access, {"contractAddresses.proxy": v} → {{.contractAddresses.proxy}}.
func nest(inputs map[string]any) map[string]any {
	data := make(map[string]any, len(inputs))
	for path, v := range inputs {
		prefix, key, ok := strings.Cut(path, ".")
		if !ok {
			data[path] = v
			continue
		}
		inner, _ := data[prefix].(map[string]any)
		if inner == nil {
			inner = make(map[string]any)
			data[prefix] = inner
		}
		inner[key] = v
	}
	return data
}

// CreateOperation produces the initial record fields for the create stage.
//
// Creation has no external tool behind it: the name comes from the command
// line and the owner address from configuration, both validated by the CLI
// layer before they reach the core.
type CreateOperation struct {
	Name         string
	OwnerAddress string
}

// Run returns the initial record fields.
func (op *CreateOperation) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	if op.Name == "" {
		return nil, errors.New("project name is required")
	}
	if op.OwnerAddress == "" {
		return nil, errors.New("owner address is required; set owner_address in daoforge.yaml or DAOFORGE_OWNER_ADDRESS")
	}
	return map[string]any{
		"name":         op.Name,
		"ownerAddress": op.OwnerAddress,
	}, nil
}
