// Package cli provides the daoforge command-line interface.
//
// Commands are thin: they wire the orchestrator, record storage, operation
// registry, and printer together and translate the core's typed results
// into user guidance and exit codes. All dependencies flow through [App]
// so tests can substitute mocks for every collaborator.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"daoforge/internal/chainops"
	"daoforge/internal/config"
	"daoforge/internal/executor"
	"daoforge/internal/journal"
	"daoforge/internal/lock"
	"daoforge/internal/orchestrator"
	"daoforge/internal/output"
	"daoforge/internal/record"
	"daoforge/internal/stage"
)

// App holds the dependencies shared by all commands.
//
// Fields left nil are filled in with production implementations by the root
// command's PersistentPreRunE; tests pre-populate them with mocks.
type App struct {
	Config       *config.Config
	Printer      *output.Printer
	Store        orchestrator.Store
	Registry     *chainops.Registry
	Orchestrator *orchestrator.Orchestrator
	Journal      *journal.Journal

	// RecordPath is the resolved deployment record location.
	RecordPath string

	projectDir string
	configPath string
}

// NewRootCommand creates the root cobra command with all subcommands
// attached.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "daoforge",
		Short: "Scaffold and incrementally deploy a DataDAO",
		Long: `daoforge drives a DataDAO deployment through its stages:

  create → deployContracts → register → deployProof → deployRefiner

Progress is persisted in a deployment record, so every command can be
re-run freely: stages that already succeeded are never repeated, and
daoforge always tells you the single correct next command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
	}

	root.PersistentFlags().StringVarP(&app.projectDir, "project", "C", "", "project directory (default current directory)")
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file path")

	root.AddCommand(
		newInitCommand(app),
		newDeployCommand(app),
		newResumeCommand(app),
		newNextCommand(app),
		newStatusCommand(app),
		newHistoryCommand(app),
	)
	root.AddCommand(newStageCommands(app)...)
	return root
}

// setup fills in production implementations for any dependency the caller
// left nil. Tests that pre-populate App fields are left untouched.
func (a *App) setup() error {
	if a.Config == nil {
		loader := config.NewLoader()
		var cfg *config.Config
		var err error
		if a.configPath != "" {
			cfg, err = loader.LoadFromFile(a.configPath)
		} else {
			cfg, err = loader.Load(a.projectDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if a.projectDir != "" {
			cfg.ProjectDir = a.projectDir
		}
		a.Config = cfg
	}
	if a.Printer == nil {
		a.Printer = output.NewPrinter()
	}
	if a.RecordPath == "" {
		a.RecordPath = record.ResolvePath(a.Config.ProjectDir, a.Config.RecordPath)
	}
	if a.Store == nil {
		a.Store = record.FileStore{}
	}
	if a.Registry == nil {
		texec := &chainops.ShellExecutor{Dir: a.Config.ProjectDir}
		registry, err := chainops.NewRegistry(a.Config, texec)
		if err != nil {
			return err
		}
		a.Registry = registry
	}
	if a.Orchestrator == nil {
		exec := executor.New()
		if a.Config.OperationTimeout > 0 {
			exec.Timeout = a.Config.OperationTimeout
		}
		orch := orchestrator.New(a.Store, lock.Flock{}, a.Registry, exec)
		orch.SetProgressCallback(func(id stage.ID) {
			a.Printer.StageStart(id)
		})
		if j, err := journal.Open(a.Config.ProjectDir); err == nil {
			a.Journal = j
			orch.SetJournal(j)
		} else {
			a.Printer.Info("warning: attempt journal disabled: %v", err)
		}
		a.Orchestrator = orch
	}
	return nil
}

// Execute builds the production [App], runs the root command, and exits the
// process with the resulting code.
func Execute() {
	app := &App{}
	root := NewRootCommand(app)
	if err := root.Execute(); err != nil {
		if code, ok := IsExitError(err); ok {
			os.Exit(code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
