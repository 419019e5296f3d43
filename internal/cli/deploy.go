package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"daoforge/internal/executor"
	"daoforge/internal/orchestrator"
)

func newDeployCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Execute the next deployment stage",
		Long: `Execute the single next runnable stage.

Stages that already succeeded are skipped, so deploy can be re-run freely
after a failure or an interruption: it picks up exactly where the record
says the deployment stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			rec, id, err := app.Orchestrator.RunOne(cmd.Context(), app.RecordPath)
			if err != nil {
				return app.reportRunError(err)
			}

			app.Printer.StageSuccess(id, time.Since(start))
			if _, nextErr := app.Orchestrator.Next(rec); errors.Is(nextErr, orchestrator.ErrAllComplete) {
				app.Printer.AllComplete()
			} else {
				app.Printer.Info("run `daoforge deploy` to continue")
			}
			return nil
		},
	}
}

// reportRunError renders an orchestrator run outcome that is not a plain
// stage success and picks the exit code.
//
// ErrAllComplete is a success for the user; Blocked and Locked are guidance,
// not defects, but still exit non-zero so scripts notice; everything else
// is a real failure.
func (a *App) reportRunError(err error) error {
	var (
		blocked    *orchestrator.BlockedError
		opErr      *executor.OperationError
		incomplete *executor.IncompleteResultError
	)
	switch {
	case errors.Is(err, orchestrator.ErrAllComplete):
		a.Printer.AllComplete()
		return nil
	case errors.As(err, &blocked):
		a.Printer.Blocked(blocked.Stage, blocked.Field)
		return NewExitError(1)
	case errors.As(err, &opErr):
		a.Printer.StageFailure(opErr.Stage, opErr.Err)
		return NewExitError(1)
	case errors.As(err, &incomplete):
		a.Printer.StageFailure(incomplete.Stage, incomplete)
		return NewExitError(1)
	default:
		a.Printer.Error(err)
		return NewExitError(1)
	}
}
