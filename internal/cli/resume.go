package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"daoforge/internal/orchestrator"
)

func newResumeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "resume",
		Aliases: []string{"run"},
		Short:   "Run all remaining deployment stages",
		Long: `Run the remaining stages one after another until the deployment is
complete, a stage fails, or the pipeline is blocked on a missing input.
Each stage's outcome is persisted before the next one starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for {
				start := time.Now()
				_, id, err := app.Orchestrator.RunOne(cmd.Context(), app.RecordPath)
				if errors.Is(err, orchestrator.ErrAllComplete) {
					app.Printer.AllComplete()
					return nil
				}
				if err != nil {
					return app.reportRunError(err)
				}
				app.Printer.StageSuccess(id, time.Since(start))
			}
		},
	}
}
