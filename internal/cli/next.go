package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"daoforge/internal/orchestrator"
)

func newNextCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next deployment stage without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := app.Store.Load(app.RecordPath)
			if err != nil {
				app.Printer.Error(err)
				return NewExitError(1)
			}

			def, err := app.Orchestrator.Next(rec)
			var blocked *orchestrator.BlockedError
			switch {
			case errors.Is(err, orchestrator.ErrAllComplete):
				app.Printer.AllComplete()
			case errors.As(err, &blocked):
				app.Printer.Blocked(blocked.Stage, blocked.Field)
				return NewExitError(1)
			case err != nil:
				app.Printer.Error(err)
				return NewExitError(1)
			default:
				app.Printer.Next(def.ID)
			}
			return nil
		},
	}
}
