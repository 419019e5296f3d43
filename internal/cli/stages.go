package cli

import (
	"time"

	"github.com/spf13/cobra"

	"daoforge/internal/stage"
)

// newStageCommands builds the commands that target one specific stage,
// bypassing the next-stage decision. Running one out of turn reports the
// missing predecessor instead of executing anything.
func newStageCommands(app *App) []*cobra.Command {
	targets := []struct {
		use   string
		short string
		id    stage.ID
	}{
		{"contracts", "Deploy the DataDAO smart contracts", stage.DeployContracts},
		{"register", "Register the deployed pool on chain", stage.Register},
		{"proof", "Publish the proof-of-contribution service", stage.DeployProof},
		{"refiner", "Publish the data refiner", stage.DeployRefiner},
		{"test", "Run the end-to-end smoke test", stage.TestAll},
	}

	cmds := make([]*cobra.Command, 0, len(targets))
	for _, target := range targets {
		id := target.id
		cmds = append(cmds, &cobra.Command{
			Use:   target.use,
			Short: target.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				start := time.Now()
				if _, err := app.Orchestrator.RunStage(cmd.Context(), app.RecordPath, id); err != nil {
					return app.reportRunError(err)
				}
				app.Printer.StageSuccess(id, time.Since(start))
				return nil
			},
		})
	}
	return cmds
}
