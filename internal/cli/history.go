package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"daoforge/internal/journal"
)

func newHistoryCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the stage attempt log",
		Long: `Show every recorded stage attempt, successes and failures alike.

The attempt log is an audit trail only; deployment decisions are made from
the deployment record, never from this log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j := app.Journal
			if j == nil {
				var err error
				j, err = journal.Open(app.Config.ProjectDir)
				if err != nil {
					app.Printer.Error(err)
					return NewExitError(1)
				}
				defer j.Close()
			}

			attempts, err := j.List(cmd.Context())
			if err != nil {
				app.Printer.Error(err)
				return NewExitError(1)
			}
			if len(attempts) == 0 {
				app.Printer.Info("no attempts recorded yet")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(app.Printer.Writer())
			t.AppendHeader(table.Row{"When", "Stage", "Outcome", "Duration", "Message"})
			for _, a := range attempts {
				t.AppendRow(table.Row{
					a.CreatedAt.Format("2006-01-02 15:04:05"),
					a.Stage,
					a.Outcome,
					a.Duration.String(),
					a.Message,
				})
			}
			t.SetStyle(table.StyleLight)
			t.Render()
			return nil
		},
	}
}
