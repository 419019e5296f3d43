package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"daoforge/internal/record"
	"daoforge/internal/stage"
)

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-stage deployment progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := app.Store.Load(app.RecordPath)
			if err != nil {
				app.Printer.Error(err)
				return NewExitError(1)
			}

			app.Printer.Header(rec.Name)
			app.Printer.Info("owner: %s", rec.OwnerAddress)

			t := table.NewWriter()
			t.SetOutputMirror(app.Printer.Writer())
			t.AppendHeader(table.Row{"Stage", "State", "Outputs"})
			for _, def := range stage.Table() {
				t.AppendRow(table.Row{def.ID, stageState(def, rec), stageOutputs(def, rec)})
			}
			t.SetStyle(table.StyleLight)
			t.Render()

			if rec.LastError != nil {
				app.Printer.Info("last failure: stage %s at %s: %s",
					rec.LastError.Stage,
					rec.LastError.Timestamp.Format("2006-01-02 15:04:05"),
					rec.LastError.Message)
			}
			return nil
		},
	}
}

// stageState classifies one stage for display. "incomplete" marks the
// pathological case of a completion flag whose produced fields are missing;
// such a stage will be re-run, not trusted.
func stageState(def stage.Definition, rec *record.Record) string {
	switch {
	case def.CompleteOn(rec):
		return "done"
	case rec.Completed(string(def.ID)):
		return "incomplete"
	case def.Optional:
		return "optional"
	default:
		return "pending"
	}
}

// stageOutputs summarizes the produced field values present on the record.
func stageOutputs(def stage.Definition, rec *record.Record) string {
	out := ""
	for _, field := range def.ProducedFields {
		v, ok := rec.Field(field)
		if !ok {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += field + ": " + truncateValue(v)
	}
	return out
}

func truncateValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	if len(s) > 46 {
		return s[:43] + "..."
	}
	return s
}
