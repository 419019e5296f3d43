package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"daoforge/internal/chainops"
	"daoforge/internal/executor"
	"daoforge/internal/lock"
	"daoforge/internal/record"
	"daoforge/internal/stage"
)

func newInitCommand(app *App) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create the deployment record for a new DataDAO project",
		Long: `Create the deployment record for a new DataDAO project.

The owner address comes from --owner, the owner_address config key, or the
DAOFORGE_OWNER_ADDRESS environment variable. Credentials configured under
credentials: are stored on the record and forwarded to later stages.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			// Same lock the orchestrator holds, so init cannot clobber
			// a record a concurrent run is persisting.
			release, err := lock.Flock{}.Acquire(app.RecordPath + ".lock")
			if err != nil {
				app.Printer.Error(err)
				return NewExitError(1)
			}
			defer release()

			if _, err := app.Store.Load(app.RecordPath); err == nil {
				app.Printer.Info("project already initialized: %s", app.RecordPath)
				return nil
			} else if !errors.Is(err, record.ErrNotFound) {
				app.Printer.Error(err)
				return NewExitError(1)
			}

			if owner == "" {
				owner = app.Config.OwnerAddress
			}

			def, _ := stage.Lookup(stage.Create)
			rec := record.New(app.Config.Credentials)

			// Record creation flows through the same executor as every
			// other stage, so the create flag and its produced fields
			// land under the one completeness rule.
			exec := executor.New()
			result, err := exec.Execute(cmd.Context(), def, rec, &chainops.CreateOperation{
				Name:         name,
				OwnerAddress: owner,
			})
			if err != nil {
				app.Printer.Error(err)
				return NewExitError(1)
			}

			if err := app.Store.Save(result, app.RecordPath); err != nil {
				app.Printer.Error(err)
				return NewExitError(1)
			}

			app.Printer.Info("initialized %s (owner %s)", name, owner)
			app.Printer.Info("record: %s", app.RecordPath)
			app.Printer.Info("run `daoforge deploy` to deploy the contracts")
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "chain address controlling the deployment (default from config)")
	return cmd
}
