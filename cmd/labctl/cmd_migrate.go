package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lab-inventory/internal/database"
)

var rollbackAll = database.RollbackAll

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Long:      "migrate up applies pending migrations (default); migrate down rolls every migration back and drops all data.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: e.withDB(false, func(ctx context.Context, args []string) error {
			dir := "up"
			if len(args) == 1 {
				dir = args[0]
			}
			switch dir {
			case "up":
				if err := runMigrationsFn(e.db); err != nil {
					return err
				}
				e.printf("Migrations applied to %s\n", e.cfg.DatabasePath)
			case "down":
				if err := rollbackAll(e.db); err != nil {
					return err
				}
				e.printf("Migrations rolled back on %s\n", e.cfg.DatabasePath)
			default:
				return fmt.Errorf("unknown direction %q", dir)
			}
			return nil
		}),
	}
}
