package caltrack

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/caltrack/internal/app"
	"github.com/saadjs/caltrack/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the local caltrack database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		if err := app.EnsureDBDir(path); err != nil {
			return err
		}
		sqldb, err := db.OpenMigrated(path)
		if err != nil {
			return err
		}
		defer sqldb.Close()

		version, err := db.SchemaVersion(sqldb)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized caltrack database at %s (schema v%d)\n", path, version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
