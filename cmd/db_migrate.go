package cmd

import (
	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/spf13/cobra"
)

// migrate creates the position, asset, balance, operation and property tables
var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Aliases: []string{"setdb"},
	Short:   "migrate database tables",
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.FromContext(cmd.Context())

		database := provideDatabase()
		defer database.Close()

		if err := db.Migrate(database); err != nil {
			log.WithError(err).Errorln("migrate database")
			return
		}

		if seed, _ := cmd.Flags().GetBool("seed"); seed {
			// loading an empty database mints and records the genesis balances
			w := provideWorld(cmd.Context(), database)
			log.Infof("seeded, %d assets registered", len(w.Engine.Assets(cmd.Context())))
		}

		log.Infoln("database migrated")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("seed", false, "seed genesis balances and configured assets")
}
