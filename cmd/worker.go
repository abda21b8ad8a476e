package cmd

import (
	"leverage/worker"
	"leverage/worker/liquidator"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "leverage job worker",
	Long:  "runs the liquidation job against its own engine, do not share the database with a running server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)
		ctx = logger.WithContext(ctx, log)

		database := provideDatabase()
		defer database.Close()

		w := provideWorld(ctx, database)

		job, err := liquidator.New(cfg.App, cfg.Liquidator, w.Engine, providePropertyStore(database))
		if err != nil {
			log.WithError(err).Fatalln("liquidator.New")
		}

		jobs := []worker.IJob{job}
		for _, j := range jobs {
			_ = j.Start()
		}

		<-signal.WithContext(ctx).Done()

		for _, j := range jobs {
			_ = j.Stop()
		}
		log.Infoln("worker stopped")
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
