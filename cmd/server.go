package cmd

import (
	"context"
	"fmt"
	"leverage/handler"
	"leverage/handler/hc"
	"leverage/worker/liquidator"
	"net/http"
	"time"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "run leverage api server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		database := provideDatabase()
		defer database.Close()

		w := provideWorld(ctx, database)

		mux := chi.NewMux()
		mux.Use(middleware.Recoverer)
		mux.Use(middleware.StripSlashes)
		mux.Use(cors.AllowAll().Handler)
		mux.Use(logger.WithRequestID)
		mux.Use(middleware.Logger)
		mux.Use(middleware.NewCompressor(5).Handler)

		{
			//hc
			mux.Mount("/hc", hc.Handle(rootCmd.Version, w.Engine))
		}

		{
			//restful api
			svr := handler.New(provideConfig(), w.Engine, provideOperationStore(database))
			mux.Mount("/api", http.StripPrefix("/api", svr.HandleRestAPI()))
		}

		if withLiquidator, _ := cmd.Flags().GetBool("liquidator"); withLiquidator {
			job, err := liquidator.New(cfg.App, cfg.Liquidator, w.Engine, providePropertyStore(database))
			if err != nil {
				log.WithError(err).Fatalln("liquidator.New")
			}

			_ = job.Start()
			defer job.Stop()
		}

		port, _ := cmd.Flags().GetInt("port")
		addr := fmt.Sprintf(":%d", port)

		server := &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		ctx, quit := context.WithCancel(ctx)
		done := make(chan struct{}, 1)
		signal.WithContextFunc(ctx, func() {
			quit()

			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				logrus.WithError(err).Error("graceful shutdown server failed")
			}

			close(done)
		})

		logrus.Infoln("serve at", addr)
		err := server.ListenAndServe()
		if err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server aborted")
		}

		<-done
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntP("port", "p", 9000, "server port")
	serverCmd.Flags().Bool("liquidator", false, "run the liquidation job in the server process")
}
